//go:build go1.21

// Package slog adapts a log/slog logger to cachebridge.Logger.
package slog

import (
	"context"
	stdslog "log/slog"
	"sort"

	"github.com/unkn0wn-root/cachebridge"
)

var _ cachebridge.Logger = Logger{}

type Logger struct{ L *stdslog.Logger }

// New groups every record's fields under "cachebridge". A nil l uses
// slog.Default.
func New(l *stdslog.Logger) Logger {
	if l == nil {
		l = stdslog.Default()
	}
	return Logger{L: l.WithGroup("cachebridge")}
}

func (s Logger) Debug(msg string, f cachebridge.Fields) { s.log(stdslog.LevelDebug, msg, f) }
func (s Logger) Info(msg string, f cachebridge.Fields)  { s.log(stdslog.LevelInfo, msg, f) }
func (s Logger) Warn(msg string, f cachebridge.Fields)  { s.log(stdslog.LevelWarn, msg, f) }
func (s Logger) Error(msg string, f cachebridge.Fields) { s.log(stdslog.LevelError, msg, f) }

func (s Logger) log(level stdslog.Level, msg string, f cachebridge.Fields) {
	ctx := context.Background()
	if !s.L.Enabled(ctx, level) {
		return
	}
	s.L.LogAttrs(ctx, level, msg, attrs(f)...)
}

func attrs(f cachebridge.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]stdslog.Attr, 0, len(f))
	for _, k := range names {
		if err, ok := f[k].(error); ok {
			out = append(out, stdslog.String(k, err.Error()))
			continue
		}
		out = append(out, stdslog.Any(k, f[k]))
	}
	return out
}
