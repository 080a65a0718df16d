// Package zap adapts a *zap.Logger to cachebridge.Logger.
package zap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/cachebridge"
)

var _ cachebridge.Logger = Logger{}

type Logger struct{ L *zap.Logger }

// New names the logger "cachebridge". A nil l yields zap.NewNop.
func New(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return Logger{L: l.Named("cachebridge")}
}

func (z Logger) Debug(msg string, f cachebridge.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f cachebridge.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f cachebridge.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f cachebridge.Fields) { z.L.Error(msg, fields(f)...) }

func fields(f cachebridge.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]zap.Field, 0, len(f))
	for _, k := range names {
		switch v := f[k].(type) {
		case error:
			out = append(out, zap.NamedError(k, v))
		case string:
			out = append(out, zap.String(k, v))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
