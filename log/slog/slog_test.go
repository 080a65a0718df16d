//go:build go1.21

package slog

import (
	"bytes"
	"errors"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/cachebridge"
)

func TestLoggerWritesGroupedAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo})
	l := New(stdslog.New(h))

	l.Debug("hidden", cachebridge.Fields{"key": "k"})
	l.Warn("miss", cachebridge.Fields{"key": "k", "err": errors.New("gone")})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug should be filtered: %s", out)
	}
	for _, want := range []string{"msg=miss", "cachebridge.key=k", "cachebridge.err=gone"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %s", want, out)
		}
	}
}
