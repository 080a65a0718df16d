// Package sloghooks reports bridge hook callbacks through log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/cachebridge"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	MissEvery    uint64
	SkippedEvery uint64
	// Completed events are logged at debug level only when set.
	LogCompleted bool
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	missCtr    atomic.Uint64
	skippedCtr atomic.Uint64
}

var _ cachebridge.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) CacheMiss(key string) {
	if h.l == nil || !sample(h.opts.MissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("cachebridge.cache_miss", "key", h.redact(key))
}

func (h *Hooks) FieldSkipped(key, source string) {
	if h.l == nil || !sample(h.opts.SkippedEvery, &h.skippedCtr) {
		return
	}
	h.l.Debug("cachebridge.field_skipped",
		"key", h.redact(key),
		"source", source)
}

func (h *Hooks) DecodeFailed(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("cachebridge.decode_failed",
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) MissingField(key, field string) {
	if h.l == nil {
		return
	}
	h.l.Info("cachebridge.missing_field",
		"key", h.redact(key),
		"field", field)
}

func (h *Hooks) TransportError(key string, mode cachebridge.Mode, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("cachebridge.transport_error",
		"key", h.redact(key),
		"mode", mode.String(),
		"err", err)
}

func (h *Hooks) Completed(key string, mode cachebridge.Mode, state cachebridge.State, elapsed time.Duration) {
	if h.l == nil || !h.opts.LogCompleted {
		return
	}
	h.l.Debug("cachebridge.completed",
		"key", h.redact(key),
		"mode", mode.String(),
		"state", state.String(),
		"elapsed", elapsed)
}
