// Package asynchook moves hook delivery off the event path.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    MissEvery:    100, // sample ~every 100th miss
//	    SkippedEvery: 10,
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	bridge, _ := cachebridge.Open(ctx, cfg, cachebridge.Options{
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/cachebridge"
)

type Hooks struct {
	inner   cachebridge.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Uint64
}

var _ cachebridge.Hooks = (*Hooks)(nil)

func New(inner cachebridge.Hooks, workers, qlen int) *Hooks {
	if inner == nil {
		inner = cachebridge.NopHooks{}
	}
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued callbacks and stops the workers. Calls after Close
// are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.closed.Store(true)
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped counts callbacks discarded because the queue was full or closed.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	if h.closed.Load() {
		h.dropped.Add(1)
		return
	}
	defer func() {
		// lost the race with Close
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) CacheMiss(k string)               { h.try(func() { h.inner.CacheMiss(k) }) }
func (h *Hooks) FieldSkipped(k, src string)       { h.try(func() { h.inner.FieldSkipped(k, src) }) }
func (h *Hooks) DecodeFailed(k string, err error) { h.try(func() { h.inner.DecodeFailed(k, err) }) }
func (h *Hooks) MissingField(k, f string)         { h.try(func() { h.inner.MissingField(k, f) }) }
func (h *Hooks) TransportError(k string, m cachebridge.Mode, err error) {
	h.try(func() { h.inner.TransportError(k, m, err) })
}
func (h *Hooks) Completed(k string, m cachebridge.Mode, s cachebridge.State, d time.Duration) {
	h.try(func() { h.inner.Completed(k, m, s, d) })
}
