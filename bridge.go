package cachebridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/unkn0wn-root/cachebridge/codec"
	"github.com/unkn0wn-root/cachebridge/event"
	pr "github.com/unkn0wn-root/cachebridge/provider"
)

// Bridge runs one cache operation per event. Build it with New or Open.
type Bridge struct {
	key      string
	mode     Mode
	ttl      time.Duration
	tc       transcoder
	provider pr.Provider
	log      Logger
	hooks    Hooks

	// mu is held shared for each round trip and exclusively by Close, so an
	// owned provider is never closed under an in-flight event.
	mu          sync.RWMutex
	closed      bool
	ownProvider bool
	closeOnce   sync.Once
	closeErr    error
}

// New validates opts.Config and wraps opts.Provider. No cache call is made.
func New(opts Options) (*Bridge, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Provider == nil {
		return nil, &ConfigurationError{Field: "provider", Err: errors.New("provider is required")}
	}

	cd := opts.Codec
	if cd == nil {
		var err error
		if cd, err = codec.ByName(cfg.Codec); err != nil {
			return nil, &ConfigurationError{Field: "codec", Err: err}
		}
	}
	if cfg.MaxPayload > 0 {
		cd = codec.Limit{Inner: cd, MaxDecode: cfg.MaxPayload}
	}
	onMissing, err := ParseMissingFieldPolicy(cfg.OnMissing)
	if err != nil {
		return nil, &ConfigurationError{Field: "on_missing", Err: err}
	}

	b := &Bridge{
		key:         cfg.StorageKey(),
		mode:        cfg.Mode(),
		ttl:         cfg.TTL,
		tc:          newTranscoder(cfg, cd, onMissing),
		provider:    opts.Provider,
		ownProvider: opts.OwnProvider,
	}
	b.log = coalesce[Logger](opts.Logger, NopLogger{})
	b.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})

	if cfg.Structured() && cfg.Field != "" {
		b.log.Warn("field ignored: fields takes precedence", Fields{"key": b.key, "field": cfg.Field})
	}
	strategy := "scalar"
	if cfg.Structured() {
		strategy = "structured"
	}
	b.log.Debug("cache bridge ready", Fields{"key": b.key, "mode": b.mode.String(), "strategy": strategy})
	return b, nil
}

// Key is the resolved storage key; the same for every event.
func (b *Bridge) Key() string { return b.key }

func (b *Bridge) Mode() Mode { return b.mode }

// Process performs exactly one cache round trip for ev.
//
// GET: on success ev carries the decoded field(s). On *CacheMissError,
// *CacheTransportError or *DecodeError ev is unchanged.
// SET: ev is only read. Failures are *MissingFieldError, *EncodeError or
// *CacheWriteError.
func (b *Bridge) Process(ctx context.Context, ev event.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	start := time.Now()
	key := b.Key()
	pending := StateStart.next(b.mode, nil).next(b.mode, nil)

	var err error
	if pending == StateGetPending {
		err = b.get(ctx, key, ev)
	} else {
		err = b.set(ctx, key, ev)
	}

	final := pending.next(b.mode, err)
	b.hooks.Completed(key, b.mode, final, time.Since(start))
	b.logOutcome(key, pending, err)
	return err
}

func (b *Bridge) get(ctx context.Context, key string, ev event.Event) error {
	raw, ok, err := b.provider.Get(ctx, key)
	if err != nil {
		b.hooks.TransportError(key, ModeGet, err)
		return &CacheTransportError{Key: key, Err: err}
	}
	if !ok {
		b.hooks.CacheMiss(key)
		return &CacheMissError{Key: key}
	}
	set, skipped, err := b.tc.decode(raw)
	if err != nil {
		b.hooks.DecodeFailed(key, err)
		return &DecodeError{Key: key, Err: err}
	}
	for _, src := range skipped {
		b.hooks.FieldSkipped(key, src)
	}
	for _, a := range set {
		ev.Set(a.name, a.val)
	}
	return nil
}

func (b *Bridge) set(ctx context.Context, key string, ev event.Event) error {
	payload, missing, err := b.tc.encode(ev)
	for _, f := range missing {
		b.hooks.MissingField(key, f)
	}
	if err != nil {
		var mf *MissingFieldError
		if errors.As(err, &mf) {
			return err
		}
		return &EncodeError{Key: key, Err: err}
	}
	ok, err := b.provider.Set(ctx, key, payload, b.ttl)
	if err != nil {
		b.hooks.TransportError(key, ModeSet, err)
		return &CacheWriteError{Key: key, Err: err}
	}
	if !ok {
		return &CacheWriteError{Key: key, Err: errWriteRejected}
	}
	return nil
}

func (b *Bridge) logOutcome(key string, from State, err error) {
	f := Fields{"key": key, "mode": b.mode.String()}
	switch {
	case err == nil:
		b.log.Debug("event processed", f)
	case errors.Is(err, ErrCacheMiss), errors.Is(err, ErrMissingField):
		f["err"] = err
		b.log.Debug("event not processed", f)
	case errors.Is(err, ErrDecode), errors.Is(err, ErrEncode):
		f["err"] = err
		b.log.Warn("cache record transcoding failed", f)
	default:
		f["err"] = err
		f["state"] = from.String()
		b.log.Error("cache round trip failed", f)
	}
}

// Close waits for in-flight Process calls, then releases the provider when
// the bridge owns it. Safe to call multiple times; later Process calls return
// ErrClosed.
func (b *Bridge) Close(ctx context.Context) error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
		if b.ownProvider && b.provider != nil {
			b.closeErr = b.provider.Close(ctx)
		}
	})
	return b.closeErr
}
