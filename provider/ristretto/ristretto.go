package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/cachebridge/provider"
)

// Provider is an admission-controlled in-process store. Writes may be
// refused under pressure, which surfaces as ok=false from Set.
type Provider struct {
	c *rc.Cache
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64 // cost is the payload length in bytes
	BufferItems int64
	Metrics     bool
}

// DefaultConfig sizes the cache for roughly 64MiB of payloads.
func DefaultConfig() Config {
	return Config{NumCounters: 1e6, MaxCost: 64 << 20, BufferItems: 64}
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

// Set waits for the write buffer to drain so the next event observes the
// entry.
func (p *Provider) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	ok := p.c.SetWithTTL(key, cp, int64(len(cp))+1, ttl)
	p.c.Wait()
	return ok, nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Metrics exposes ristretto counters to the application (not part of the provider contract).
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
