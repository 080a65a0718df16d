package bigcache

import (
	"context"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"

	pr "github.com/unkn0wn-root/cachebridge/provider"
)

// Provider keeps entries in process memory. It suits single-process
// pipelines where one stage writes what a later stage reads.
type Provider struct {
	c *bc.BigCache
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	LifeWindow         time.Duration // 0 => NoExpiry
	CleanWindow        time.Duration // 0 => bigcache default
	MaxEntriesInWindow int           // initial sizing hint; 0 => 10000
	MaxEntrySize       int           // initial sizing hint; 0 => bigcache default
	HardMaxCacheSizeMB int           // ~ memory limit; 0 = unlimited
}

// NoExpiry is the LifeWindow used when none is configured. BigCache has no
// per-entry TTL and always evicts by age, so "never" is a century.
const NoExpiry = 100 * 365 * 24 * time.Hour

func lifeWindow(d time.Duration) time.Duration {
	if d <= 0 {
		return NoExpiry
	}
	return d
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	conf := bc.DefaultConfig(lifeWindow(cfg.LifeWindow))
	conf.Verbose = false
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow <= 0 {
		cfg.MaxEntriesInWindow = 10000
	}
	conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set ignores ttl: BigCache only supports the global LifeWindow.
func (p *Provider) Set(_ context.Context, key string, value []byte, _ time.Duration) (bool, error) {
	if err := p.c.Set(key, value); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Close(_ context.Context) error {
	return p.c.Close()
}
