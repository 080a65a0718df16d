package cachebridge

import (
	"context"
	"fmt"
	"net"
	"strconv"

	pr "github.com/unkn0wn-root/cachebridge/provider"
	bcprov "github.com/unkn0wn-root/cachebridge/provider/bigcache"
	"github.com/unkn0wn-root/cachebridge/provider/memcached"
	redisprov "github.com/unkn0wn-root/cachebridge/provider/redis"
	rsprov "github.com/unkn0wn-root/cachebridge/provider/ristretto"
)

// Open validates cfg, connects to the configured backend and returns a bridge
// that owns the connection until Close. Network backends are pinged first, so
// an unreachable server fails here rather than on the first event.
func Open(ctx context.Context, cfg Config, opts Options) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := dial(cfg)
	if err != nil {
		return nil, err
	}

	opts.Config = cfg
	opts.Provider = p
	opts.OwnProvider = true
	b, err := New(opts)
	if err != nil {
		_ = p.Close(ctx)
		return nil, err
	}
	if pg, ok := p.(pr.Pinger); ok {
		if err := pg.Ping(ctx); err != nil {
			_ = b.Close(ctx)
			return nil, &CacheTransportError{Key: b.Key(), Err: err}
		}
	}
	return b, nil
}

func dial(cfg Config) (pr.Provider, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	switch cfg.backend() {
	case BackendMemcached:
		return memcached.New(memcached.Config{Addrs: []string{addr}, Timeout: cfg.Timeout})
	case BackendRedis:
		return redisprov.Dial(addr, cfg.Timeout), nil
	case BackendBigcache:
		// the cleanup goroutine lives until Close, not until Open returns
		return bcprov.New(context.Background(), bcprov.Config{LifeWindow: cfg.TTL})
	case BackendRistretto:
		return rsprov.New(rsprov.DefaultConfig())
	}
	return nil, &ConfigurationError{Field: "backend", Err: fmt.Errorf("unknown backend %q", cfg.Backend)}
}
