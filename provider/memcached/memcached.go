// Package memcached adapts bradfitz/gomemcache to the provider contract.
package memcached

import (
	"context"
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	pr "github.com/unkn0wn-root/cachebridge/provider"
)

var ErrNoServers = errors.New("memcached provider: no server addresses")

// relativeExpiryLimit is the largest expiration memcached reads as a relative
// number of seconds; larger values are taken as a unix timestamp.
const relativeExpiryLimit = 30 * 24 * time.Hour

// Client is the subset of *memcache.Client the provider needs.
type Client interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Ping() error
	Close() error
}

var _ Client = (*memcache.Client)(nil)

type Memcached struct {
	mc          Client
	closeClient bool
	now         func() time.Time
}

var (
	_ pr.Provider = (*Memcached)(nil)
	_ pr.Pinger   = (*Memcached)(nil)
)

type Config struct {
	Addrs        []string      // host:port pairs; keys are spread across them
	Timeout      time.Duration // per round trip; 0 => client default
	MaxIdleConns int           // 0 => client default

	// Client, when set, is used instead of dialing Addrs.
	Client      Client
	CloseClient bool // set true only if this provider exclusively owns Client
}

func New(cfg Config) (*Memcached, error) {
	if cfg.Client != nil {
		return &Memcached{mc: cfg.Client, closeClient: cfg.CloseClient, now: time.Now}, nil
	}
	if len(cfg.Addrs) == 0 {
		return nil, ErrNoServers
	}
	mc := memcache.New(cfg.Addrs...)
	if cfg.Timeout > 0 {
		mc.Timeout = cfg.Timeout
	}
	if cfg.MaxIdleConns > 0 {
		mc.MaxIdleConns = cfg.MaxIdleConns
	}
	return &Memcached{mc: mc, closeClient: true, now: time.Now}, nil
}

// Get honours ctx only before the round trip; gomemcache bounds the call
// itself with its Timeout.
func (p *Memcached) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	it, err := p.mc.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return it.Value, true, nil
}

func (p *Memcached) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := p.mc.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: p.expiration(ttl),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Memcached) expiration(ttl time.Duration) int32 {
	switch {
	case ttl <= 0:
		return 0
	case ttl > relativeExpiryLimit:
		return int32(p.now().Add(ttl).Unix())
	case ttl < time.Second:
		return 1
	}
	return int32(ttl / time.Second)
}

func (p *Memcached) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.mc.Ping()
}

func (p *Memcached) Close(context.Context) error {
	if p.closeClient {
		return p.mc.Close()
	}
	return nil
}
