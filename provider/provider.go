// Package provider defines the cache capability used by cachebridge.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation). Entries written by other producers
// (another pipeline, an application sharing the cache) are returned as stored.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs.
// Must be safe for concurrent use by many in-flight events.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL; ttl <= 0 means no expiry.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) (ok bool, err error)

	// Close releases resources.
	Close(ctx context.Context) error
}

// Pinger is implemented by network-backed providers that can verify
// connectivity before the first event is processed.
type Pinger interface {
	Ping(ctx context.Context) error
}
