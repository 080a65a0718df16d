// Package keys builds and checks the storage keys the bridge operates on.
package keys

import (
	"errors"
	"fmt"
)

// MaxMemcachedLen is the memcached text-protocol key limit.
const MaxMemcachedLen = 250

var (
	ErrEmpty   = errors.New("key is empty")
	ErrTooLong = fmt.Errorf("key exceeds %d bytes", MaxMemcachedLen)
)

// Join prefixes key with namespace ("<namespace>:<key>"); an empty namespace
// leaves key unchanged.
func Join(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + ":" + key
}

// CheckMemcached reports whether key can be sent over the memcached text
// protocol: non-empty, at most 250 bytes, no whitespace or control bytes.
func CheckMemcached(key string) error {
	if key == "" {
		return ErrEmpty
	}
	if len(key) > MaxMemcachedLen {
		return ErrTooLong
	}
	for i := 0; i < len(key); i++ {
		if c := key[i]; c <= ' ' || c == 0x7f {
			return fmt.Errorf("key has illegal byte 0x%02x at offset %d", c, i)
		}
	}
	return nil
}
