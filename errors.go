package cachebridge

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is; every concrete error below matches one of them.
var (
	ErrConfiguration  = errors.New("cachebridge: invalid configuration")
	ErrCacheMiss      = errors.New("cachebridge: cache miss")
	ErrCacheWrite     = errors.New("cachebridge: cache write failed")
	ErrCacheTransport = errors.New("cachebridge: cache transport failed")
	ErrDecode         = errors.New("cachebridge: payload decode failed")
	ErrEncode         = errors.New("cachebridge: payload encode failed")
	ErrMissingField   = errors.New("cachebridge: event field missing")
	ErrClosed         = errors.New("cachebridge: bridge closed")
)

var errWriteRejected = errors.New("write rejected by provider")

// ConfigurationError is returned at construction; no cache call is made.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("cachebridge: invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("cachebridge: invalid configuration: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() []error { return []error{ErrConfiguration, e.Err} }

// CacheMissError is a GET that found no record. The event is unchanged.
type CacheMissError struct {
	Key string
}

func (e *CacheMissError) Error() string {
	return fmt.Sprintf("cachebridge: no record for key %q", e.Key)
}

func (e *CacheMissError) Unwrap() error { return ErrCacheMiss }

// CacheWriteError is a SET the provider failed or refused.
type CacheWriteError struct {
	Key string
	Err error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("cachebridge: set %q: %v", e.Key, e.Err)
}

func (e *CacheWriteError) Unwrap() []error { return []error{ErrCacheWrite, e.Err} }

// CacheTransportError is a GET the provider could not complete.
type CacheTransportError struct {
	Key string
	Err error
}

func (e *CacheTransportError) Error() string {
	return fmt.Sprintf("cachebridge: get %q: %v", e.Key, e.Err)
}

func (e *CacheTransportError) Unwrap() []error { return []error{ErrCacheTransport, e.Err} }

// DecodeError means the stored record could not be parsed. The event is
// unchanged.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cachebridge: decode %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// EncodeError means the selected fields could not be serialized. Nothing was
// written.
type EncodeError struct {
	Key string
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("cachebridge: encode %q: %v", e.Key, e.Err)
}

func (e *EncodeError) Unwrap() []error { return []error{ErrEncode, e.Err} }

// MissingFieldError is a SET whose configured event field is unset.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("cachebridge: event has no field %q", e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }
