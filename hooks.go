package cachebridge

import "time"

// Hooks lightweight callbacks for per-event outcomes.
// Implementations MUST be cheap and non-blocking.
// The bridge calls them on the event hot path.
type Hooks interface {
	// GET found no record for key.
	CacheMiss(key string)

	// A configured source field was absent from a decoded record and skipped.
	FieldSkipped(key, source string)

	// A stored record could not be decoded.
	DecodeFailed(key string, err error)

	// SET found no value for a configured event field.
	MissingField(key, field string)

	// The provider reported a transport or server failure.
	TransportError(key string, mode Mode, err error)

	// One event finished in state (StateApplied or StateFailed).
	Completed(key string, mode Mode, state State, elapsed time.Duration)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) CacheMiss(string)                             {}
func (NopHooks) FieldSkipped(string, string)                  {}
func (NopHooks) DecodeFailed(string, error)                   {}
func (NopHooks) MissingField(string, string)                  {}
func (NopHooks) TransportError(string, Mode, error)           {}
func (NopHooks) Completed(string, Mode, State, time.Duration) {}

// MultiHooks fans every callback out to each member in order.
type MultiHooks []Hooks

var _ Hooks = MultiHooks(nil)

func (m MultiHooks) CacheMiss(key string) {
	for _, h := range m {
		h.CacheMiss(key)
	}
}

func (m MultiHooks) FieldSkipped(key, source string) {
	for _, h := range m {
		h.FieldSkipped(key, source)
	}
}

func (m MultiHooks) DecodeFailed(key string, err error) {
	for _, h := range m {
		h.DecodeFailed(key, err)
	}
}

func (m MultiHooks) MissingField(key, field string) {
	for _, h := range m {
		h.MissingField(key, field)
	}
}

func (m MultiHooks) TransportError(key string, mode Mode, err error) {
	for _, h := range m {
		h.TransportError(key, mode, err)
	}
}

func (m MultiHooks) Completed(key string, mode Mode, state State, elapsed time.Duration) {
	for _, h := range m {
		h.Completed(key, mode, state, elapsed)
	}
}
