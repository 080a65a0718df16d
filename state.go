package cachebridge

import "fmt"

// Mode is the direction of the cache operation.
type Mode uint8

const (
	ModeGet Mode = iota + 1
	ModeSet
)

func (m Mode) String() string {
	switch m {
	case ModeGet:
		return "get"
	case ModeSet:
		return "set"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// State is a step of one event's pass through the bridge:
//
//	Start -> KeyResolved -> GetPending|SetPending -> Applied|Failed
//
// Nothing is persisted between events.
type State uint8

const (
	StateStart State = iota
	StateKeyResolved
	StateGetPending
	StateSetPending
	StateApplied
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateKeyResolved:
		return "key_resolved"
	case StateGetPending:
		return "get_pending"
	case StateSetPending:
		return "set_pending"
	case StateApplied:
		return "applied"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Terminal reports whether s ends an event's pass.
func (s State) Terminal() bool { return s == StateApplied || s == StateFailed }

// next returns the state that follows s; err selects Failed over Applied
// once the cache call has been issued.
func (s State) next(mode Mode, err error) State {
	switch s {
	case StateStart:
		return StateKeyResolved
	case StateKeyResolved:
		if mode == ModeSet {
			return StateSetPending
		}
		return StateGetPending
	case StateGetPending, StateSetPending:
		if err != nil {
			return StateFailed
		}
		return StateApplied
	}
	return s
}
