// Package event defines the attribute view the bridge reads from and writes to.
// The pipeline owns its records; it only has to expose them through Event.
package event

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/unkn0wn-root/cachebridge/value"
)

// Event is one pipeline record addressed by attribute name.
// Implementations need not be safe for concurrent use; the bridge touches
// one event from one goroutine.
type Event interface {
	Get(name string) (value.Value, bool)
	Set(name string, v value.Value)
}

// Map is a plain map-backed Event.
type Map map[string]value.Value

var _ Event = Map(nil)

func (m Map) Get(name string) (value.Value, bool) {
	v, ok := m[name]
	return v, ok
}

func (m Map) Set(name string, v value.Value) { m[name] = v }

func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Record is an Event that remembers attribute insertion order, so a record
// decoded from JSON is written back with its original layout.
type Record struct {
	order []string
	attrs map[string]value.Value
}

var _ Event = (*Record)(nil)

func NewRecord() *Record {
	return &Record{attrs: make(map[string]value.Value)}
}

// RecordFromValue builds a Record from a map value.
func RecordFromValue(v value.Value) (*Record, error) {
	if v.Kind() != value.KindMap {
		return nil, fmt.Errorf("event: record must be a map, got %s", v.Kind())
	}
	r := NewRecord()
	for _, m := range v.Members() {
		r.Set(m.Key, m.Value)
	}
	return r, nil
}

func (r *Record) Get(name string) (value.Value, bool) {
	v, ok := r.attrs[name]
	return v, ok
}

func (r *Record) Set(name string, v value.Value) {
	if r.attrs == nil {
		r.attrs = make(map[string]value.Value)
	}
	if _, ok := r.attrs[name]; !ok {
		r.order = append(r.order, name)
	}
	r.attrs[name] = v
}

func (r *Record) Len() int { return len(r.order) }

// Names returns attribute names in insertion order.
func (r *Record) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Value returns the record as an ordered map value.
func (r *Record) Value() value.Value {
	ms := make([]value.Member, 0, len(r.order))
	for _, k := range r.order {
		ms = append(ms, value.Member{Key: k, Value: r.attrs[k]})
	}
	return value.Map(ms...)
}

func (r *Record) MarshalJSON() ([]byte, error) { return r.Value().MarshalJSON() }

func (r *Record) UnmarshalJSON(b []byte) error {
	v, err := value.ParseJSON(b)
	if err != nil {
		return err
	}
	rec, err := RecordFromValue(v)
	if err != nil {
		return err
	}
	*r = *rec
	return nil
}

// Value returns the map as a map value with sorted keys.
func (m Map) Value() value.Value {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ms := make([]value.Member, 0, len(m))
	for _, k := range keys {
		ms = append(ms, value.Member{Key: k, Value: m[k]})
	}
	return value.Map(ms...)
}

func (m Map) MarshalJSON() ([]byte, error) { return json.Marshal(m.Value()) }
