// Package value implements the tagged variant carried by event attributes and
// structured cache payloads: null, bool, number, string, list and an
// insertion-ordered string-keyed map.
//
// The zero Value is null. Values are treated as immutable; constructors copy
// their inputs and accessors return copies of composite contents.
package value

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Member is one entry of a map value.
type Member struct {
	Key   string
	Value Value
}

type Value struct {
	kind Kind
	b    bool
	s    string // string payload; number literal for KindNumber
	list []Value
	obj  []Member
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func String(s string) Value { return Value{kind: KindString, s: s} }

func Int(i int64) Value { return Value{kind: KindNumber, s: strconv.FormatInt(i, 10)} }

func Uint(u uint64) Value { return Value{kind: KindNumber, s: strconv.FormatUint(u, 10)} }

// Float returns a number value. NaN and infinities have no structured
// representation and are rejected by every codec at encode time.
func Float(f float64) Value {
	return Value{kind: KindNumber, s: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Number returns a number value from its decimal literal.
func Number(lit json.Number) (Value, error) {
	if _, err := strconv.ParseFloat(string(lit), 64); err != nil {
		return Value{}, fmt.Errorf("value: invalid number literal %q", string(lit))
	}
	return Value{kind: KindNumber, s: string(lit)}, nil
}

func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// Map returns a map value keeping the members' order. A repeated key keeps
// the position of its first occurrence and the value of its last.
func Map(members ...Member) Value {
	ob := newObjectBuilder(len(members))
	for _, m := range members {
		ob.set(m.Key, m.Value)
	}
	return ob.value()
}

// objectBuilder assembles map members in order. index maps each key to its
// position in obj.
type objectBuilder struct {
	obj   []Member
	index map[string]int
}

func newObjectBuilder(n int) *objectBuilder {
	return &objectBuilder{
		obj:   make([]Member, 0, n),
		index: make(map[string]int, n),
	}
}

func (ob *objectBuilder) set(key string, v Value) {
	if i, ok := ob.index[key]; ok {
		ob.obj[i].Value = v
		return
	}
	ob.index[key] = len(ob.obj)
	ob.obj = append(ob.obj, Member{Key: key, Value: v})
}

func (ob *objectBuilder) value() Value { return Value{kind: KindMap, obj: ob.obj} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

func (v Value) AsNumber() (json.Number, bool) {
	if v.kind != KindNumber {
		return "", false
	}
	return json.Number(v.s), true
}

// AsInt reports the number as int64 when it is an integral literal in range.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	i, err := strconv.ParseInt(v.s, 10, 64)
	return i, err == nil
}

func (v Value) AsUint() (uint64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	u, err := strconv.ParseUint(v.s, 10, 64)
	return u, err == nil
}

func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.s, 64)
	return f, err == nil
}

// Items returns a copy of a list's elements; nil for other kinds.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	cp := make([]Value, len(v.list))
	copy(cp, v.list)
	return cp
}

// Members returns a copy of a map's entries in order; nil for other kinds.
func (v Value) Members() []Member {
	if v.kind != KindMap {
		return nil
	}
	cp := make([]Member, len(v.obj))
	copy(cp, v.obj)
	return cp
}

// Len is the number of list elements or map entries.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.obj)
	}
	return 0
}

// Lookup finds key in a map value.
func (v Value) Lookup(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	for _, m := range v.obj {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// With returns a copy of the map value with key set to x. On a non-map value
// it returns a single-entry map.
func (v Value) With(key string, x Value) Value {
	ms := v.Members()
	ob := newObjectBuilder(len(ms) + 1)
	for _, m := range ms {
		ob.set(m.Key, m.Value)
	}
	ob.set(key, x)
	return ob.value()
}

// Equal compares structurally. Numbers compare by numeric value, maps ignore
// member order.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	case KindNumber:
		return numberEqual(a, b)
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.obj) != len(b.obj) {
			return false
		}
		index := make(map[string]int, len(b.obj))
		for i, m := range b.obj {
			index[m.Key] = i
		}
		for _, m := range a.obj {
			i, ok := index[m.Key]
			if !ok || !Equal(m.Value, b.obj[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

func numberEqual(a, b Value) bool {
	if a.s == b.s {
		return true
	}
	if x, ok := a.AsInt(); ok {
		if y, ok := b.AsInt(); ok {
			return x == y
		}
	}
	if x, ok := a.AsUint(); ok {
		if y, ok := b.AsUint(); ok {
			return x == y
		}
	}
	x, _ := a.AsFloat()
	y, _ := b.AsFloat()
	return x == y
}

// Text renders the value the way it is stored as a raw scalar: strings
// verbatim, numbers as their literal, bools as true/false, null as empty and
// composites as compact JSON.
func (v Value) Text() (string, error) {
	switch v.kind {
	case KindNull:
		return "", nil
	case KindBool:
		return strconv.FormatBool(v.b), nil
	case KindNumber, KindString:
		return v.s, nil
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.kind, err)
	}
	return string(b)
}

func finite(lit string) bool {
	f, err := strconv.ParseFloat(lit, 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}
