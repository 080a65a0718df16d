package value

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// FromAny converts the dynamic shapes produced by Go decoders (encoding/json,
// cbor, msgpack, structpb) into a Value. Maps with unordered keys are
// converted in sorted key order.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case []byte:
		return String(string(t)), nil
	case json.Number:
		return Number(t)
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Uint(uint64(t)), nil
	case uint8:
		return Uint(uint64(t)), nil
	case uint16:
		return Uint(uint64(t)), nil
	case uint32:
		return Uint(uint64(t)), nil
	case uint64:
		return Uint(t), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case time.Time:
		return String(t.Format(time.RFC3339Nano)), nil
	case []any:
		items := make([]Value, 0, len(t))
		for i, it := range t {
			v, err := FromAny(it)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, v)
		}
		return Value{kind: KindList, list: items}, nil
	case []Value:
		return List(t...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := make([]Member, 0, len(t))
		for _, k := range keys {
			v, err := FromAny(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			obj = append(obj, Member{Key: k, Value: v})
		}
		return Value{kind: KindMap, obj: obj}, nil
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, it := range t {
			ks, ok := k.(string)
			if !ok {
				return Value{}, fmt.Errorf("value: map key %v (%T) is not a string", k, k)
			}
			m[ks] = it
		}
		return FromAny(m)
	case map[string]Value:
		m := make(map[string]any, len(t))
		for k, it := range t {
			m[k] = it
		}
		return FromAny(m)
	}
	return Value{}, fmt.Errorf("value: unsupported type %T", x)
}

// ToAny converts to plain Go shapes: nil, bool, string, int64, uint64 or
// float64, []any and map[string]any. Map order is lost.
func (v Value) ToAny() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindString:
		return v.s
	case KindNumber:
		if i, ok := v.AsInt(); ok {
			return i
		}
		if u, ok := v.AsUint(); ok {
			return u
		}
		f, _ := v.AsFloat()
		return f
	case KindList:
		out := make([]any, len(v.list))
		for i, it := range v.list {
			out[i] = it.ToAny()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.obj))
		for _, m := range v.obj {
			out[m.Key] = m.Value.ToAny()
		}
		return out
	}
	return nil
}
