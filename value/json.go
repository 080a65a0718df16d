package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var errTrailing = errors.New("value: trailing data after JSON value")

// MarshalJSON writes compact JSON keeping map member order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		if !finite(v.s) {
			return fmt.Errorf("value: number %q has no JSON form", v.s)
		}
		buf.WriteString(v.s)
	case KindString:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindList:
		buf.WriteByte('[')
		for i, it := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, it); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, m := range v.obj {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := writeJSON(buf, m.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("value: unknown kind %d", v.kind)
	}
	return nil
}

func (v *Value) UnmarshalJSON(b []byte) error {
	x, err := ParseJSON(b)
	if err != nil {
		return err
	}
	*v = x
	return nil
}

// ParseJSON decodes exactly one JSON value. Object member order is kept and
// numbers keep their literal text.
func ParseJSON(b []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	v, err := parseJSON(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, errTrailing
	}
	return v, nil
}

func parseJSON(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return Value{}, io.ErrUnexpectedEOF
		}
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return Number(t)
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				it, err := parseJSON(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, it)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: KindList, list: items}, nil
		case '{':
			ob := newObjectBuilder(0)
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, fmt.Errorf("value: unexpected object key %v", kt)
				}
				it, err := parseJSON(dec)
				if err != nil {
					return Value{}, err
				}
				ob.set(key, it)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return ob.value(), nil
		}
	}
	return Value{}, fmt.Errorf("value: unexpected JSON token %v", tok)
}
