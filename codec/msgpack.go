package codec

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/unkn0wn-root/cachebridge/value"
)

// Msgpack is a Codec that serializes values using vmihailenco/msgpack/v5.
// The zero value is ready to use. Maps are written and read member by member,
// so order survives a round trip.
type Msgpack struct{}

var _ Codec = Msgpack{}

func (Msgpack) Encode(v value.Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := encodeMsgpack(enc, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Msgpack) Decode(b []byte) (value.Value, error) {
	r := bytes.NewReader(b)
	dec := msgpack.NewDecoder(r)
	v, err := decodeMsgpack(dec)
	if err != nil {
		return value.Value{}, err
	}
	if r.Len() != 0 {
		return value.Value{}, fmt.Errorf("msgpack: %d trailing bytes", r.Len())
	}
	return v, nil
}

func encodeMsgpack(enc *msgpack.Encoder, v value.Value) error {
	switch v.Kind() {
	case value.KindNull:
		return enc.EncodeNil()
	case value.KindBool:
		b, _ := v.AsBool()
		return enc.EncodeBool(b)
	case value.KindString:
		s, _ := v.AsString()
		return enc.EncodeString(s)
	case value.KindNumber:
		if i, ok := v.AsInt(); ok {
			return enc.EncodeInt(i)
		}
		if u, ok := v.AsUint(); ok {
			return enc.EncodeUint(u)
		}
		if err := checkFinite(v); err != nil {
			return err
		}
		f, _ := v.AsFloat()
		return enc.EncodeFloat64(f)
	case value.KindList:
		items := v.Items()
		if err := enc.EncodeArrayLen(len(items)); err != nil {
			return err
		}
		for _, it := range items {
			if err := encodeMsgpack(enc, it); err != nil {
				return err
			}
		}
		return nil
	case value.KindMap:
		ms := v.Members()
		if err := enc.EncodeMapLen(len(ms)); err != nil {
			return err
		}
		for _, m := range ms {
			if err := enc.EncodeString(m.Key); err != nil {
				return err
			}
			if err := encodeMsgpack(enc, m.Value); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("msgpack: unknown kind %s", v.Kind())
}

func decodeMsgpack(dec *msgpack.Decoder) (value.Value, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return value.Value{}, err
	}
	switch {
	case msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return value.Value{}, err
		}
		ms := make([]value.Member, 0, min(n, 64))
		for i := 0; i < n; i++ {
			k, err := dec.DecodeString()
			if err != nil {
				return value.Value{}, err
			}
			it, err := decodeMsgpack(dec)
			if err != nil {
				return value.Value{}, err
			}
			ms = append(ms, value.Member{Key: k, Value: it})
		}
		return value.Map(ms...), nil
	case msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return value.Value{}, err
		}
		items := make([]value.Value, 0, min(n, 64))
		for i := 0; i < n; i++ {
			it, err := decodeMsgpack(dec)
			if err != nil {
				return value.Value{}, err
			}
			items = append(items, it)
		}
		return value.List(items...), nil
	}
	x, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return value.Value{}, err
	}
	return value.FromAny(x)
}
