package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/unkn0wn-root/cachebridge/value"
)

// CBOR is a Codec that serializes values using fxamacker/cbor.
// The zero value is NOT ready to use. Construct with NewCBOR or MustCBOR.
//
// Map member order is not kept: deterministic mode sorts keys canonically
// (RFC 8949 Core Deterministic), otherwise Go map order applies. Decoded maps
// come back with sorted keys.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec = CBOR{}

func NewCBOR(deterministic bool) (CBOR, error) {
	var eo cbor.EncOptions
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	} else {
		eo = cbor.PreferredUnsortedEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano

	em, err := eo.EncMode()
	if err != nil {
		return CBOR{}, err
	}
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		return CBOR{}, err
	}
	return CBOR{enc: em, dec: dm}, nil
}

// MustCBOR is like NewCBOR but panics on error.
func MustCBOR(deterministic bool) CBOR {
	c, err := NewCBOR(deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR) Encode(v value.Value) ([]byte, error) {
	if err := checkFinite(v); err != nil {
		return nil, err
	}
	return c.enc.Marshal(v.ToAny())
}

func (c CBOR) Decode(b []byte) (value.Value, error) {
	var x any
	if err := c.dec.Unmarshal(b, &x); err != nil {
		return value.Value{}, err
	}
	return value.FromAny(x)
}
