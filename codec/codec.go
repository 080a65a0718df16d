// Package codec holds the structured codecs used to pack event fields into a
// single cache payload and to unpack them again.
package codec

import (
	"fmt"

	"github.com/unkn0wn-root/cachebridge/value"
)

// Codec encodes/decodes structured values to []byte for storage.
type Codec interface {
	Encode(value.Value) ([]byte, error)
	Decode([]byte) (value.Value, error)
}

// ByName returns the codec registered under name; "" selects JSON.
func ByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON{}, nil
	case "cbor":
		return NewCBOR(false)
	case "msgpack":
		return Msgpack{}, nil
	case "protobuf":
		return Protobuf{}, nil
	}
	return nil, fmt.Errorf("codec: unknown codec %q", name)
}

// Names lists the names accepted by ByName.
func Names() []string { return []string{"json", "cbor", "msgpack", "protobuf"} }
