package codec

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/unkn0wn-root/cachebridge/value"
)

// Protobuf stores values as a google.protobuf.Value message, which readers in
// other languages can decode with the well-known types. Numbers travel as
// doubles, so integers beyond 2^53 lose precision.
type Protobuf struct{}

var _ Codec = Protobuf{}

func (Protobuf) Encode(v value.Value) ([]byte, error) {
	if err := checkFinite(v); err != nil {
		return nil, err
	}
	pv, err := structpb.NewValue(v.ToAny())
	if err != nil {
		return nil, err
	}
	return proto.Marshal(pv)
}

func (Protobuf) Decode(b []byte) (value.Value, error) {
	var pv structpb.Value
	if err := proto.Unmarshal(b, &pv); err != nil {
		return value.Value{}, err
	}
	return value.FromAny(pv.AsInterface())
}
