package codec

import (
	"fmt"

	"github.com/unkn0wn-root/cachebridge/value"
)

// Limit wraps another codec to enforce a maximum payload size at Decode time.
// Encode is forwarded to Inner unchanged. If MaxDecode <= 0, size limiting is
// disabled.
//
// Typical use: protect pipeline workers from oversized entries written into a
// shared cache by another producer.
type Limit struct {
	Inner     Codec
	MaxDecode int
}

var _ Codec = Limit{}

func (c Limit) Encode(v value.Value) ([]byte, error) { return c.Inner.Encode(v) }
func (c Limit) Decode(b []byte) (value.Value, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		return value.Value{}, fmt.Errorf("payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
