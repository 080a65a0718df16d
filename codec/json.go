package codec

import "github.com/unkn0wn-root/cachebridge/value"

// JSON is the default codec. Object member order survives both directions.
type JSON struct{}

func (JSON) Encode(v value.Value) ([]byte, error) { return v.MarshalJSON() }
func (JSON) Decode(b []byte) (value.Value, error) { return value.ParseJSON(b) }
