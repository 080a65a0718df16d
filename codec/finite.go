package codec

import (
	"fmt"
	"math"

	"github.com/unkn0wn-root/cachebridge/value"
)

// checkFinite keeps binary codecs aligned with JSON: NaN and infinities are
// not storable.
func checkFinite(v value.Value) error {
	switch v.Kind() {
	case value.KindNumber:
		f, ok := v.AsFloat()
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			n, _ := v.AsNumber()
			return fmt.Errorf("codec: number %q is not finite", n)
		}
	case value.KindList:
		for _, it := range v.Items() {
			if err := checkFinite(it); err != nil {
				return err
			}
		}
	case value.KindMap:
		for _, m := range v.Members() {
			if err := checkFinite(m.Value); err != nil {
				return err
			}
		}
	}
	return nil
}
