package value

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestParseJSONKeepsOrderAndLiterals(t *testing.T) {
	v, err := ParseJSON([]byte(`{"b":1,"a":[true,null,"x"],"c":1.50}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	ms := v.Members()
	if len(ms) != 3 || ms[0].Key != "b" || ms[1].Key != "a" || ms[2].Key != "c" {
		t.Fatalf("member order lost: %v", ms)
	}
	out, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(out) != `{"b":1,"a":[true,null,"x"],"c":1.50}` {
		t.Fatalf("got %s", out)
	}
}

func TestParseJSONRejectsTrailingAndGarbage(t *testing.T) {
	for _, in := range []string{`{"a":1} x`, `{"a":`, ``, `{1:2}`, `nope`} {
		if _, err := ParseJSON([]byte(in)); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestDuplicateKeyLastWins(t *testing.T) {
	v, err := ParseJSON([]byte(`{"a":1,"b":2,"a":3}`))
	if err != nil {
		t.Fatal(err)
	}
	got, _ := v.Lookup("a")
	if n, _ := got.AsInt(); n != 3 {
		t.Fatalf("a=%v want 3", got)
	}
	if v.Members()[0].Key != "a" {
		t.Fatalf("first position not kept: %v", v.Members())
	}
}

func TestParseJSONWideObjectIsLinear(t *testing.T) {
	const n = 100_000
	var sb strings.Builder
	sb.WriteByte('{')
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(`"k`)
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(`":`)
		sb.WriteString(strconv.Itoa(i))
	}
	sb.WriteString(`,"k0":"last"}`)

	start := time.Now()
	v, err := ParseJSON([]byte(sb.String()))
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if v.Len() != n {
		t.Fatalf("Len=%d want %d", v.Len(), n)
	}
	if first := v.Members()[0]; first.Key != "k0" {
		t.Fatalf("first member %q", first.Key)
	} else if s, _ := first.Value.AsString(); s != "last" {
		t.Fatalf("duplicate did not overwrite: %v", first.Value)
	}
	// a per-member scan over 100k keys takes tens of seconds
	if elapsed > 5*time.Second {
		t.Fatalf("decoding %d keys took %v", n, elapsed)
	}
	if !Equal(v, v.With("k1", Int(1))) {
		t.Fatalf("With on an existing key with the same value must stay equal")
	}
}

func TestEqualNumbersAndMaps(t *testing.T) {
	one, _ := Number("1.0")
	if !Equal(Int(1), one) {
		t.Fatalf("1 and 1.0 should be equal")
	}
	a := Map(Member{"x", Int(1)}, Member{"y", String("s")})
	b := Map(Member{"y", String("s")}, Member{"x", Int(1)})
	if !Equal(a, b) {
		t.Fatalf("map equality must ignore order")
	}
	if Equal(a, a.With("z", Null())) {
		t.Fatalf("extra member must not compare equal")
	}
	if Equal(String("1"), Int(1)) {
		t.Fatalf("kinds differ")
	}
}

func TestTextForms(t *testing.T) {
	cases := []struct {
		in   Value
		want string
	}{
		{String("hello world"), "hello world"},
		{Int(-7), "-7"},
		{Bool(true), "true"},
		{Null(), ""},
		{List(Int(1), String("a")), `[1,"a"]`},
		{Map(Member{"k", Bool(false)}), `{"k":false}`},
	}
	for _, tc := range cases {
		got, err := tc.in.Text()
		if err != nil {
			t.Fatalf("Text(%v): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Text(%v)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestNonFiniteNumberHasNoJSON(t *testing.T) {
	if _, err := Float(math.Inf(1)).MarshalJSON(); err == nil {
		t.Fatalf("expected error for +Inf")
	}
}

func TestFromAnyToAny(t *testing.T) {
	in := map[string]any{
		"n":    json.Number("12"),
		"f":    1.5,
		"s":    "x",
		"list": []any{int8(1), uint32(2), nil},
		"m":    map[any]any{"k": true},
	}
	v, err := FromAny(in)
	if err != nil {
		t.Fatalf("FromAny: %v", err)
	}
	if v.Members()[0].Key != "f" {
		t.Fatalf("expected sorted keys, got %v", v.Members())
	}
	back := v.ToAny().(map[string]any)
	if back["n"] != int64(12) || back["f"] != 1.5 || back["s"] != "x" {
		t.Fatalf("unexpected ToAny: %#v", back)
	}
	if _, err := FromAny(map[any]any{1: "x"}); err == nil {
		t.Fatalf("non-string key must fail")
	}
	if _, err := FromAny(struct{}{}); err == nil {
		t.Fatalf("unsupported type must fail")
	}
}

// genValue draws arbitrary JSON-representable values.
func genValue(depth int) *rapid.Generator[Value] {
	scalars := rapid.OneOf(
		rapid.Just(Null()),
		rapid.Map(rapid.Bool(), Bool),
		rapid.Map(rapid.Int64(), Int),
		rapid.Map(rapid.Float64Range(-1e9, 1e9), Float),
		rapid.Map(rapid.String(), String),
	)
	if depth <= 0 {
		return scalars
	}
	inner := genValue(depth - 1)
	return rapid.OneOf(
		scalars,
		rapid.Map(rapid.SliceOfN(inner, 0, 4), func(items []Value) Value { return List(items...) }),
		rapid.Map(rapid.MapOfN(rapid.String(), inner, 0, 4), func(m map[string]Value) Value {
			v, _ := FromAny(m)
			return v
		}),
	)
}

func TestJSONRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := genValue(3).Draw(rt, "v")
		b, err := v.MarshalJSON()
		if err != nil {
			rt.Fatalf("MarshalJSON: %v", err)
		}
		back, err := ParseJSON(b)
		if err != nil {
			rt.Fatalf("ParseJSON(%s): %v", b, err)
		}
		if !Equal(v, back) {
			rt.Fatalf("round trip mismatch: %s vs %s", v, back)
		}
	})
}
