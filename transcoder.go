package cachebridge

import (
	"fmt"

	"github.com/unkn0wn-root/cachebridge/codec"
	"github.com/unkn0wn-root/cachebridge/event"
	"github.com/unkn0wn-root/cachebridge/value"
)

type assignment struct {
	name string
	val  value.Value
}

// transcoder converts between a cache record and event attributes. decode
// must not touch the event: the bridge applies assignments only after the
// whole record decoded.
type transcoder interface {
	decode(raw []byte) (set []assignment, skipped []string, err error)
	encode(ev event.Event) (payload []byte, missing []string, err error)
}

func newTranscoder(cfg Config, cd codec.Codec, onMissing MissingFieldPolicy) transcoder {
	if !cfg.Structured() {
		return scalar{field: cfg.Field}
	}
	fields := make(FieldMap, len(cfg.Fields))
	copy(fields, cfg.Fields)
	return structured{fields: fields, codec: cd, onMissing: onMissing}
}

// scalar stores one attribute as the raw record.
type scalar struct {
	field string
}

func (s scalar) decode(raw []byte) ([]assignment, []string, error) {
	return []assignment{{name: s.field, val: value.String(string(raw))}}, nil, nil
}

// encode with no field configured produces an empty record.
func (s scalar) encode(ev event.Event) ([]byte, []string, error) {
	if s.field == "" {
		return []byte{}, nil, nil
	}
	v, ok := ev.Get(s.field)
	if !ok {
		return nil, []string{s.field}, &MissingFieldError{Field: s.field}
	}
	txt, err := v.Text()
	if err != nil {
		return nil, nil, err
	}
	return []byte(txt), nil, nil
}

// structured packs several attributes into one object. Renames apply on
// decode only; encode keys the object by source name.
type structured struct {
	fields    FieldMap
	codec     codec.Codec
	onMissing MissingFieldPolicy
}

func (s structured) decode(raw []byte) ([]assignment, []string, error) {
	obj, err := s.codec.Decode(raw)
	if err != nil {
		return nil, nil, err
	}
	if obj.Kind() != value.KindMap {
		return nil, nil, fmt.Errorf("record is a %s, not an object", obj.Kind())
	}
	set := make([]assignment, 0, len(s.fields))
	var skipped []string
	for _, r := range s.fields {
		v, ok := obj.Lookup(r.Source)
		if !ok {
			skipped = append(skipped, r.Source)
			continue
		}
		set = append(set, assignment{name: r.EventName(), val: v})
	}
	return set, skipped, nil
}

func (s structured) encode(ev event.Event) ([]byte, []string, error) {
	ms := make([]value.Member, 0, len(s.fields))
	var missing []string
	for _, r := range s.fields {
		v, ok := ev.Get(r.Source)
		if !ok {
			missing = append(missing, r.Source)
			switch s.onMissing {
			case OmitMissing:
				continue
			case FailMissing:
				return nil, missing, &MissingFieldError{Field: r.Source}
			}
			v = value.Null()
		}
		ms = append(ms, value.Member{Key: r.Source, Value: v})
	}
	b, err := s.codec.Encode(value.Map(ms...))
	if err != nil {
		return nil, missing, err
	}
	return b, missing, nil
}
