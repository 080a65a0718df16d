package cachebridge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/cachebridge/codec"
	"github.com/unkn0wn-root/cachebridge/internal/keys"
	"github.com/unkn0wn-root/cachebridge/value"
)

// Backend names the cache server kind Open dials.
type Backend string

const (
	BackendMemcached Backend = "memcached"
	BackendRedis     Backend = "redis"
	BackendBigcache  Backend = "bigcache"
	BackendRistretto Backend = "ristretto"
)

// FieldRule copies Source from a cached record to Target on the event.
// An empty Target means the same name on both sides.
type FieldRule struct {
	Source string
	Target string
}

// EventName is the event attribute a decoded Source is written to.
func (r FieldRule) EventName() string {
	if r.Target != "" {
		return r.Target
	}
	return r.Source
}

// FieldMap is the ordered list of structured fields. In YAML it is a mapping
// from source to target name (null target = same name), or a sequence of
// names when no renames are needed.
type FieldMap []FieldRule

func (m *FieldMap) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		rules := make(FieldMap, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var r FieldRule
			if err := node.Content[i].Decode(&r.Source); err != nil {
				return err
			}
			if t := node.Content[i+1]; t.ShortTag() != "!!null" {
				if err := t.Decode(&r.Target); err != nil {
					return fmt.Errorf("fields: target of %q: %w", r.Source, err)
				}
			}
			rules = append(rules, r)
		}
		*m = rules
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		*m = fromNames(names)
	case yaml.ScalarNode:
		if node.ShortTag() != "!!null" {
			return fmt.Errorf("fields: expected mapping or sequence, got %q", node.Value)
		}
		*m = nil
	default:
		return fmt.Errorf("fields: expected mapping or sequence at line %d", node.Line)
	}
	return nil
}

// UnmarshalJSON accepts the same two shapes as YAML, keeping object order.
func (m *FieldMap) UnmarshalJSON(b []byte) error {
	v, err := value.ParseJSON(b)
	if err != nil {
		return err
	}
	switch v.Kind() {
	case value.KindNull:
		*m = nil
	case value.KindMap:
		rules := make(FieldMap, 0, v.Len())
		for _, mem := range v.Members() {
			r := FieldRule{Source: mem.Key}
			if !mem.Value.IsNull() {
				s, ok := mem.Value.AsString()
				if !ok {
					return fmt.Errorf("fields: target of %q must be a string or null", mem.Key)
				}
				r.Target = s
			}
			rules = append(rules, r)
		}
		*m = rules
	case value.KindList:
		names := make([]string, 0, v.Len())
		for _, it := range v.Items() {
			s, ok := it.AsString()
			if !ok {
				return errors.New("fields: list entries must be strings")
			}
			names = append(names, s)
		}
		*m = fromNames(names)
	default:
		return fmt.Errorf("fields: expected object or array, got %s", v.Kind())
	}
	return nil
}

func fromNames(names []string) FieldMap {
	out := make(FieldMap, 0, len(names))
	for _, n := range names {
		out = append(out, FieldRule{Source: n})
	}
	return out
}

// Config is the construction-time surface of a bridge. It is read once and
// never mutated afterwards.
type Config struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`

	// Key is the cache key every event is read from or written to.
	Key string `yaml:"key" json:"key"`

	// Get selects GET mode when true and SET mode when false.
	Get bool `yaml:"get" json:"get"`

	// Field is the event attribute used when Fields is empty.
	Field string `yaml:"field" json:"field"`

	// Fields switches to the structured strategy. ParseConfig also reads it
	// from "fieldMap" or "json_fields".
	Fields FieldMap `yaml:"fields" json:"fields"`

	Backend    Backend       `yaml:"backend" json:"backend"`         // "" => memcached
	Namespace  string        `yaml:"namespace" json:"namespace"`     // optional key prefix
	TTL        time.Duration `yaml:"ttl" json:"ttl"`                 // write expiration; 0 => none (bigcache: global window)
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`         // per round trip; 0 => client default
	Codec      string        `yaml:"codec" json:"codec"`             // "" => json
	MaxPayload int           `yaml:"max_payload" json:"max_payload"` // decode size guard; 0 => off
	OnMissing  string        `yaml:"on_missing" json:"on_missing"`   // "" => null
}

// DefaultConfig returns a Config populated with the documented defaults.
// Key has no default.
func DefaultConfig() Config {
	return Config{
		Host:      "localhost",
		Port:      11211,
		Get:       true,
		Backend:   BackendMemcached,
		Timeout:   time.Second,
		Codec:     "json",
		OnMissing: "null",
	}
}

// configFile is the YAML document shape: Config plus the alternative names
// the structured field list is known by.
type configFile struct {
	Config     `yaml:",inline"`
	FieldMap   FieldMap `yaml:"fieldMap"`
	JSONFields FieldMap `yaml:"json_fields"`
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
// Unknown options are rejected. "fieldMap" and "json_fields" are accepted as
// names for "fields"; at most one of the three may be set.
func ParseConfig(b []byte) (Config, error) {
	doc := configFile{Config: DefaultConfig()}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &ConfigurationError{Err: err}
	}

	cfg := doc.Config
	set := 0
	for _, fm := range []FieldMap{doc.Fields, doc.FieldMap, doc.JSONFields} {
		if fm != nil {
			set++
			cfg.Fields = fm
		}
	}
	if set > 1 {
		return Config{}, &ConfigurationError{
			Field: "fields",
			Err:   errors.New("set only one of fields, fieldMap, json_fields"),
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML file.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &ConfigurationError{Err: err}
	}
	return ParseConfig(b)
}

func (c Config) Mode() Mode {
	if c.Get {
		return ModeGet
	}
	return ModeSet
}

// StorageKey is the key sent to the cache: Key behind the optional namespace.
func (c Config) StorageKey() string { return keys.Join(c.Namespace, c.Key) }

// Structured reports whether the structured strategy is active.
func (c Config) Structured() bool { return len(c.Fields) > 0 }

func (c Config) backend() Backend {
	if c.Backend == "" {
		return BackendMemcached
	}
	return c.Backend
}

func (c Config) networked() bool {
	b := c.backend()
	return b == BackendMemcached || b == BackendRedis
}

// Validate checks the configuration; failures are *ConfigurationError.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Key, validation.Required),
		validation.Field(&c.Host, validation.When(c.networked(), validation.Required)),
		validation.Field(&c.Port, validation.When(c.networked(), validation.Required, validation.Min(1), validation.Max(65535))),
		validation.Field(&c.Backend, validation.In(BackendMemcached, BackendRedis, BackendBigcache, BackendRistretto)),
		validation.Field(&c.Codec, validation.In(anySlice(codec.Names())...)),
		validation.Field(&c.OnMissing, validation.In(anySlice(missingPolicyNames())...)),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxPayload, validation.Min(0)),
		validation.Field(&c.Fields, validation.By(checkFieldMap)),
	)
	if err != nil {
		return configError(err)
	}
	if c.backend() == BackendMemcached {
		if err := keys.CheckMemcached(c.StorageKey()); err != nil {
			return &ConfigurationError{Field: "key", Err: err}
		}
	}
	if c.Get && c.Field == "" && !c.Structured() {
		return &ConfigurationError{Field: "field", Err: errors.New("get mode needs field or fields")}
	}
	return nil
}

func configError(err error) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		names := make([]string, 0, len(verrs))
		for name := range verrs {
			names = append(names, name)
		}
		sort.Strings(names)
		return &ConfigurationError{Field: names[0], Err: err}
	}
	return &ConfigurationError{Err: err}
}

func checkFieldMap(v any) error {
	fm, _ := v.(FieldMap)
	seen := make(map[string]struct{}, len(fm))
	for _, r := range fm {
		if r.Source == "" {
			return errors.New("empty source name")
		}
		if _, dup := seen[r.Source]; dup {
			return fmt.Errorf("duplicate source name %q", r.Source)
		}
		seen[r.Source] = struct{}{}
	}
	return nil
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// MissingFieldPolicy decides what a structured SET writes for a configured
// field the event does not carry.
type MissingFieldPolicy uint8

const (
	// InsertNull writes the key with a null value.
	InsertNull MissingFieldPolicy = iota
	// OmitMissing leaves the key out of the record.
	OmitMissing
	// FailMissing aborts the SET with *MissingFieldError.
	FailMissing
)

func missingPolicyNames() []string { return []string{"null", "omit", "error"} }

// ParseMissingFieldPolicy maps the on_missing option to a policy.
func ParseMissingFieldPolicy(s string) (MissingFieldPolicy, error) {
	switch s {
	case "", "null":
		return InsertNull, nil
	case "omit":
		return OmitMissing, nil
	case "error":
		return FailMissing, nil
	}
	return InsertNull, fmt.Errorf("unknown on_missing policy %q", s)
}

func (p MissingFieldPolicy) String() string {
	switch p {
	case InsertNull:
		return "null"
	case OmitMissing:
		return "omit"
	case FailMissing:
		return "error"
	}
	return fmt.Sprintf("policy(%d)", uint8(p))
}
