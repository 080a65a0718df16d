package cachebridge

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/unkn0wn-root/cachebridge/event"
	"github.com/unkn0wn-root/cachebridge/value"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("key: session\nfield: message\n"))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Host != "localhost" || cfg.Port != 11211 || !cfg.Get || cfg.Backend != BackendMemcached {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Mode() != ModeGet || cfg.Structured() {
		t.Fatalf("mode=%v structured=%v", cfg.Mode(), cfg.Structured())
	}
}

func TestParseConfigFieldsMapping(t *testing.T) {
	in := `
key: user:42
get: true
fields:
  name: cached_name
  email: ~
  age:
ttl: 90s
timeout: 250ms
namespace: app
on_missing: omit
`
	cfg, err := ParseConfig([]byte(in))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	want := FieldMap{{Source: "name", Target: "cached_name"}, {Source: "email"}, {Source: "age"}}
	if len(cfg.Fields) != len(want) {
		t.Fatalf("fields=%+v", cfg.Fields)
	}
	for i := range want {
		if cfg.Fields[i] != want[i] {
			t.Fatalf("rule %d = %+v want %+v", i, cfg.Fields[i], want[i])
		}
	}
	if cfg.Fields[0].EventName() != "cached_name" || cfg.Fields[1].EventName() != "email" {
		t.Fatalf("EventName mismatch")
	}
	if cfg.TTL != 90*time.Second || cfg.Timeout != 250*time.Millisecond {
		t.Fatalf("durations: ttl=%v timeout=%v", cfg.TTL, cfg.Timeout)
	}
	if cfg.StorageKey() != "app:user:42" {
		t.Fatalf("StorageKey=%q", cfg.StorageKey())
	}
}

func TestParseConfigFieldsSequence(t *testing.T) {
	cfg, err := ParseConfig([]byte("key: k\nget: false\nfields: [a, b]\n"))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if len(cfg.Fields) != 2 || cfg.Fields[1].Source != "b" || cfg.Fields[1].Target != "" {
		t.Fatalf("fields=%+v", cfg.Fields)
	}
	if cfg.Mode() != ModeSet {
		t.Fatalf("mode=%v", cfg.Mode())
	}
}

func TestFieldMapJSONKeepsOrder(t *testing.T) {
	var fm FieldMap
	if err := json.Unmarshal([]byte(`{"z":"Z","a":null,"m":"M"}`), &fm); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(fm) != 3 || fm[0].Source != "z" || fm[1].Source != "a" || fm[2].Target != "M" {
		t.Fatalf("fm=%+v", fm)
	}
	if err := json.Unmarshal([]byte(`{"a":1}`), &fm); err == nil {
		t.Fatalf("numeric target must fail")
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name  string
		yaml  string
		field string
	}{
		{"missing key", "field: message\n", "key"},
		{"bad port", "key: k\nfield: f\nport: 70000\n", "port"},
		{"bad backend", "key: k\nfield: f\nbackend: etcd\n", "backend"},
		{"bad codec", "key: k\nfield: f\ncodec: xml\n", "codec"},
		{"bad policy", "key: k\nfield: f\non_missing: panic\n", "on_missing"},
		{"negative ttl", "key: k\nfield: f\nttl: -1s\n", "ttl"},
		{"duplicate source", "key: k\nfields: [a, a]\n", "fields"},
		{"key with space", "key: a b\nfield: f\n", "key"},
		{"get without field", "key: k\n", "field"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tc.yaml))
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			if ce.Field != tc.field {
				t.Fatalf("field=%q want %q (%v)", ce.Field, tc.field, err)
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("errors.Is(ErrConfiguration) failed")
			}
		})
	}
}

func TestValidateLocalBackendsNeedNoHost(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Key = "key with spaces is fine here"
	cfg.Field = "f"
	cfg.Backend = BackendRistretto
	cfg.Host = ""
	cfg.Port = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestSetModeWithoutFieldIsValid(t *testing.T) {
	if _, err := ParseConfig([]byte("key: k\nget: false\n")); err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.yaml")
	if err := os.WriteFile(path, []byte("key: k\nfield: f\nbackend: redis\nport: 6379\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend != BackendRedis || cfg.Port != 6379 {
		t.Fatalf("cfg=%+v", cfg)
	}
	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if _, err := ParseConfig([]byte("key: [")); err == nil || !strings.Contains(err.Error(), "configuration") {
		t.Fatalf("malformed yaml: %v", err)
	}
}

func TestParseMissingFieldPolicy(t *testing.T) {
	for in, want := range map[string]MissingFieldPolicy{"": InsertNull, "null": InsertNull, "omit": OmitMissing, "error": FailMissing} {
		got, err := ParseMissingFieldPolicy(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %v err %v", in, got, err)
		}
	}
	if _, err := ParseMissingFieldPolicy("drop"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseConfigFieldListAliases(t *testing.T) {
	for _, name := range []string{"fields", "fieldMap", "json_fields"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte("key: k\nget: false\n" + name + ":\n  A: ~\n  B: renamed\n"))
			if err != nil {
				t.Fatalf("ParseConfig: %v", err)
			}
			if !cfg.Structured() || len(cfg.Fields) != 2 {
				t.Fatalf("fields=%+v", cfg.Fields)
			}
			if cfg.Fields[0].Source != "A" || cfg.Fields[1].Target != "renamed" {
				t.Fatalf("fields=%+v", cfg.Fields)
			}
		})
	}
}

func TestParseConfigFieldListAliasConflict(t *testing.T) {
	_, err := ParseConfig([]byte("key: k\nfields: [a]\nfieldMap: [b]\n"))
	var ce *ConfigurationError
	if !errors.As(err, &ce) || ce.Field != "fields" {
		t.Fatalf("expected ConfigurationError on fields, got %v", err)
	}
}

func TestParseConfigRejectsUnknownOptions(t *testing.T) {
	_, err := ParseConfig([]byte("key: k\nfeild: message\nget: false\n"))
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "feild") {
		t.Fatalf("error should name the option: %v", err)
	}
}

func TestFieldMapAliasDrivesStructuredSet(t *testing.T) {
	cfg, err := ParseConfig([]byte("key: k\nget: false\nfieldMap:\n  A: ~\n  B: ~\n"))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	mp := newMemProvider()
	b, err := New(Options{Config: cfg, Provider: mp})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := b.Process(context.Background(), event.Map{"A": value.Int(1), "B": value.Int(2)}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := string(mp.m["k"].v); got != `{"A":1,"B":2}` {
		t.Fatalf("stored %q", got)
	}
}

func TestParseConfigEmptyDocument(t *testing.T) {
	_, err := ParseConfig(nil)
	var ce *ConfigurationError
	if !errors.As(err, &ce) || ce.Field != "key" {
		t.Fatalf("expected missing key, got %v", err)
	}
}
