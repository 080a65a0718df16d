// Package cachebridge copies values between pipeline events and an external
// key-value cache, one cache round trip per event.
//
// A Bridge is built once from an immutable Config and then called with one
// event at a time:
//
//   - GET mode reads the record stored under the configured key and writes it
//     into the event.
//   - SET mode reads the configured fields from the event and stores them
//     under the key.
//
// Transcoding strategies:
//
//   - scalar: one event field (Config.Field) holds the raw record bytes.
//   - structured: Config.Fields lists fields packed into one object with a
//     pluggable codec (JSON by default). On GET each source name found in the
//     record is written to its target name; absent sources are skipped. On
//     SET the source names are used both as event attributes and as object
//     keys; target names apply to GET only.
//
// The key is static per bridge (optionally behind a namespace:
// "<namespace>:<key>"). The bridge holds no mutable state between events and
// is safe for concurrent use when its provider is.
//
// Usage:
//
//	cfg, err := cachebridge.LoadConfig("bridge.yaml")
//	b, err := cachebridge.Open(ctx, cfg, cachebridge.Options{Logger: zaplog.New(logger)})
//	defer b.Close(ctx)
//
//	ev := event.Map{"message": value.String("some text")}
//	err = b.Process(ctx, ev)
//	switch {
//	case errors.Is(err, cachebridge.ErrCacheMiss): // event unchanged
//	case err != nil: // route to an error output
//	}
package cachebridge
