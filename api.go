package cachebridge

import (
	"context"

	"github.com/unkn0wn-root/cachebridge/codec"
	"github.com/unkn0wn-root/cachebridge/event"
	pr "github.com/unkn0wn-root/cachebridge/provider"
)

// Processor is what a pipeline stage calls once per event.
type Processor interface {
	Process(ctx context.Context, ev event.Event) error
	Close(ctx context.Context) error
}

var _ Processor = (*Bridge)(nil)

// Options configure New. Config and Provider are required; others have
// sensible defaults.
type Options struct {
	// Required
	Config   Config
	Provider pr.Provider

	Codec       codec.Codec // nil => codec.ByName(Config.Codec)
	Logger      Logger      // if nil, NopLogger is used
	Hooks       Hooks       // if nil, NopHooks is used
	OwnProvider bool        // Close also closes Provider
}
