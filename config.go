package fizzy

import (
	"context"

	"github.com/fizzygo/fizzy/internal/wasm"
)

// RuntimeConfig configures how a module is instantiated and executed: the
// memory growth ceiling and a context used to cancel a long-running
// Execute at its next function-call boundary. It is built with With*
// methods that each return a modified copy, the same builder shape the
// teacher's own RuntimeConfig uses.
type RuntimeConfig struct {
	ctx              context.Context
	memoryPagesLimit uint32
}

// NewRuntimeConfig returns the default configuration: no memory growth
// ceiling beyond Wasm's own 4GiB address space limit, and a background
// context that never cancels.
func NewRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{ctx: context.Background(), memoryPagesLimit: wasm.DefaultMemoryPagesLimit}
}

func (c RuntimeConfig) clone() RuntimeConfig { return c }

// WithContext returns a copy of c whose Execute calls observe ctx's
// cancellation, checked at every function call boundary.
func (c RuntimeConfig) WithContext(ctx context.Context) RuntimeConfig {
	c = c.clone()
	c.ctx = ctx
	return c
}

// WithMemoryPagesLimit returns a copy of c that caps any memory the
// instantiated module owns (not one it imports) to pages 64KiB pages.
func (c RuntimeConfig) WithMemoryPagesLimit(pages uint32) RuntimeConfig {
	c = c.clone()
	c.memoryPagesLimit = pages
	return c
}

func (c RuntimeConfig) context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}
