// Package middleware provides the ordered pipeline every dispatch runs through
// before reaching its terminal handler.
package middleware

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Handler is one link of a chain.
type Handler[C any] func(ctx context.Context, c C) error

// Func is a middleware. It may read or change c, call next any number of
// times (usually once), or return without calling next to short-circuit.
type Func[C any] func(ctx context.Context, c C, next Handler[C]) error

type entry[C any] struct {
	name string
	fn   Func[C]
}

// Chain is the shared, append-only list of middlewares. Go functions are not
// comparable, so a middleware's identity is the name it is registered under.
type Chain[C any] struct {
	mu      sync.RWMutex
	entries []entry[C]
}

func NewChain[C any]() *Chain[C] {
	return &Chain[C]{}
}

// Use appends fn. Registering the same name twice is an error.
func (c *Chain[C]) Use(name string, fn Func[C]) error {
	if fn == nil {
		return fmt.Errorf("middleware %q is nil", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if e.name == name {
			return fmt.Errorf("middleware %q already registered", name)
		}
	}

	log.Info().Str("middleware", name).Msg("adding middleware to chain")
	c.entries = append(c.entries, entry[C]{name: name, fn: fn})

	return nil
}

// Names lists the registered middlewares, outermost first.
func (c *Chain[C]) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.name
	}

	return names
}

// Build wraps terminal with every middleware. The first registered middleware
// is outermost: it runs first and finishes last.
func (c *Chain[C]) Build(terminal Handler[C]) Handler[C] {
	c.mu.RLock()
	entries := make([]entry[C], len(c.entries))
	copy(entries, c.entries)
	c.mu.RUnlock()

	h := terminal
	for i := len(entries) - 1; i >= 0; i-- {
		fn, next := entries[i].fn, h
		h = func(ctx context.Context, v C) error {
			return fn(ctx, v, next)
		}
	}

	return h
}
