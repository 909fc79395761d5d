// Package once tracks one-shot transitions for reward triggers.
package once

// Option applies a configuration option to the in-memory guard.
type Option func(*inMemoryGuard)

// WithMaxSize bounds the number of claims kept in memory.
// maxSize <= 0 disables eviction entirely.
func WithMaxSize(maxSize int) Option {
	return func(g *inMemoryGuard) {
		g.maxSize = maxSize
	}
}
