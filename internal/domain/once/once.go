// Package once tracks one-shot transitions so reward triggers fire at most
// once per event. Each award function may be called exactly once for a given
// trigger; this guard enforces it at the orchestration boundary.
package once

import (
	"context"
	"sync"
	"sync/atomic"
)

// Default guard configuration constants.
const (
	defaultMaxSize = 50_000
)

// Guard records consumed trigger keys, e.g. "complete:<event-id>".
type Guard interface {
	// ClaimOnce atomically checks whether key was already claimed and claims
	// it if not. Returns true if this call won the claim; false means some
	// earlier call already holds it.
	ClaimOnce(ctx context.Context, key string) bool

	// Release gives a key back, allowing a retry. Only used when a claimed
	// trigger failed downstream (e.g. a storage conflict).
	Release(ctx context.Context, key string)

	Size() int64
}

// inMemoryGuard implements Guard with a map plus FIFO eviction ring.
// Bounded mode (maxSize > 0) evicts the oldest claim when full; maxSize <= 0
// disables eviction.
type inMemoryGuard struct {
	mu      sync.Mutex
	claimed map[string]struct{}
	order   []string // FIFO eviction order, bounded mode only
	maxSize int
	size    atomic.Int64
}

// NewInMemoryGuard creates a guard with configuration options.
func NewInMemoryGuard(opts ...Option) Guard {
	g := &inMemoryGuard{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(g)
	}

	g.claimed = make(map[string]struct{})
	if g.maxSize > 0 {
		g.order = make([]string, 0, g.maxSize)
	}

	return g
}

// ClaimOnce atomically checks and claims key.
func (g *inMemoryGuard) ClaimOnce(_ context.Context, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.claimed[key]; ok {
		return false
	}

	if g.maxSize > 0 && len(g.claimed) >= g.maxSize {
		g.evictOldest()
	}

	g.claimed[key] = struct{}{}
	if g.maxSize > 0 {
		g.order = append(g.order, key)
	}
	g.size.Add(1)
	return true
}

// Release removes a claim, allowing the trigger to be retried.
func (g *inMemoryGuard) Release(_ context.Context, key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.claimed[key]; !ok {
		return
	}
	delete(g.claimed, key)
	g.size.Add(-1)
	for i, k := range g.order {
		if k == key {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// evictOldest drops the oldest claim. Must be called with g.mu held.
func (g *inMemoryGuard) evictOldest() {
	for len(g.order) > 0 {
		oldest := g.order[0]
		g.order = g.order[1:]
		if _, ok := g.claimed[oldest]; ok {
			delete(g.claimed, oldest)
			g.size.Add(-1)
			return
		}
	}
}

// Size returns the current number of claims held.
func (g *inMemoryGuard) Size() int64 {
	return g.size.Load()
}
