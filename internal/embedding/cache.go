package embedding

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"sync"
)

const defaultCacheEntries = 1024

// Cached memoizes another embedder's vectors keyed by sha1(name|text).
// Once full, new vectors are returned but not stored.
type Cached struct {
	next       Embedder
	maxEntries int

	mu      sync.RWMutex
	entries map[string][]float64
}

// NewCached wraps next. maxEntries <= 0 selects a default bound.
func NewCached(next Embedder, maxEntries int) *Cached {
	if maxEntries <= 0 {
		maxEntries = defaultCacheEntries
	}
	return &Cached{
		next:       next,
		maxEntries: maxEntries,
		entries:    make(map[string][]float64),
	}
}

func (c *Cached) Name() string { return c.next.Name() }

func (c *Cached) Dimension() int { return c.next.Dimension() }

func (c *Cached) Embed(ctx context.Context, text string) ([]float64, error) {
	key := c.key(text)

	c.mu.RLock()
	vec, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return clone(vec), nil
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if len(c.entries) < c.maxEntries {
		c.entries[key] = clone(vec)
	}
	c.mu.Unlock()

	return vec, nil
}

// Len reports the number of cached vectors.
func (c *Cached) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cached) key(text string) string {
	sum := sha1.Sum([]byte(c.next.Name() + "|" + text))
	return hex.EncodeToString(sum[:])
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
