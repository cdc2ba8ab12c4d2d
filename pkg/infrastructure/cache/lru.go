package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRU is a bounded in-process cache. Values are shared, not copied.
type LRU[V any] struct {
	entries *lru.Cache[string, V]
}

// NewLRU creates an in-process cache holding at most size entries
func NewLRU[V any](size int) (*LRU[V], error) {
	entries, err := lru.New[string, V](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache of size %d: %w", size, err)
	}
	return &LRU[V]{entries: entries}, nil
}

// Verify interface compliance
var _ Cache[string] = (*LRU[string])(nil)

func (c *LRU[V]) Get(ctx context.Context, key string) (V, bool, error) {
	value, found := c.entries.Get(key)
	return value, found, nil
}

func (c *LRU[V]) Set(ctx context.Context, key string, value V) error {
	c.entries.Add(key, value)
	return nil
}

func (c *LRU[V]) Purge(ctx context.Context) error {
	c.entries.Purge()
	return nil
}

// Len returns the number of cached entries
func (c *LRU[V]) Len() int {
	return c.entries.Len()
}
