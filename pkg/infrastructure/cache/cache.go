package cache

import "context"

// Cache stores values by key. Get reports found=false on a miss; an error
// means the cache itself failed.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool, error)
	Set(ctx context.Context, key string, value V) error
	Purge(ctx context.Context) error
}

// Tiered consults its layers in order and backfills faster layers on a hit
type Tiered[V any] struct {
	layers []Cache[V]
}

// NewTiered creates a cache over the given layers, fastest first. Nil layers are skipped.
func NewTiered[V any](layers ...Cache[V]) *Tiered[V] {
	t := &Tiered[V]{}
	for _, layer := range layers {
		if layer != nil {
			t.layers = append(t.layers, layer)
		}
	}
	return t
}

// Verify interface compliance
var _ Cache[string] = (*Tiered[string])(nil)

func (t *Tiered[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	for i, layer := range t.layers {
		value, found, err := layer.Get(ctx, key)
		if err != nil {
			return zero, false, err
		}
		if !found {
			continue
		}
		for _, faster := range t.layers[:i] {
			if err := faster.Set(ctx, key, value); err != nil {
				return value, true, err
			}
		}
		return value, true, nil
	}
	return zero, false, nil
}

func (t *Tiered[V]) Set(ctx context.Context, key string, value V) error {
	for _, layer := range t.layers {
		if err := layer.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tiered[V]) Purge(ctx context.Context) error {
	var firstErr error
	for _, layer := range t.layers {
		if err := layer.Purge(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
