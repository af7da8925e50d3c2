package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoadFunc produces a value on a cache miss along with its TTL.
type LoadFunc[V any] func(ctx context.Context) (V, time.Duration, error)

// Loader fills a Cache on misses. Concurrent misses for one key share a
// single call to the LoadFunc. Failed loads are not cached.
type Loader[V any] struct {
	cache Cache[V]
	group singleflight.Group
}

// NewLoader wraps c.
func NewLoader[V any](c Cache[V]) *Loader[V] {
	return &Loader[V]{cache: c}
}

type loaded[V any] struct {
	val V
	ttl time.Duration
}

// Load returns the cached value for key or calls fn.
func (l *Loader[V]) Load(ctx context.Context, key string, fn LoadFunc[V]) (V, error) {
	if v, err := l.cache.Get(ctx, key); err == nil {
		return v, nil
	}

	res, err, _ := l.group.Do(key, func() (any, error) {
		v, ttl, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return loaded[V]{val: v, ttl: ttl}, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	r := res.(loaded[V])
	_ = l.cache.Set(ctx, key, r.val, r.ttl)
	return r.val, nil
}

// Forget drops key.
func (l *Loader[V]) Forget(ctx context.Context, key string) error {
	return l.cache.Delete(ctx, key)
}
