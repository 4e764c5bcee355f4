package cache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Loader combines a cache with request coalescing so that concurrent
// misses for the same key trigger a single load.
type Loader[T any] struct {
	cache Cache[T]
	group singleflight.Group
}

// NewLoader creates a loader backed by the given cache
func NewLoader[T any](cache Cache[T]) *Loader[T] {
	return &Loader[T]{cache: cache}
}

// GetOrLoad returns the cached value for key, or runs load once and caches
// the result. Errors are not cached.
func (l *Loader[T]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := l.cache.Get(key); ok {
		return v, nil
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		if v, ok := l.cache.Get(key); ok {
			return v, nil
		}
		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}
		l.cache.Set(key, loaded)
		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops every cached key with the given prefix
func (l *Loader[T]) Invalidate(prefix string) {
	l.cache.DeletePrefix(prefix)
}
