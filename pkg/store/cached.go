package store

import (
	"context"
	"time"

	"github.com/dmitrymomot/mailroom/pkg/cache"
	"github.com/dmitrymomot/mailroom/pkg/email"
)

// DefaultKindTTL is how long a looked-up kind stays cached.
const DefaultKindTTL = 5 * time.Minute

// CachedKinds decorates a KindFinder with a TTL cache. Concurrent misses for
// the same key share one lookup. Unknown kinds are not cached.
type CachedKinds struct {
	next   KindFinder
	loader *cache.Loader[*email.Kind]
	ttl    time.Duration
}

// NewCachedKinds wraps next with c. A non-positive ttl uses DefaultKindTTL.
func NewCachedKinds(next KindFinder, c cache.Cache[*email.Kind], ttl time.Duration) *CachedKinds {
	if ttl <= 0 {
		ttl = DefaultKindTTL
	}
	return &CachedKinds{next: next, loader: cache.NewLoader(c), ttl: ttl}
}

// FindKind implements KindFinder.
func (c *CachedKinds) FindKind(ctx context.Context, name, language string) (*email.Kind, error) {
	return c.loader.Load(ctx, kindKey(name, language), func(ctx context.Context) (*email.Kind, time.Duration, error) {
		k, err := c.next.FindKind(ctx, name, language)
		return k, c.ttl, err
	})
}

// Forget drops a cached kind, e.g. after it was saved.
func (c *CachedKinds) Forget(ctx context.Context, name, language string) error {
	return c.loader.Forget(ctx, kindKey(name, language))
}

func kindKey(name, language string) string {
	return "kind:" + name + ":" + language
}
