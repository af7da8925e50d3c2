// Package cache keeps recently looked-up email kinds close to the scheduler.
//
// Memory is a bounded in-process LRU, Redis shares entries between processes.
// Loader sits on top of either and collapses concurrent misses for one key
// into a single load:
//
//	c, err := cache.Open[*email.Kind](cfg.Cache, redisClient)
//	loader := cache.NewLoader(c)
//	kind, err := loader.Load(ctx, "kind:welcome:es", func(ctx context.Context) (*email.Kind, time.Duration, error) {
//		k, err := kinds.FindKind(ctx, "welcome", "es")
//		return k, 0, err
//	})
package cache
