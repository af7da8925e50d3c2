//go:build integration

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/cache"
	"github.com/dmitrymomot/mailroom/pkg/email"
	"github.com/dmitrymomot/mailroom/pkg/redis"
)

func TestRedis_Kinds(t *testing.T) {
	cfg := redis.DefaultConfig()
	cfg.URL = os.Getenv("REDIS_URL")
	if cfg.URL == "" {
		cfg.URL = "redis://localhost:6379/0"
	}
	cfg.RetryAttempts = 1

	ctx := context.Background()
	client, err := redis.Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	c := cache.NewRedis[*email.Kind](client, cache.WithPrefix("mailroom-test"), cache.WithRedisTTL(time.Minute))
	t.Cleanup(func() { _ = c.Delete(context.Background(), "kind:welcome:es") })

	_, err = c.Get(ctx, "kind:welcome:es")
	require.ErrorIs(t, err, cache.ErrNotFound)

	kind := &email.Kind{ID: 7, Name: "welcome", Language: "es", Template: "<p>{{.name}}</p>",
		DefaultContext: map[string]any{"name": "amigo"}}
	require.NoError(t, c.Set(ctx, "kind:welcome:es", kind, 0))

	ttl, err := client.TTL(ctx, "mailroom-test:kind:welcome:es").Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Minute.Seconds(), ttl.Seconds(), 2)

	got, err := c.Get(ctx, "kind:welcome:es")
	require.NoError(t, err)
	assert.Equal(t, kind.ID, got.ID)
	assert.Equal(t, "amigo", got.DefaultContext["name"])

	require.NoError(t, c.Delete(ctx, "kind:welcome:es"))
	_, err = c.Get(ctx, "kind:welcome:es")
	require.ErrorIs(t, err, cache.ErrNotFound)
}
