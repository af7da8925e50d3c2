package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Options(t *testing.T) {
	t.Parallel()

	t.Run("empty url", func(t *testing.T) {
		t.Parallel()
		_, err := Config{}.Options()
		require.ErrorIs(t, err, ErrEmptyConnectionURL)
	})

	for _, url := range []string{"http://localhost:6379", "localhost:6379", "postgresql://localhost:6379"} {
		t.Run("rejects "+url, func(t *testing.T) {
			t.Parallel()
			_, err := Config{URL: url}.Options()
			require.ErrorIs(t, err, ErrFailedToParseURL)
		})
	}

	t.Run("applies settings", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.URL = "redis://:secret@localhost:6380/2"
		cfg.PoolSize = 7

		opts, err := cfg.Options()
		require.NoError(t, err)
		assert.Equal(t, "localhost:6380", opts.Addr)
		assert.Equal(t, "secret", opts.Password)
		assert.Equal(t, 2, opts.DB)
		assert.Equal(t, 7, opts.PoolSize)
		assert.Equal(t, 3*time.Second, opts.ReadTimeout)
		assert.Nil(t, opts.TLSConfig)
	})

	t.Run("tls", func(t *testing.T) {
		t.Parallel()
		opts, err := Config{URL: "rediss://localhost:6379"}.Options()
		require.NoError(t, err)
		assert.NotNil(t, opts.TLSConfig)
	})
}

func TestOpen_Unreachable(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.URL = "redis://127.0.0.1:1/0"
	cfg.RetryAttempts = 2
	cfg.RetryInterval = time.Millisecond
	cfg.DialTimeout = 100 * time.Millisecond

	_, err := Open(context.Background(), cfg)
	require.ErrorIs(t, err, ErrConnectionFailed)
}

func TestWait(t *testing.T) {
	t.Parallel()

	require.NoError(t, wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, wait(ctx, time.Hour), context.Canceled)
}

func TestHealthcheck_NilClient(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Healthcheck(nil)(context.Background()), ErrHealthcheckFailed)
}

type closer struct {
	err    error
	closed bool
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func TestShutdown(t *testing.T) {
	t.Parallel()

	c := &closer{}
	require.NoError(t, Shutdown(c)(context.Background()))
	assert.True(t, c.closed)

	boom := errors.New("boom")
	require.ErrorIs(t, Shutdown(&closer{err: boom})(context.Background()), boom)
}
