package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/health"
)

func ok(context.Context) error { return nil }

func TestChecker_Run(t *testing.T) {
	t.Parallel()

	t.Run("no checks", func(t *testing.T) {
		t.Parallel()
		rep := health.NewChecker(nil).Run(context.Background())
		assert.True(t, rep.Healthy())
		assert.Empty(t, rep.Checks)
	})

	t.Run("one failure", func(t *testing.T) {
		t.Parallel()
		rep := health.NewChecker(health.Checks{
			"postgres": ok,
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		}).Run(context.Background())

		assert.False(t, rep.Healthy())
		assert.Equal(t, health.StatusHealthy, rep.Checks["postgres"].Status)
		assert.Equal(t, health.StatusUnhealthy, rep.Checks["redis"].Status)
		assert.Equal(t, "connection refused", rep.Checks["redis"].Error)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		rep := health.NewChecker(health.Checks{
			"slow": func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		}, health.WithTimeout(20*time.Millisecond)).Run(context.Background())

		assert.False(t, rep.Healthy())
		assert.Equal(t, context.DeadlineExceeded.Error(), rep.Checks["slow"].Error)
	})
}

func TestLivenessHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	health.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()

	failing := health.ReadinessHandler(health.Checks{
		"postgres": ok,
		"redis":    func(context.Context) error { return errors.New("down") },
	})

	t.Run("plain", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		failing(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "Service Unavailable", rec.Body.String())
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		req.Header.Set("Accept", "application/json")
		failing(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var rep health.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
		assert.Equal(t, health.StatusUnhealthy, rep.Status)
		assert.Equal(t, "down", rep.Checks["redis"].Error)
	})

	t.Run("query format", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		health.ReadinessHandler(health.Checks{"postgres": ok})(rec, httptest.NewRequest(http.MethodGet, "/health/ready?format=json", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"healthy","checks":{"postgres":{"status":"healthy","took_ms":0}}}`, rec.Body.String())
	})
}
