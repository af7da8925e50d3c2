package mailroom

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/mailroom/middlewares"
	"github.com/dmitrymomot/mailroom/pkg/db"
	"github.com/dmitrymomot/mailroom/pkg/health"
	"github.com/dmitrymomot/mailroom/pkg/job"
	"github.com/dmitrymomot/mailroom/pkg/logger"
	"github.com/dmitrymomot/mailroom/pkg/redis"
)

// Health check paths.
const (
	LivenessPath  = "/health/live"
	ReadinessPath = "/health/ready"

	DefaultMetricsPath = "/metrics"
)

// routes serves the operational endpoints: liveness, readiness and the
// prometheus scrape target.
func (a *App) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(
		middlewares.RequestID(),
		middlewares.Recover(logger.Component(a.logger, "http")),
		middlewares.Timeout(a.cfg.Server.WriteTimeout),
	)

	r.Get(LivenessPath, health.LivenessHandler())
	r.Get(ReadinessPath, health.ReadinessHandler(a.readinessChecks(),
		health.WithLogger(logger.Component(a.logger, "health")),
	))
	metricsPath := a.cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = DefaultMetricsPath
	}
	r.Handle(metricsPath, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	return r
}

func (a *App) readinessChecks() health.Checks {
	checks := health.Checks{}
	if a.pool != nil {
		checks["database"] = db.Healthcheck(a.pool)
	}
	if a.redis != nil {
		checks["redis"] = redis.Healthcheck(a.redis)
	}
	if a.jobs != nil {
		checks["jobs"] = job.Healthcheck(a.jobs)
	}
	return checks
}
