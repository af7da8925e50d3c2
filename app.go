package mailroom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/mailroom/pkg/backend"
	"github.com/dmitrymomot/mailroom/pkg/cache"
	"github.com/dmitrymomot/mailroom/pkg/cleaner"
	"github.com/dmitrymomot/mailroom/pkg/config"
	"github.com/dmitrymomot/mailroom/pkg/db"
	"github.com/dmitrymomot/mailroom/pkg/email"
	"github.com/dmitrymomot/mailroom/pkg/inbound"
	"github.com/dmitrymomot/mailroom/pkg/job"
	"github.com/dmitrymomot/mailroom/pkg/logger"
	"github.com/dmitrymomot/mailroom/pkg/metrics"
	"github.com/dmitrymomot/mailroom/pkg/redis"
	"github.com/dmitrymomot/mailroom/pkg/render"
	"github.com/dmitrymomot/mailroom/pkg/schedule"
	"github.com/dmitrymomot/mailroom/pkg/sender"
	"github.com/dmitrymomot/mailroom/pkg/spam"
	"github.com/dmitrymomot/mailroom/pkg/storage"
	"github.com/dmitrymomot/mailroom/pkg/store"
	"github.com/dmitrymomot/mailroom/pkg/store/postgres"
)

// ErrNoStore is returned by New when neither a pool nor a store is given.
var ErrNoStore = errors.New("mailroom: a database pool or a store is required")

// App wires the mailroom components together. It is immutable after New.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	// infrastructure
	pool     *pgxpool.Pool
	redis    *goredis.Client
	store    store.Store
	images   storage.Storage
	registry *prometheus.Registry
	console  io.Writer
	gate     sender.Gate

	extraBackends []namedBackend

	// components
	metrics   metrics.Sink
	backends  *backend.Registry
	renderer  *render.Renderer
	adapter   *backend.Adapter
	scheduler *schedule.Scheduler
	loop      *sender.Loop
	cleaner   *cleaner.Cleaner
	inbound   *inbound.Handler
	jobs      *job.Manager
	kinds     *store.CachedKinds
	router    chi.Router

	closers []func(context.Context) error
}

// Open connects to PostgreSQL and, when configured, Redis, then builds the
// App. Connections opened here are closed by Close.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("mailroom: connect database: %w", err)
	}
	closers := []func(context.Context) error{db.Shutdown(pool)}
	opts = append([]Option{WithPool(pool)}, opts...)

	if cfg.Redis.URL != "" {
		client, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("mailroom: connect redis: %w", err)
		}
		closers = append(closers, redis.Shutdown(client))
		opts = append([]Option{WithRedis(client)}, opts...)
	}

	app, err := New(ctx, cfg, opts...)
	if err != nil {
		for _, c := range closers {
			_ = c(ctx)
		}
		return nil, err
	}
	app.closers = append(app.closers, closers...)
	return app, nil
}

// New builds the App from cfg and the given infrastructure.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:     cfg,
		logger:  logger.NewNope(),
		console: os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.store == nil {
		if a.pool == nil {
			return nil, ErrNoStore
		}
		a.store = postgres.New(a.pool)
	}
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
	}
	a.metrics = metrics.NewPrometheus(cfg.Metrics.Namespace, a.registry)

	if a.images == nil {
		images, err := storage.Open(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("mailroom: image storage: %w", err)
		}
		a.images = images
	}

	backends, err := a.buildBackends(ctx)
	if err != nil {
		return nil, err
	}
	a.backends = backends

	if err := a.buildComponents(); err != nil {
		return nil, err
	}

	a.router = a.routes()
	return a, nil
}

func (a *App) buildComponents() error {
	cfg := a.cfg

	a.renderer = render.New(
		render.WithLogger(logger.Component(a.logger, "render")),
		render.WithImageStore(a.store),
		render.WithImageLocator(a.images),
		render.WithMinify(cfg.Render.Minify),
		render.WithContentIDDomain(cfg.Render.Domain),
		render.WithLanguage(cfg.Language),
	)

	composer := backend.NewComposer(a.renderer, a.images, a.store,
		backend.WithComposerLogger(logger.Component(a.logger, "composer")),
		backend.WithComposerMetrics(a.metrics),
		backend.WithMessageIDDomain(cfg.Render.Domain),
	)
	a.adapter = backend.NewAdapter(a.backends, a.store,
		backend.WithComposer(composer),
		backend.WithAdapterLogger(logger.Component(a.logger, "backend")),
		backend.WithSendTimeout(cfg.Backends.SendTimeout),
	)

	kinds, err := a.kindFinder()
	if err != nil {
		return err
	}
	generator := schedule.NewGenerator(a.store,
		schedule.WithGeneratorLogger(logger.Component(a.logger, "generator")),
		schedule.WithBackends(a.backends),
	)
	a.scheduler = schedule.NewScheduler(kinds, generator,
		schedule.WithSchedulerLogger(logger.Component(a.logger, "scheduler")),
		schedule.WithSchedulerMetrics(a.metrics),
		schedule.WithDefaultLanguage(cfg.Language),
	)

	classifier, err := spam.FromConfig(cfg.Spam, spam.WithLogger(logger.Component(a.logger, "spam")))
	if err != nil {
		return fmt.Errorf("mailroom: %w", err)
	}
	gate := a.gate
	if gate == nil {
		gate = sender.NewOriginGate(cfg.Sender.OriginTimeout)
	}
	a.loop = sender.New(a.store, a.adapter,
		sender.WithLogger(logger.Component(a.logger, "sender")),
		sender.WithMetrics(a.metrics),
		sender.WithSpamChecker(classifier),
		sender.WithOriginGate(gate),
	)

	a.cleaner = cleaner.New(a.store,
		cleaner.WithLogger(logger.Component(a.logger, "cleaner")),
		cleaner.WithMetrics(a.metrics),
	)

	a.inbound = inbound.NewHandler(a.scheduler,
		inbound.WithLogger(logger.Component(a.logger, "consumer")),
		inbound.WithMetrics(a.metrics),
	)

	if a.pool != nil {
		jobs, err := job.NewManager(a.pool,
			job.WithLogger(logger.Component(a.logger, "jobs")),
			job.WithScheduledTask(sender.NewTask(a.loop, cfg.Sender.Schedule)),
			job.WithScheduledTask(cleaner.NewTask(a.cleaner, cfg.Cleaner.Schedule)),
			job.WithTask[json.RawMessage](inbound.NewEnqueueTask(a.inbound)),
		)
		if err != nil {
			return fmt.Errorf("mailroom: %w", err)
		}
		a.jobs = jobs
	}
	return nil
}

// kindFinder returns the store wrapped in the kind cache. Only the scheduler
// reads kinds through the cache.
func (a *App) kindFinder() (store.KindFinder, error) {
	var client goredis.UniversalClient
	if a.redis != nil {
		client = a.redis
	}
	c, err := cache.Open[*email.Kind](a.cfg.Cache, client)
	if err != nil {
		return nil, fmt.Errorf("mailroom: kind cache: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return c.Close() })
	a.kinds = store.NewCachedKinds(a.store, c, a.cfg.Cache.TTL)
	return a.kinds, nil
}

// Router returns the HTTP handler serving health and metrics.
func (a *App) Router() chi.Router {
	return a.router
}

// Scheduler returns the scheduler used for inbound requests.
func (a *App) Scheduler() *schedule.Scheduler {
	return a.scheduler
}

// Backends returns the delivery backend registry.
func (a *App) Backends() *backend.Registry {
	return a.backends
}

// Close releases the cache and the connections opened by Open.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for _, c := range a.closers {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
