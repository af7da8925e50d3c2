package mailroom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/mailroom/internal"
	"github.com/dmitrymomot/mailroom/pkg/email"
	"github.com/dmitrymomot/mailroom/pkg/inbound"
	"github.com/dmitrymomot/mailroom/pkg/logger"
)

// ErrNoJobs is returned by operations that need the job runtime when the App
// was built without a database pool.
var ErrNoJobs = errors.New("mailroom: job runtime requires a database pool")

// ErrNoRedis is returned by operations that need Redis when none is configured.
var ErrNoRedis = errors.New("mailroom: redis is not configured")

// Serve runs the HTTP server, the job workers (send and clean loops and the
// enqueue_email task) and, when enabled, the inbound stream consumer. It
// blocks until ctx is cancelled or a signal arrives, then shuts everything
// down and closes the App.
func (a *App) Serve(ctx context.Context) error {
	if a.jobs == nil {
		return ErrNoJobs
	}

	cfg := internal.ServerConfig{
		Handler:         a.router,
		BaseCtx:         ctx,
		Logger:          logger.Component(a.logger, "server"),
		Address:         a.cfg.Server.Addr,
		ReadTimeout:     a.cfg.Server.ReadTimeout,
		WriteTimeout:    a.cfg.Server.WriteTimeout,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
		StartupHooks:    []internal.Hook{a.jobs.StartFunc()},
		ShutdownHooks:   []internal.Hook{a.jobs.Shutdown(), a.Close},
	}

	if a.cfg.Inbound.Enabled {
		if a.redis == nil {
			return fmt.Errorf("%w: inbound stream enabled", ErrNoRedis)
		}
		consumer := inbound.NewStreamConsumer(a.redis, a.inbound, a.cfg.Inbound.Stream,
			logger.Component(a.logger, "consumer"))
		cfg.Runners = append(cfg.Runners, consumer.Run)
	}

	a.logger.InfoContext(ctx, "mailroom starting",
		slog.Any("tasks", a.jobs.Tasks()),
		slog.String("sender_schedule", a.cfg.Sender.Schedule),
		slog.String("cleaner_schedule", a.cfg.Cleaner.Schedule),
		slog.Bool("inbound_stream", a.cfg.Inbound.Enabled),
	)
	return internal.RunServer(cfg)
}

// SendOnce runs one pass of the send loop and returns how many entries were
// delivered.
func (a *App) SendOnce(ctx context.Context) (int, error) {
	return a.loop.RunOnce(ctx)
}

// CleanOnce runs one pass of the cleanup loop and returns how many entries
// were purged.
func (a *App) CleanOnce(ctx context.Context) (int64, error) {
	return a.cleaner.RunOnce(ctx)
}

// Schedule validates and stores a new entry directly, bypassing the inbound
// transports.
func (a *App) Schedule(ctx context.Context, name, language string, params email.Params) (*email.Entry, error) {
	return a.scheduler.Schedule(ctx, name, language, params)
}

// Enqueue hands a raw inbound request (the JSON document accepted by the
// inbound adapter) to the job runtime as an enqueue_email job.
func (a *App) Enqueue(ctx context.Context, body []byte) error {
	if a.jobs == nil {
		return ErrNoJobs
	}
	if _, _, err := inbound.Decode(body); err != nil {
		return err
	}
	if err := a.jobs.Enqueue(ctx, inbound.EnqueueTaskName, json.RawMessage(body)); err != nil {
		return fmt.Errorf("mailroom: enqueue: %w", err)
	}
	return nil
}

// Publish appends a raw inbound request to the configured Redis stream.
func (a *App) Publish(ctx context.Context, body []byte) (string, error) {
	if a.redis == nil {
		return "", ErrNoRedis
	}
	if _, _, err := inbound.Decode(body); err != nil {
		return "", err
	}
	return inbound.Publish(ctx, a.redis, a.cfg.Inbound.Stream.Stream, body)
}
