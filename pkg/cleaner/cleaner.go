// Package cleaner purges entries flagged as deleted.
package cleaner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/mailroom/pkg/logger"
	"github.com/dmitrymomot/mailroom/pkg/metrics"
)

// Purger removes entries flagged as deleted.
type Purger interface {
	PurgeDeleted(ctx context.Context) (int64, error)
}

// Cleaner removes deleted entries with their attachments.
type Cleaner struct {
	store   Purger
	metrics metrics.Sink
	logger  *slog.Logger
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithLogger sets the cleaner logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cleaner) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.Sink) Option {
	return func(c *Cleaner) {
		if m != nil {
			c.metrics = m
		}
	}
}

// New creates a Cleaner.
func New(store Purger, opts ...Option) *Cleaner {
	c := &Cleaner{
		store:   store,
		metrics: metrics.Nop{},
		logger:  logger.NewNope(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunOnce purges deleted entries and returns how many were removed.
func (c *Cleaner) RunOnce(ctx context.Context) (int64, error) {
	n, err := c.store.PurgeDeleted(ctx)
	if err != nil {
		return 0, fmt.Errorf("cleaner: purge deleted entries: %w", err)
	}
	c.metrics.Increment(metrics.CleanOK, int(n))
	if n > 0 {
		c.logger.InfoContext(ctx, "deleted entries purged", slog.Int64("count", n))
	}
	return n, nil
}

// Task runs the cleaner as a scheduled job.
type Task struct {
	cleaner  *Cleaner
	schedule string
}

// NewTask creates a Task firing on schedule.
func NewTask(c *Cleaner, schedule string) *Task {
	return &Task{cleaner: c, schedule: schedule}
}

func (t *Task) Name() string     { return "clean_entries" }
func (t *Task) Schedule() string { return t.schedule }

func (t *Task) Handle(ctx context.Context) error {
	_, err := t.cleaner.RunOnce(ctx)
	return err
}
