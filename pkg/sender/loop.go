package sender

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/mailroom/pkg/email"
	"github.com/dmitrymomot/mailroom/pkg/logger"
	"github.com/dmitrymomot/mailroom/pkg/metrics"
)

// EntryStore is the part of the store the loop reads and flags.
type EntryStore interface {
	ListSendable(ctx context.Context) ([]*email.Entry, error)
	MarkSpam(ctx context.Context, id string) error
	MarkDeleted(ctx context.Context, id string) error
}

// Deliverer renders and sends an entry, persisting the outcome.
type Deliverer interface {
	Deliver(ctx context.Context, entry *email.Entry) (bool, error)
}

// SpamChecker classifies entries.
type SpamChecker interface {
	IsSpam(ctx context.Context, entry *email.Entry) bool
}

// Gate answers whether an entry's origin still wants it sent.
type Gate interface {
	Check(ctx context.Context, url string) (Verdict, error)
}

// Loop is one send loop.
type Loop struct {
	store     EntryStore
	deliverer Deliverer
	spam      SpamChecker
	gate      Gate
	metrics   metrics.Sink
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the loop logger.
func WithLogger(l *slog.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.Sink) Option {
	return func(lp *Loop) {
		if m != nil {
			lp.metrics = m
		}
	}
}

// WithSpamChecker sets the classifier re-run before every delivery.
func WithSpamChecker(s SpamChecker) Option {
	return func(lp *Loop) {
		lp.spam = s
	}
}

// WithOriginGate replaces the default origin gate.
func WithOriginGate(g Gate) Option {
	return func(lp *Loop) {
		if g != nil {
			lp.gate = g
		}
	}
}

// WithClock overrides the time source of the timing gate.
func WithClock(now func() time.Time) Option {
	return func(lp *Loop) {
		if now != nil {
			lp.now = now
		}
	}
}

// New creates a Loop.
func New(store EntryStore, deliverer Deliverer, opts ...Option) *Loop {
	lp := &Loop{
		store:     store,
		deliverer: deliverer,
		gate:      NewOriginGate(defaultOriginTimeout),
		metrics:   metrics.Nop{},
		logger:    logger.NewNope(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(lp)
	}
	return lp
}

// RunOnce processes every sendable entry once and returns how many were sent.
// Only a failure to list the candidates is returned as an error.
func (lp *Loop) RunOnce(ctx context.Context) (int, error) {
	entries, err := lp.store.ListSendable(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrListEntries, err)
	}

	now := lp.now()
	sent := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if lp.process(logger.WithEntryID(ctx, entry.ID), entry, now) {
			sent++
		}
	}

	if sent > 0 || len(entries) > 0 {
		lp.logger.InfoContext(ctx, "send pass finished",
			slog.Int("candidates", len(entries)),
			slog.Int("sent", sent),
		)
	}
	return sent, nil
}

func (lp *Loop) process(ctx context.Context, entry *email.Entry, now time.Time) bool {
	if !entry.Arrived(now) {
		return false
	}
	if !lp.allowed(ctx, entry) {
		return false
	}

	if lp.spam != nil && lp.spam.IsSpam(ctx, entry) {
		lp.metrics.Increment(metrics.SendIsSpam, 1)
		lp.logger.WarnContext(ctx, "entry classified as spam", slog.String("entry", entry.String()))
		if err := lp.store.MarkSpam(ctx, entry.ID); err != nil {
			lp.logger.ErrorContext(ctx, "failed to mark entry as spam", slog.String("error", err.Error()))
		}
		return false
	}

	ok, err := lp.deliverer.Deliver(ctx, entry)
	if err != nil {
		lp.metrics.Increment(metrics.SendFail, 1)
		lp.logger.ErrorContext(ctx, "failed to send entry",
			slog.String("entry", entry.String()),
			slog.String("error", err.Error()),
		)
		return false
	}
	if !ok {
		lp.metrics.Increment(metrics.SendFail, 1)
		return false
	}

	lp.metrics.Increment(metrics.SendOK, 1)
	lp.logger.InfoContext(ctx, "entry sent",
		slog.String("entry", entry.String()),
		slog.String("thirdparty_id", entry.ThirdpartyID),
	)
	return true
}

// allowed applies the origin gate. The delete signal is honoured whatever
// the allowed flag says.
func (lp *Loop) allowed(ctx context.Context, entry *email.Entry) bool {
	if entry.CheckURL == "" {
		return true
	}

	v, err := lp.gate.Check(ctx, entry.CheckURL)
	if err != nil {
		lp.logger.WarnContext(ctx, "origin check failed",
			slog.String("check_url", entry.CheckURL),
			slog.String("error", err.Error()),
		)
		return false
	}

	if v.Delete {
		if err := lp.store.MarkDeleted(ctx, entry.ID); err != nil {
			lp.logger.ErrorContext(ctx, "failed to mark entry as deleted", slog.String("error", err.Error()))
		} else {
			lp.logger.InfoContext(ctx, "entry deleted by origin", slog.String("check_url", entry.CheckURL))
		}
	}
	if !v.Allowed {
		lp.logger.DebugContext(ctx, "entry not allowed by origin", slog.String("check_url", entry.CheckURL))
	}
	return v.Allowed
}
