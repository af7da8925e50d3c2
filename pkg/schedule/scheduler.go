package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/mailroom/pkg/email"
	"github.com/dmitrymomot/mailroom/pkg/logger"
	"github.com/dmitrymomot/mailroom/pkg/metrics"
)

// DefaultLanguage is used when a kind has no translation for the requested language.
const DefaultLanguage = "es"

// KindFinder looks up kinds by name and language.
type KindFinder interface {
	FindKind(ctx context.Context, name, language string) (*email.Kind, error)
}

// Scheduler resolves kinds and generates entries for them.
type Scheduler struct {
	kinds     KindFinder
	generator *Generator
	metrics   metrics.Sink
	logger    *slog.Logger
	fallback  string
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets the scheduler logger.
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSchedulerMetrics sets the metrics sink.
func WithSchedulerMetrics(m metrics.Sink) SchedulerOption {
	return func(s *Scheduler) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithDefaultLanguage sets the fallback language.
func WithDefaultLanguage(lang string) SchedulerOption {
	return func(s *Scheduler) {
		if lang != "" {
			s.fallback = lang
		}
	}
}

// NewScheduler creates a Scheduler.
func NewScheduler(kinds KindFinder, generator *Generator, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		kinds:     kinds,
		generator: generator,
		metrics:   metrics.Nop{},
		logger:    logger.NewNope(),
		fallback:  DefaultLanguage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule generates an entry for the kind (name, language). A missing
// translation falls back to the default language; a kind missing in both
// yields email.ErrKindNotFound.
func (s *Scheduler) Schedule(ctx context.Context, name, language string, params email.Params) (*email.Entry, error) {
	kind, err := s.kinds.FindKind(ctx, name, language)
	if errors.Is(err, email.ErrKindNotFound) && language != s.fallback {
		kind, err = s.kinds.FindKind(ctx, name, s.fallback)
		if err == nil {
			s.metrics.Increment(metrics.ScheduleWrongLang, 1)
			s.logger.WarnContext(ctx, "kind not defined for language, taking default",
				slog.String("name", name),
				slog.String("language", language),
				slog.String("default_language", s.fallback),
			)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("schedule %s/%s: %w", name, language, err)
	}
	return s.generator.Generate(ctx, kind, params)
}
