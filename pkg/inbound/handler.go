package inbound

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/mailroom/pkg/email"
	"github.com/dmitrymomot/mailroom/pkg/logger"
	"github.com/dmitrymomot/mailroom/pkg/metrics"
)

// Scheduler creates entries for a kind.
type Scheduler interface {
	Schedule(ctx context.Context, name, language string, params email.Params) (*email.Entry, error)
}

// AckFunc acknowledges a request to its transport.
type AckFunc func(ctx context.Context) error

// Request identifies the kind to schedule.
type Request struct {
	Name     string `json:"name"`
	Language string `json:"language"`
}

// Decode parses a request body into the kind identity and the params.
func Decode(body []byte) (Request, email.Params, error) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return Request{}, email.Params{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Language) == "" {
		return Request{}, email.Params{}, fmt.Errorf("%w: name and language are required", ErrMalformedRequest)
	}

	var params email.Params
	if err := json.Unmarshal(body, &params); err != nil {
		return Request{}, email.Params{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	return req, params, nil
}

// Handler schedules entries from inbound requests.
type Handler struct {
	scheduler Scheduler
	metrics   metrics.Sink
	logger    *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.Sink) Option {
	return func(h *Handler) {
		if m != nil {
			h.metrics = m
		}
	}
}

// NewHandler creates a Handler.
func NewHandler(s Scheduler, opts ...Option) *Handler {
	h := &Handler{
		scheduler: s,
		metrics:   metrics.Nop{},
		logger:    logger.NewNope(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle schedules the entry described by body and reports whether it
// succeeded. Failures are logged and counted, never returned.
func (h *Handler) Handle(ctx context.Context, body []byte) bool {
	h.metrics.Increment(metrics.ConsumerReceived, 1)
	h.logger.InfoContext(ctx, "starting enqueue", slog.Int("size", len(body)))

	entry, err := h.schedule(ctx, body)
	if err != nil {
		h.metrics.Increment(metrics.ScheduledFail, 1)
		h.logger.ErrorContext(ctx, "enqueue failed", slog.String("error", err.Error()))
		return false
	}

	h.metrics.Increment(metrics.ScheduledOK, 1)
	h.logger.InfoContext(logger.WithEntryID(ctx, entry.ID), "enqueue finished",
		slog.String("kind", entry.Kind.String()),
	)
	return true
}

// Process handles body and then acknowledges it, whatever the outcome.
// A nil ack means the transport acknowledges on its own.
func (h *Handler) Process(ctx context.Context, body []byte, ack AckFunc) bool {
	defer func() {
		if ack != nil {
			if err := ack(ctx); err != nil {
				h.logger.ErrorContext(ctx, "failed to acknowledge request", slog.String("error", err.Error()))
				return
			}
		}
		h.metrics.Increment(metrics.ConsumerAck, 1)
	}()
	return h.Handle(ctx, body)
}

func (h *Handler) schedule(ctx context.Context, body []byte) (entry *email.Entry, err error) {
	defer func() {
		if r := recover(); r != nil {
			entry, err = nil, fmt.Errorf("inbound: panic while scheduling: %v", r)
		}
	}()

	req, params, err := Decode(body)
	if err != nil {
		return nil, err
	}
	return h.scheduler.Schedule(ctx, req.Name, req.Language, params)
}
