package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dmitrymomot/mailroom/pkg/email"
)

const defaultSendTimeout = 30 * time.Second

// EntryStore persists the outcome of a delivery attempt.
type EntryStore interface {
	// SaveDelivery writes the delivery fields of an entry (sent flag, sent
	// time, rendered bodies, provider id, reject reason, spam flag).
	SaveDelivery(ctx context.Context, entry *email.Entry) error
}

// Adapter hands messages to the backend chosen by each entry and records
// the outcome on the entry.
type Adapter struct {
	registry *Registry
	store    EntryStore
	composer *Composer
	logger   *slog.Logger
	now      func() time.Time
	timeout  time.Duration
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithAdapterLogger sets the adapter logger.
func WithAdapterLogger(l *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock overrides the time source used for the sent timestamp.
func WithClock(now func() time.Time) AdapterOption {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// WithComposer sets the composer used by Deliver.
func WithComposer(c *Composer) AdapterOption {
	return func(a *Adapter) {
		a.composer = c
	}
}

// WithSendTimeout bounds every transport call.
func WithSendTimeout(d time.Duration) AdapterOption {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAdapter creates an Adapter.
func NewAdapter(registry *Registry, store EntryStore, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		registry: registry,
		store:    store,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		timeout:  defaultSendTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SendWithBackend delivers msg through the entry's backend, or the default one.
//
// On acceptance the entry is marked sent with the rendered bodies stored.
// On rejection the provider's verdict is recorded. Either way the entry is
// persisted exactly once. Transport failures return ErrDeliveryFailed and
// leave the entry unchanged.
func (a *Adapter) SendWithBackend(ctx context.Context, msg *Message, entry *email.Entry) (bool, error) {
	name := a.registry.Resolve(entry.Backend)
	b, err := a.registry.Lookup(name)
	if err != nil {
		return false, err
	}

	sendCtx, cancel := context.WithTimeout(ctx, a.timeout)
	raw, err := b.Transport.Send(sendCtx, msg)
	cancel()
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrDeliveryFailed, name, err)
	}

	ok := b.Interpreter.Interpret(raw, entry)
	if ok {
		sentAt := a.now().UTC()
		entry.Sent = true
		entry.SentAt = &sentAt
		entry.RenderedHTML = msg.HTML
		entry.RenderedPlain = msg.Text
	} else {
		a.logger.ErrorContext(ctx, "email rejected by backend",
			slog.String("entry_id", entry.ID),
			slog.String("backend", name),
			slog.String("thirdparty_id", entry.ThirdpartyID),
			slog.String("reject_reason", entry.ThirdpartyReject),
			slog.Bool("is_spam", entry.IsSpam),
		)
	}

	if err := a.store.SaveDelivery(ctx, entry); err != nil {
		return ok, fmt.Errorf("save delivery of entry %s: %w", entry.ID, err)
	}

	return ok, nil
}

// Deliver composes the entry and sends it with SendWithBackend.
func (a *Adapter) Deliver(ctx context.Context, entry *email.Entry) (bool, error) {
	if a.composer == nil {
		return false, fmt.Errorf("%w: adapter has no composer", ErrCompose)
	}
	msg, err := a.composer.Compose(ctx, entry)
	if err != nil {
		return false, err
	}
	return a.SendWithBackend(ctx, msg, entry)
}
