package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/mailroom/pkg/email"
	"github.com/dmitrymomot/mailroom/pkg/logger"
)

// EntryCreator stores new entries with their attachments atomically.
type EntryCreator interface {
	CreateEntry(ctx context.Context, entry *email.Entry, attachments []*email.Attachment) error
}

// BackendChecker reports whether a delivery backend is registered.
type BackendChecker interface {
	Has(name string) bool
}

// Generator validates scheduling params against a kind and stores the
// resulting entry.
type Generator struct {
	entries  EntryCreator
	backends BackendChecker
	logger   *slog.Logger
	now      func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithGeneratorLogger sets the generator logger.
func WithGeneratorLogger(l *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithBackends sets the registry used to validate backend overrides.
// Without it every backend override is rejected.
func WithBackends(b BackendChecker) GeneratorOption {
	return func(g *Generator) {
		g.backends = b
	}
}

// WithGeneratorClock overrides the time source for the scheduled timestamp.
func WithGeneratorClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGenerator creates a Generator writing to entries.
func NewGenerator(entries EntryCreator, opts ...GeneratorOption) *Generator {
	g := &Generator{
		entries: entries,
		logger:  logger.NewNope(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate validates kind and params and stores a new entry. Both checks run
// before anything is decoded or written.
func (g *Generator) Generate(ctx context.Context, kind *email.Kind, params email.Params) (*email.Entry, error) {
	if err := checkKind(kind); err != nil {
		g.reject(ctx, kind, params, err)
		return nil, err
	}
	if err := g.checkParams(kind, params); err != nil {
		g.reject(ctx, kind, params, err)
		return nil, err
	}

	files, err := decodeAttachments(kind, params)
	if err != nil {
		g.reject(ctx, kind, params, err)
		return nil, err
	}

	entry := resolve(kind, params)
	entry.ScheduledAt = g.now().UTC()

	if err := g.entries.CreateEntry(ctx, entry, files); err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrCreateEntry, kind, err)
	}

	g.logger.InfoContext(logger.WithEntryID(ctx, entry.ID), "entry scheduled",
		slog.String("kind", kind.String()),
		slog.String("customer_id", entry.CustomerID),
		slog.Int("attachments", len(files)),
	)
	return entry, nil
}

func (g *Generator) reject(ctx context.Context, kind *email.Kind, params email.Params, err error) {
	name := "<nil>"
	if kind != nil {
		name = kind.String()
	}
	g.logger.ErrorContext(ctx, "kind is not well formed or was badly called",
		slog.String("kind", name),
		slog.Any("params", redact(params)),
		slog.String("error", err.Error()),
	)
}

func checkKind(kind *email.Kind) error {
	if kind == nil {
		return fmt.Errorf("%w: no kind", email.ErrValidation)
	}
	if len(strings.TrimSpace(kind.Name)) < email.MinNameLength {
		return fmt.Errorf("%w: kind %s: too short name", email.ErrValidation, kind)
	}
	if strings.TrimSpace(kind.Template) == "" {
		return fmt.Errorf("%w: kind %s: empty template", email.ErrValidation, kind)
	}
	if strings.TrimSpace(kind.PlainTemplate) == "" {
		return fmt.Errorf("%w: kind %s: empty plain template", email.ErrValidation, kind)
	}
	return nil
}

func (g *Generator) checkParams(kind *email.Kind, params email.Params) error {
	if kind.DefaultSender == "" && strings.TrimSpace(params.Sender) == "" {
		return fmt.Errorf("%w: kind %s: sender never specified", email.ErrValidation, kind)
	}
	if kind.DefaultRecipients == "" && len(nonBlank(params.Recipients)) == 0 {
		return fmt.Errorf("%w: kind %s: recipients never specified", email.ErrValidation, kind)
	}
	if kind.DefaultSubject == "" && strings.TrimSpace(params.Subject) == "" {
		return fmt.Errorf("%w: kind %s: subject never specified", email.ErrValidation, kind)
	}
	if params.Backend != nil {
		if g.backends == nil || !g.backends.Has(*params.Backend) {
			return fmt.Errorf("%w: kind %s: backend %q not known", email.ErrValidation, kind, *params.Backend)
		}
	}
	return nil
}

func decodeAttachments(kind *email.Kind, params email.Params) ([]*email.Attachment, error) {
	files := make([]*email.Attachment, 0, len(params.Attachments))
	for _, a := range params.Attachments {
		data, contentType, err := a.Decode()
		if err != nil {
			return nil, err
		}
		files = append(files, &email.Attachment{
			Name:        a.Filename,
			Path:        email.AttachmentName(kind, params.CustomerID, a.Filename),
			ContentType: contentType,
			Content:     data,
		})
	}
	return files, nil
}

// resolve applies the explicit-override-wins precedence. The context is
// replaced as a whole, never merged with the kind defaults.
func resolve(kind *email.Kind, params email.Params) *email.Entry {
	entry := &email.Entry{
		Kind:       kind,
		KindID:     kind.ID,
		CustomerID: params.CustomerID,
		Context:    params.Context,
		Sender:     or(params.Sender, kind.DefaultSender),
		Recipients: or(strings.Join(nonBlank(params.Recipients), ","), kind.DefaultRecipients),
		Subject:    or(params.Subject, kind.DefaultSubject),
		ReplyTo:    or(strings.Join(nonBlank(params.ReplyTo), ","), kind.DefaultReplyTo),
		SendAt:     params.SendAt,
		CheckURL:   params.CheckURL,
		Metadata:   params.MetaFields,
	}
	if len(entry.Context) == 0 {
		entry.Context = kind.DefaultContext
	}
	if params.Backend != nil {
		entry.Backend = *params.Backend
	}
	if entry.Metadata == nil {
		entry.Metadata = map[string]any{}
	}
	return entry
}

func or(override, fallback string) string {
	if strings.TrimSpace(override) != "" {
		return strings.TrimSpace(override)
	}
	return fallback
}

func nonBlank(addrs []string) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// redact drops attachment payloads from logged params.
func redact(params email.Params) email.Params {
	if len(params.Attachments) == 0 {
		return params
	}
	files := make([]email.AttachmentParam, len(params.Attachments))
	for i, a := range params.Attachments {
		files[i] = email.AttachmentParam{Filename: a.Filename, ContentType: a.ContentType}
	}
	params.Attachments = files
	return params
}
