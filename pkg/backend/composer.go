package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strings"

	"github.com/dmitrymomot/mailroom/pkg/email"
	"github.com/dmitrymomot/mailroom/pkg/metrics"
	"github.com/dmitrymomot/mailroom/pkg/render"
)

// Renderer renders entry templates.
type Renderer interface {
	RenderHTML(ctx context.Context, src render.Source, overrides map[string]any, opts render.HTMLOptions) (string, error)
	RenderPlain(ctx context.Context, src render.Source, overrides map[string]any) (string, error)
}

// ObjectGetter reads stored image bytes.
type ObjectGetter interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// AttachmentLoader returns the files attached to an entry.
type AttachmentLoader interface {
	EntryAttachments(ctx context.Context, entryID string) ([]*email.Attachment, error)
}

// Composer turns a stored entry into a Message.
type Composer struct {
	renderer    Renderer
	objects     ObjectGetter
	attachments AttachmentLoader
	metrics     metrics.Sink
	logger      *slog.Logger
	domain      string
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithComposerLogger sets the composer logger.
func WithComposerLogger(l *slog.Logger) ComposerOption {
	return func(c *Composer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithComposerMetrics sets the metrics sink.
func WithComposerMetrics(m metrics.Sink) ComposerOption {
	return func(c *Composer) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithMessageIDDomain sets the domain used in generated Message-ID headers.
func WithMessageIDDomain(domain string) ComposerOption {
	return func(c *Composer) {
		if domain != "" {
			c.domain = domain
		}
	}
}

// NewComposer creates a Composer.
func NewComposer(r Renderer, objects ObjectGetter, attachments AttachmentLoader, opts ...ComposerOption) *Composer {
	c := &Composer{
		renderer:    r,
		objects:     objects,
		attachments: attachments,
		metrics:     metrics.Nop{},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		domain:      "mailroom.local",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose renders the entry and assembles the outgoing message.
// Plain text is rendered before HTML. Only images whose content id appears
// in the rendered HTML are attached inline.
func (c *Composer) Compose(ctx context.Context, entry *email.Entry) (*Message, error) {
	if entry.Kind == nil {
		return nil, fmt.Errorf("%w: entry %s has no kind", ErrCompose, entry.ID)
	}

	text, err := c.renderer.RenderPlain(ctx, entry.Kind, entry.Context)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompose, err)
	}
	html, err := c.renderer.RenderHTML(ctx, entry.Kind, entry.Context, render.HTMLOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompose, err)
	}

	msg := &Message{
		MessageID: fmt.Sprintf("<%s@%s>", entry.ID, c.domain),
		From:      entry.Sender,
		Subject:   entry.Subject,
		HTML:      html,
		Text:      text,
		To:        entry.RecipientList(),
		ReplyTo:   entry.ReplyToList(),
		Metadata:  entryMetadata(entry),
	}

	for _, img := range entry.Kind.AllImages() {
		cid := img.StrippedContentID()
		if cid == "" || !strings.Contains(html, cid) {
			continue
		}
		inline, err := c.inlineImage(ctx, img)
		if err != nil {
			return nil, err
		}
		msg.Inline = append(msg.Inline, inline)
	}

	if c.attachments != nil {
		files, err := c.attachments.EntryAttachments(ctx, entry.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: load attachments: %w", ErrCompose, err)
		}
		for _, f := range files {
			msg.Attachments = append(msg.Attachments, Attachment{
				Filename:    f.Name,
				ContentType: f.ContentType,
				Content:     f.Content,
			})
			c.metrics.Increment(metrics.SendAttachments, 1)
		}
	}

	return msg, nil
}

func (c *Composer) inlineImage(ctx context.Context, img *email.Image) (Attachment, error) {
	if c.objects == nil {
		return Attachment{}, fmt.Errorf("%w: no object storage for image %s", ErrCompose, img.Placeholder)
	}
	rc, err := c.objects.Get(ctx, img.StorageKey)
	if err != nil {
		return Attachment{}, fmt.Errorf("%w: fetch image %s: %w", ErrCompose, img.StorageKey, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return Attachment{}, fmt.Errorf("%w: read image %s: %w", ErrCompose, img.StorageKey, err)
	}

	c.logger.DebugContext(ctx, "attaching inline image",
		slog.String("placeholder", img.Placeholder),
		slog.String("content_id", img.StrippedContentID()),
	)

	return Attachment{
		Filename:    img.Filename(),
		ContentType: img.ContentType,
		ContentID:   img.StrippedContentID(),
		Content:     data,
	}, nil
}

func entryMetadata(entry *email.Entry) map[string]any {
	md := map[string]any{
		"customer_id": entry.CustomerID,
		"kind":        entry.Kind.String(),
		"email_id":    entry.ID,
	}
	maps.Copy(md, entry.Metadata)
	return md
}
