package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/dmitrymomot/mailroom/pkg/email"
)

// Source is anything that can be rendered: a kind or a fragment.
type Source interface {
	Identity() string
	HTMLTemplate() (string, error)
	PlainTextTemplate() (string, error)
	Defaults() map[string]any
	Meta() map[string]any
	OwnImages() []*email.Image
}

// fragmentSource is implemented by sources that embed fragments.
type fragmentSource interface {
	FragmentsFor(plain bool) []*email.Fragment
}

// ImageStore persists content ids assigned to images.
type ImageStore interface {
	// AssignContentID stores candidate as the image content id unless one is
	// already set, and returns the content id in effect.
	AssignContentID(ctx context.Context, img *email.Image, candidate string) (string, error)
}

// ImageLocator resolves a stored image to a browsable URL.
type ImageLocator interface {
	URL(ctx context.Context, key string) (string, error)
}

// HTMLOptions controls a single HTML render.
type HTMLOptions struct {
	// Test rewrites image placeholders to storage URLs instead of content ids.
	Test bool
	// SkipMinify disables minification for this call.
	SkipMinify bool
}

// Renderer renders kinds and fragments into HTML and plain text.
type Renderer struct {
	images   ImageStore
	locator  ImageLocator
	logger   *slog.Logger
	htmlFns  template.FuncMap
	textFns  texttemplate.FuncMap
	htmlTpls map[string]*template.Template
	textTpls map[string]*texttemplate.Template
	domain   string
	language string
	minify   bool

	mu sync.RWMutex
}

// New creates a renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		domain:   defaultContentIDDomain,
		language: defaultLanguage,
		htmlTpls: make(map[string]*template.Template),
		textTpls: make(map[string]*texttemplate.Template),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.htmlFns = htmlFuncs(r.language)
	r.textFns = textFuncs(r.language)
	return r
}

// RenderHTML renders the HTML template of src with the given overrides.
// Images referenced as src="cid:<placeholder>" are rewritten, which may
// assign and persist a content id on the image.
func (r *Renderer) RenderHTML(ctx context.Context, src Source, overrides map[string]any, opts HTMLOptions) (string, error) {
	out, err := r.renderHTML(ctx, src, overrides, opts)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to render html template",
			slog.String("source", src.Identity()),
			slog.Any("context", overrides),
			slog.Any("error", err),
		)
		return "", fmt.Errorf("%w: %s: %w", ErrRenderFailed, src.Identity(), err)
	}
	return out, nil
}

// RenderPlain renders the plain text template of src with the given overrides.
func (r *Renderer) RenderPlain(ctx context.Context, src Source, overrides map[string]any) (string, error) {
	out, err := r.renderPlain(src, overrides)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to render plain template",
			slog.String("source", src.Identity()),
			slog.Any("context", overrides),
			slog.Any("error", err),
		)
		return "", fmt.Errorf("%w: %s: %w", ErrRenderFailed, src.Identity(), err)
	}
	return out, nil
}

func (r *Renderer) renderHTML(ctx context.Context, src Source, overrides map[string]any, opts HTMLOptions) (string, error) {
	body, err := src.HTMLTemplate()
	if err != nil {
		return "", err
	}

	data := EffectiveContext(src, overrides)
	if fs, ok := src.(fragmentSource); ok {
		fragments := make(map[string]any)
		for _, f := range fs.FragmentsFor(false) {
			out, err := r.renderHTML(ctx, f, data, HTMLOptions{Test: opts.Test, SkipMinify: true})
			if err != nil {
				return "", fmt.Errorf("fragment %s: %w", f.Name, err)
			}
			fragments[f.Name] = template.HTML(out) //nolint:gosec // rendered by html/template
		}
		data["fragments"] = fragments
	}

	tmpl, err := r.htmlTemplate(body)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	out, err := r.EmbedImages(ctx, buf.String(), src.OwnImages(), opts.Test)
	if err != nil {
		return "", err
	}

	if r.minify && !opts.SkipMinify {
		return Minify(out)
	}
	return out, nil
}

func (r *Renderer) renderPlain(src Source, overrides map[string]any) (string, error) {
	body, err := src.PlainTextTemplate()
	if err != nil {
		return "", err
	}

	data := EffectiveContext(src, overrides)
	if fs, ok := src.(fragmentSource); ok {
		fragments := make(map[string]any)
		for _, f := range fs.FragmentsFor(true) {
			out, err := r.renderPlain(f, data)
			if err != nil {
				return "", fmt.Errorf("fragment %s: %w", f.Name, err)
			}
			fragments[f.Name] = out
		}
		data["fragments"] = fragments
	}

	tmpl, err := r.textTemplate(body)
	if err != nil {
		return "", err
	}
	if tmpl.Tree != nil {
		for _, path := range printedFields(tmpl.Tree.Root) {
			fillMissing(data, path)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// EmbedImages rewrites src="cid:<placeholder>" references of the given images.
// In test mode the reference becomes the image storage URL. Otherwise it
// becomes the image content id without delimiters; images without a content
// id get one assigned and persisted first.
func (r *Renderer) EmbedImages(ctx context.Context, html string, images []*email.Image, test bool) (string, error) {
	for _, img := range images {
		placeholder := `src="cid:` + img.Placeholder + `"`

		var replacement string
		if test {
			if r.locator == nil {
				return "", ErrNoImageLocator
			}
			url, err := r.locator.URL(ctx, img.StorageKey)
			if err != nil {
				return "", fmt.Errorf("image %s: %w", img.Placeholder, err)
			}
			replacement = `src="` + url + `"`
		} else {
			if img.ContentID == "" {
				if err := r.assignContentID(ctx, img); err != nil {
					return "", err
				}
			}
			replacement = `src="cid:` + img.StrippedContentID() + `"`
		}

		html = strings.ReplaceAll(html, placeholder, replacement)
	}
	return html, nil
}

func (r *Renderer) assignContentID(ctx context.Context, img *email.Image) error {
	candidate := NewContentID(img.Placeholder, r.domain)
	if r.images == nil {
		img.ContentID = candidate
		return nil
	}
	cid, err := r.images.AssignContentID(ctx, img, candidate)
	if err != nil {
		return fmt.Errorf("image %s: assign content id: %w", img.Placeholder, err)
	}
	img.ContentID = cid
	return nil
}

// NewContentID builds a message-id style content id: <ULID.placeholder@domain>.
func NewContentID(placeholder, domain string) string {
	return "<" + email.NewID() + "." + placeholder + "@" + domain + ">"
}

func (r *Renderer) htmlTemplate(body string) (*template.Template, error) {
	r.mu.RLock()
	if t, ok := r.htmlTpls[body]; ok {
		r.mu.RUnlock()
		return t, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.htmlTpls[body]; ok {
		return t, nil
	}

	t, err := template.New("html").Funcs(r.htmlFns).Parse(body)
	if err != nil {
		return nil, err
	}
	r.htmlTpls[body] = t
	return t, nil
}

func (r *Renderer) textTemplate(body string) (*texttemplate.Template, error) {
	r.mu.RLock()
	if t, ok := r.textTpls[body]; ok {
		r.mu.RUnlock()
		return t, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.textTpls[body]; ok {
		return t, nil
	}

	t, err := texttemplate.New("plain").Funcs(r.textFns).Parse(body)
	if err != nil {
		return nil, err
	}
	r.textTpls[body] = t
	return t, nil
}
