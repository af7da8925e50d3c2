package render

import "log/slog"

const (
	defaultContentIDDomain = "mailroom.local"
	defaultLanguage        = "es"
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used to report render failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithImageStore sets where assigned content ids are persisted.
// Without it, content ids are only set on the in-memory image.
func WithImageStore(s ImageStore) Option {
	return func(r *Renderer) {
		r.images = s
	}
}

// WithImageLocator sets how images resolve to URLs in test renders.
func WithImageLocator(l ImageLocator) Option {
	return func(r *Renderer) {
		r.locator = l
	}
}

// WithMinify enables HTML minification of kind renders.
func WithMinify(enabled bool) Option {
	return func(r *Renderer) {
		r.minify = enabled
	}
}

// WithContentIDDomain sets the domain part of generated content ids.
func WithContentIDDomain(domain string) Option {
	return func(r *Renderer) {
		if domain != "" {
			r.domain = domain
		}
	}
}

// WithLanguage sets the default language of locale-aware template functions.
func WithLanguage(lang string) Option {
	return func(r *Renderer) {
		if lang != "" {
			r.language = lang
		}
	}
}
