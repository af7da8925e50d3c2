package spam

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/dmitrymomot/mailroom/pkg/email"
)

// Check reports whether an entry looks like spam. Checks must not mutate the entry.
type Check func(ctx context.Context, entry *email.Entry) bool

// Classifier runs the checks configured for an entry's kind.
type Classifier struct {
	checks map[string][]Check
	logger *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger used to report positive classifications.
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithChecks registers an ordered list of checks for a kind name.
func WithChecks(kind string, checks ...Check) Option {
	return func(c *Classifier) {
		c.checks[kind] = append(c.checks[kind], checks...)
	}
}

// New creates a Classifier.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		checks: make(map[string][]Check),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromConfig builds a Classifier from kind name to check name lists,
// resolving the names against the built-in checks.
func FromConfig(cfg map[string][]string, opts ...Option) (*Classifier, error) {
	builtins := Builtins()
	for kind, names := range cfg {
		for _, name := range names {
			check, ok := builtins[name]
			if !ok {
				return nil, fmt.Errorf("%w: %s (kind %s)", ErrUnknownCheck, name, kind)
			}
			opts = append(opts, WithChecks(kind, check))
		}
	}
	return New(opts...), nil
}

// IsSpam evaluates the checks of the entry's kind in order and stops at the
// first positive one. A kind without checks is never spam.
func (c *Classifier) IsSpam(ctx context.Context, entry *email.Entry) bool {
	if entry.Kind == nil {
		return false
	}
	for i, check := range c.checks[entry.Kind.Name] {
		if check(ctx, entry) {
			c.logger.InfoContext(ctx, "entry classified as spam",
				slog.String("entry_id", entry.ID),
				slog.String("kind", entry.Kind.String()),
				slog.Int("check", i),
			)
			return true
		}
	}
	return false
}

// Builtins returns the named checks available to configuration.
func Builtins() map[string]Check {
	return map[string]Check{
		"has_href":   HasHref,
		"has_markup": HasMarkup,
	}
}

// HasHref reports entries with "href" in any string context value.
func HasHref(_ context.Context, entry *email.Entry) bool {
	return anyString(entry.Context, func(s string) bool {
		return strings.Contains(s, "href")
	})
}

var strict = bluemonday.StrictPolicy()

// HasMarkup reports entries whose string context values contain HTML markup.
func HasMarkup(_ context.Context, entry *email.Entry) bool {
	return anyString(entry.Context, func(s string) bool {
		if !strings.ContainsRune(s, '<') {
			return false
		}
		return html.UnescapeString(strict.Sanitize(s)) != html.UnescapeString(s)
	})
}

func anyString(ctx map[string]any, fn func(string) bool) bool {
	for _, v := range ctx {
		switch val := v.(type) {
		case string:
			if fn(val) {
				return true
			}
		case map[string]any:
			if anyString(val, fn) {
				return true
			}
		case []any:
			for _, item := range val {
				if s, ok := item.(string); ok && fn(s) {
					return true
				}
			}
		}
	}
	return false
}
