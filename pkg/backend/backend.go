package backend

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/dmitrymomot/mailroom/pkg/email"
)

// Message is a fully composed email ready for a transport.
type Message struct {
	Metadata    map[string]any
	MessageID   string
	From        string
	Subject     string
	HTML        string
	Text        string
	To          []string
	ReplyTo     []string
	Inline      []Attachment
	Attachments []Attachment
}

// Attachment is a file carried by a message. Inline attachments have a ContentID.
type Attachment struct {
	Filename    string
	ContentType string
	ContentID   string
	Content     []byte
}

// Transport delivers a message and returns the provider's raw response.
// An error means the provider could not be reached or failed transiently;
// definitive rejections are reported through the raw response.
type Transport interface {
	Send(ctx context.Context, msg *Message) (any, error)
}

// Interpreter reads a provider response, records provider identifiers and
// rejections on the entry, and reports whether the message was accepted.
type Interpreter interface {
	Interpret(raw any, entry *email.Entry) bool
}

// InterpreterFunc adapts a function to the Interpreter interface.
type InterpreterFunc func(raw any, entry *email.Entry) bool

func (f InterpreterFunc) Interpret(raw any, entry *email.Entry) bool {
	return f(raw, entry)
}

// Backend pairs a transport with the interpreter of its responses.
type Backend struct {
	Transport   Transport
	Interpreter Interpreter
}

// Registry is the static set of configured backends.
type Registry struct {
	backends map[string]Backend
	fallback string
}

// NewRegistry creates a registry whose default backend is fallback.
func NewRegistry(fallback string) *Registry {
	return &Registry{
		backends: make(map[string]Backend),
		fallback: fallback,
	}
}

// Register adds a named backend.
func (r *Registry) Register(name string, t Transport, i Interpreter) *Registry {
	r.backends[name] = Backend{Transport: t, Interpreter: i}
	return r
}

// Default returns the name of the default backend.
func (r *Registry) Default() string {
	return r.fallback
}

// Has reports whether a backend is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.backends[name]
	return ok
}

// Names returns the registered backend names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.backends))
}

// Resolve returns the backend name to use for a requested name.
func (r *Registry) Resolve(name string) string {
	if name == "" {
		return r.fallback
	}
	return name
}

// Lookup returns the backend registered under name.
func (r *Registry) Lookup(name string) (Backend, error) {
	b, ok := r.backends[name]
	if !ok {
		return Backend{}, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return b, nil
}
