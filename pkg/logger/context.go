package logger

import (
	"context"
	"log/slog"
)

type (
	entryIDKey   struct{}
	messageIDKey struct{}
)

// WithEntryID stores the id of the entry being processed in ctx.
func WithEntryID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, entryIDKey{}, id)
}

// WithMessageID stores the id of the inbound message being processed in ctx.
func WithMessageID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, messageIDKey{}, id)
}

// EntryIDExtractor adds "entry_id" to records logged with a context from WithEntryID.
func EntryIDExtractor() ContextExtractor {
	return stringExtractor(entryIDKey{}, "entry_id")
}

// MessageIDExtractor adds "message_id" to records logged with a context from WithMessageID.
func MessageIDExtractor() ContextExtractor {
	return stringExtractor(messageIDKey{}, "message_id")
}

// Extractors returns every extractor the service uses.
func Extractors() []ContextExtractor {
	return []ContextExtractor{EntryIDExtractor(), MessageIDExtractor()}
}

func stringExtractor(key any, attr string) ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			return slog.String(attr, v), true
		}
		return slog.Attr{}, false
	}
}

// Component returns a child logger tagged with the component name.
func Component(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = NewNope()
	}
	return l.With(slog.String("component", name))
}
