package logger

import "log/slog"

// NewNope returns a logger that drops every record. Components start with it
// until a logger is passed through their options.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
