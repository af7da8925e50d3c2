// Package logger builds the service's slog loggers.
//
// Records are written as JSON (or text) to stdout and, when a Sentry DSN is
// configured, forwarded to Sentry: errors become issues, warnings are kept as
// searchable logs.
//
// Context extractors add request-scoped attributes on every call. The service
// uses two of them:
//
//	ctx = logger.WithEntryID(ctx, entry.ID)
//	ctx = logger.WithMessageID(ctx, msg.ID)
//
//	log := logger.NewWithSentry(cfg, logger.Extractors()...)
//	logger.Component(log, "sender").InfoContext(ctx, "entry delivered")
//	// {"level":"INFO","msg":"entry delivered","component":"sender","entry_id":"01HX..."}
//
// NewNope returns a logger that discards everything, the default for
// components constructed without one.
package logger
