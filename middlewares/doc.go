// Package middlewares provides net/http middleware for the mailroom HTTP
// surface.
//
// # Request ID
//
// RequestID assigns a unique ID to each request, keeping one sent by an
// upstream proxy. Combine it with RequestIDExtractor so the ID appears in
// every log line:
//
//	log := logger.New(cfg.Log, middlewares.RequestIDExtractor())
//	r.Use(middlewares.RequestID())
//
// # Recover
//
// Recover converts panics into 500 responses and logs them with a stack trace.
//
// # Timeout
//
// Timeout puts a deadline on the request context.
package middlewares
