// Package internal holds the process runtime of the mailroom binary.
//
// RunServer serves an http.Handler next to blocking background runners
// (the inbound stream consumer) and brackets them with startup hooks (the job
// manager) and shutdown hooks (stopping workers, closing pools). It stops on
// SIGINT, SIGTERM, cancellation of the base context, or the first runner
// failure.
package internal
