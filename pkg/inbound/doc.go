// Package inbound accepts scheduling requests from outside the process.
//
// A request is a JSON object carrying at least "name" and "language"; the
// whole object is decoded as the scheduling params, so every params field
// sits next to them:
//
//	{"name": "welcome-user", "language": "en", "recipients": ["ana@example.com"],
//	 "context": {"first_name": "Ana"}}
//
// Handler processes one request. It never fails: errors are logged and
// counted, and the request is acknowledged regardless so that a bad
// message is dropped instead of redelivered forever. Two transports feed
// it: StreamConsumer reads a Redis stream through a consumer group and
// EnqueueTask receives requests enqueued as background jobs.
package inbound
