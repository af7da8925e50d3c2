// Package mailroom wires the transactional email service together.
//
// An App owns the store, the image storage, the delivery backends and the
// pipeline built on them: the scheduler that turns inbound requests into
// entries, the send loop that renders and delivers due entries, and the
// cleanup loop that purges deleted ones. Both loops run as periodic jobs on
// River; inbound requests arrive as enqueue_email jobs or on a Redis stream.
//
//	cfg, err := config.Load("mailroom.yaml")
//	if err != nil {
//		return err
//	}
//	app, err := mailroom.Open(ctx, cfg, mailroom.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	return app.Serve(ctx)
//
// Serve exposes /health/live, /health/ready and /metrics and blocks until
// the context is cancelled or SIGINT/SIGTERM arrives.
//
// New builds an App over infrastructure supplied as options, which is how
// tests run the whole pipeline on memstore and in-memory image storage.
package mailroom
