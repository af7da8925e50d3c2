// Package sender runs the send loop.
//
// Each pass lists the sendable entries and, in order, for every entry:
// skips it when its send time has not arrived, asks its origin (check_url)
// whether it may still be sent, re-runs the spam classifier and finally
// delivers it through the backend adapter. Failures are per entry: the
// entry is logged, counted and left for the next pass.
//
//	loop := sender.New(store, adapter,
//		sender.WithSpamChecker(classifier),
//		sender.WithOriginGate(sender.NewOriginGate(5*time.Second)),
//		sender.WithMetrics(sink),
//	)
//	sent, err := loop.RunOnce(ctx)
//
// Task adapts the loop to a periodic job.
package sender
