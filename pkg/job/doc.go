// Package job runs mailroom's background work on River, a PostgreSQL-backed
// job queue.
//
// Every task shares one River job kind and is dispatched by name, so
// registering a task is a single option:
//
//	m, err := job.NewManager(pool,
//		job.WithLogger(log),
//		job.WithTask[json.RawMessage](inbound.NewEnqueueTask(handler)),
//		job.WithScheduledTask(sender.NewTask(loop, "@every 1m")),
//		job.WithScheduledTask(cleaner.NewTask(c, "0 3 * * *")),
//	)
//
// Payload types are inferred from each task's Handle signature and decoded
// from JSON. A json.RawMessage payload is passed through untouched.
//
// Scheduled tasks accept 5-field cron expressions and descriptors such as
// "@every 30s". They run on ScheduledQueue, which has a single worker, and are
// not retried: the next tick is the retry.
//
// Enqueuer is the insert-only half, used by processes that hand work to a
// running manager.
package job
