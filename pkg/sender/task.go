package sender

import (
	"context"
	"log/slog"
)

// Task runs the loop as a scheduled job.
type Task struct {
	loop     *Loop
	schedule string
}

// NewTask creates a Task firing on schedule, a cron expression or an
// "@every <duration>" descriptor.
func NewTask(loop *Loop, schedule string) *Task {
	return &Task{loop: loop, schedule: schedule}
}

func (t *Task) Name() string     { return "send_entries" }
func (t *Task) Schedule() string { return t.schedule }

// Handle runs one pass. Per-entry failures never fail the job.
func (t *Task) Handle(ctx context.Context) error {
	n, err := t.loop.RunOnce(ctx)
	if err != nil {
		return err
	}
	t.loop.logger.DebugContext(ctx, "send task done", slog.Int("sent", n))
	return nil
}
