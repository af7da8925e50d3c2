package inbound

import (
	"context"
	"encoding/json"
)

// EnqueueTaskName is the job task name for inbound requests.
const EnqueueTaskName = "enqueue_email"

// EnqueueTask receives inbound requests as background jobs. It always
// succeeds so that the job is completed and never retried.
type EnqueueTask struct {
	handler *Handler
}

// NewEnqueueTask creates an EnqueueTask.
func NewEnqueueTask(h *Handler) *EnqueueTask {
	return &EnqueueTask{handler: h}
}

func (t *EnqueueTask) Name() string { return EnqueueTaskName }

func (t *EnqueueTask) Handle(ctx context.Context, payload json.RawMessage) error {
	t.handler.Process(ctx, payload, nil)
	return nil
}
