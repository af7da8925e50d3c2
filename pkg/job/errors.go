package job

import "errors"

// Job errors.
var (
	// ErrUnknownTask is returned for a task name nothing was registered under.
	ErrUnknownTask = errors.New("job: unknown task")

	// ErrInvalidPayload is returned when a payload does not decode into the
	// task's payload type.
	ErrInvalidPayload = errors.New("job: invalid payload")

	// ErrInvalidSchedule is returned for a scheduled task whose schedule
	// does not parse.
	ErrInvalidSchedule = errors.New("job: invalid schedule")

	ErrAlreadyStarted = errors.New("job: already started")
	ErrNotStarted     = errors.New("job: not started")
	ErrPoolRequired   = errors.New("job: pool is required")
)
