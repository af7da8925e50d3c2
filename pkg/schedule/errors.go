package schedule

import "errors"

// ErrCreateEntry is returned when the store refuses a valid entry.
var ErrCreateEntry = errors.New("schedule: create entry")
