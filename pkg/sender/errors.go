package sender

import "errors"

var (
	// ErrListEntries is returned when the sendable entries cannot be listed.
	ErrListEntries = errors.New("sender: list sendable entries")

	// ErrOriginCheck is returned when the origin of an entry cannot be asked.
	ErrOriginCheck = errors.New("sender: origin check failed")
)
