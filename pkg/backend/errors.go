package backend

import "errors"

var (
	// ErrUnknownBackend is returned when an entry names a backend that is not registered.
	ErrUnknownBackend = errors.New("backend: unknown backend")

	// ErrDeliveryFailed wraps transport failures. The entry is left untouched
	// and stays eligible for the next send pass.
	ErrDeliveryFailed = errors.New("backend: delivery failed")

	// ErrCompose is returned when a message cannot be built from an entry.
	ErrCompose = errors.New("backend: failed to compose message")
)
