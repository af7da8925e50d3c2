package email

import "errors"

var (
	// ErrValidation is returned when params or a kind are malformed.
	ErrValidation = errors.New("email: validation failed")

	// ErrKindNotFound is returned when no kind matches a name and language.
	ErrKindNotFound = errors.New("email: kind not found")

	// ErrEntryNotFound is returned when an entry id is unknown.
	ErrEntryNotFound = errors.New("email: entry not found")

	// ErrWrongFragmentMode is returned when a fragment is read in the wrong mode.
	ErrWrongFragmentMode = errors.New("email: wrong fragment mode")
)
