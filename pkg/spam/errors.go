package spam

import "errors"

// ErrUnknownCheck is returned when configuration names a check that does not exist.
var ErrUnknownCheck = errors.New("spam: unknown check")
