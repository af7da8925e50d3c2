package inbound

import "errors"

var (
	// ErrMalformedRequest is logged when a request body is not a valid request.
	ErrMalformedRequest = errors.New("inbound: malformed request")

	// ErrEmptyPayload is returned when publishing an empty request.
	ErrEmptyPayload = errors.New("inbound: empty payload")
)
