package render

import "errors"

var (
	// ErrRenderFailed wraps any template parse or execution failure.
	ErrRenderFailed = errors.New("render: failed to render template")

	// ErrNoImageLocator is returned by test renders of sources with images
	// when the renderer has no way to resolve image URLs.
	ErrNoImageLocator = errors.New("render: image locator not configured")
)
