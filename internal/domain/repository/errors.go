package repository

import "errors"

var (
	// ErrLinkNotFound is returned when no entry exists for a link identifier.
	ErrLinkNotFound = errors.New("link not found")

	// ErrBadReference is returned when a caller-supplied content reference
	// matches no recognized form.
	ErrBadReference = errors.New("unrecognized content reference")

	// ErrContentNotFound is returned when the origin has no content for a
	// resolved reference.
	ErrContentNotFound = errors.New("content not found on origin")

	// ErrOriginUnavailable is returned when the origin could not be reached
	// or answered with an unusable response.
	ErrOriginUnavailable = errors.New("origin unavailable")
)
