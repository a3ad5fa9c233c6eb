package faces

import "errors"

var (
	// ErrNotFound is returned when a photo, face, person or collection the
	// operation refers to does not exist (or is not visible to the account).
	ErrNotFound = errors.New("not found")

	// ErrInvalidTag is returned when a tag request does not name exactly
	// one of person id and person name.
	ErrInvalidTag = errors.New("exactly one of person_id and person_name must be set")

	// ErrTooManyPhotos is returned when a bulk detection request exceeds
	// the configured batch cap.
	ErrTooManyPhotos = errors.New("too many photos in bulk request")
)
