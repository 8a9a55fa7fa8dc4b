package records

import "errors"

var (
	ErrMetadataNotFound = errors.New("metadata not found")
	ErrImageNotFound    = errors.New("image not found")
	ErrTokenNotFound    = errors.New("token not found")

	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("record already exists")
)
