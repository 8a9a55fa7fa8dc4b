package reconcile

import "errors"

var (
	// ErrListFailed is returned when the metadata rows could not be listed.
	// Nothing was checked or deleted.
	ErrListFailed = errors.New("failed to list metadata records")

	// ErrAborted is returned when processing stopped on an unexpected
	// failure. The accompanying report covers the records handled so far.
	ErrAborted = errors.New("reconcile run aborted")
)
