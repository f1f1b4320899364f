package repository

import "errors"

// Sentinel errors returned by the repositories. Callers match them with
// errors.Is to map persistence outcomes to their own error handling.
var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("price version conflict")
)
