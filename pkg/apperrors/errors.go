package apperrors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrEmptySubmission = errors.New("select at least one candidate or provide an external profile URL")
)
