package service

import "errors"

// Errors raised synchronously by the mutating and read operations.
// Asynchronous transcoding failures are never surfaced as errors; they
// are recorded on the video as status file-error.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
)
