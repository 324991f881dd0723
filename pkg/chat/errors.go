package chat

import (
	"errors"
)

var (
	// ErrNotFound is returned when a referenced message does not exist.
	ErrNotFound = errors.New("message not found")

	// ErrForbidden is returned when the requester is not allowed to perform
	// the operation, e.g. delete-for-everyone by a non-sender.
	ErrForbidden = errors.New("operation not permitted")

	// ErrInvalidInput is returned for requests missing required fields.
	ErrInvalidInput = errors.New("invalid input")
)
