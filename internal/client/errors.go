package client

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// The producer and repository clients classify every failure into one of
// three kinds. Transient failures may be retried on the caller's next
// scheduled tick; the other two are surfaced as-is.

type SubmissionError struct {
	error
}

func NewSubmissionError(message string) *SubmissionError {
	return &SubmissionError{fmt.Errorf("submission rejected: %s", message)}
}

type NotFoundError struct {
	error
}

func NewNotFoundError(id uuid.UUID, resourceType string) *NotFoundError {
	return &NotFoundError{fmt.Errorf("%s %s not found", resourceType, id)}
}

type TransientError struct {
	error
}

func NewTransientError(err error) *TransientError {
	return &TransientError{fmt.Errorf("transient failure: %w", err)}
}

// IsTransient reports whether the error may succeed on a later retry.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsNotFound reports whether the error means the identifier is unknown to
// the remote side.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}
