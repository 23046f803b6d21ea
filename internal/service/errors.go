package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrJobNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "job")
}

func NewErrAssignmentNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "assignment")
}

type ErrReaderNotFound struct {
	error
}

func NewErrReaderNotFound(username string) *ErrReaderNotFound {
	return &ErrReaderNotFound{fmt.Errorf("reader %s not found or inactive", username)}
}

// ErrJobNotAvailable covers both halves of the availability invariant: the
// job is not completed, or it already has an active assignment.
type ErrJobNotAvailable struct {
	error
}

func NewErrJobNotCompleted(jobID uuid.UUID) *ErrJobNotAvailable {
	return &ErrJobNotAvailable{fmt.Errorf("job %s has not completed; only completed jobs can be assigned", jobID)}
}

func NewErrJobAlreadyAssigned(jobID uuid.UUID) *ErrJobNotAvailable {
	return &ErrJobNotAvailable{fmt.Errorf("job %s already has an active assignment", jobID)}
}
