package v1alpha1

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentStatus is the workflow state of a reader assignment.
// Completed and Skipped are terminal.
type AssignmentStatus string

const (
	AssignmentStatusAssigned       AssignmentStatus = "assigned"
	AssignmentStatusInProgress     AssignmentStatus = "in_progress"
	AssignmentStatusAudioSubmitted AssignmentStatus = "audio_submitted"
	AssignmentStatusCompleted      AssignmentStatus = "completed"
	AssignmentStatusSkipped        AssignmentStatus = "skipped"
)

// IsTerminal reports whether the assignment can undergo no further transition.
func (s AssignmentStatus) IsTerminal() bool {
	return s == AssignmentStatusCompleted || s == AssignmentStatusSkipped
}

// AssignmentType distinguishes the kind of reader work.
type AssignmentType string

const (
	AssignmentTypeRecord   AssignmentType = "record"
	AssignmentTypeEvaluate AssignmentType = "evaluate"
	AssignmentTypeReview   AssignmentType = "review"
)

// Assignment priorities. Higher is more urgent.
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
)

// Assignment is one unit of reader work derived from a completed job.
// Blocked and BlockedReason are computed at read time by the admission
// engine and are never persisted.
type Assignment struct {
	ID             uuid.UUID        `json:"id"`
	JobID          uuid.UUID        `json:"jobId"`
	AssignedTo     string           `json:"assignedTo"`
	AssignedBy     string           `json:"assignedBy"`
	AssignmentType AssignmentType   `json:"assignmentType"`
	Priority       int              `json:"priority"`
	Status         AssignmentStatus `json:"status"`
	DueDate        *time.Time       `json:"dueDate,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
	Blocked        bool             `json:"blocked"`
	BlockedReason  *string          `json:"blockedReason,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
	CompletedAt    *time.Time       `json:"completedAt,omitempty"`
}

// AssignmentCreate is the request body for creating an assignment.
type AssignmentCreate struct {
	JobID          uuid.UUID      `json:"jobId" validate:"required"`
	AssignedTo     string         `json:"assignedTo" validate:"required"`
	AssignmentType AssignmentType `json:"assignmentType" validate:"required,oneof=record evaluate review"`
	Priority       int            `json:"priority" validate:"required,min=1,max=3"`
	DueDate        *time.Time     `json:"dueDate,omitempty"`
	Notes          *string        `json:"notes,omitempty"`
}

// AssignmentStatusUpdate is the request body for a workflow transition.
type AssignmentStatusUpdate struct {
	Status AssignmentStatus `json:"status" validate:"required,oneof=assigned in_progress audio_submitted completed skipped"`
	Notes  *string          `json:"notes,omitempty"`
}

// AssignmentPriorityUpdate changes the urgency of an assignment.
type AssignmentPriorityUpdate struct {
	Priority int `json:"priority" validate:"required,min=1,max=3"`
}

// AssignmentReaderUpdate moves the assignment to another reader.
type AssignmentReaderUpdate struct {
	AssignedTo string `json:"assignedTo" validate:"required"`
}

// Reader is someone eligible to receive assignments.
type Reader struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Active   bool      `json:"active"`
}
