package v1alpha1

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a generation job as reported by the
// producer. Completed and Failed are terminal.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further status change is possible for a job
// in this state.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobRequest holds the immutable parameters of one generation request.
type JobRequest struct {
	Vertical      string   `json:"vertical" validate:"required,vertical_name"`
	TargetLength  int      `json:"targetLength" validate:"required,min=10,max=2000"`
	Density       string   `json:"density,omitempty" validate:"omitempty,oneof=sparse medium dense"`
	Language      string   `json:"language" validate:"required,language_tag"`
	EncounterType string   `json:"encounterType,omitempty"`
	Vocabulary    []string `json:"vocabulary,omitempty" validate:"omitempty,dive,vocabulary_term"`
}

// JobResult is present only on completed jobs.
type JobResult struct {
	Content     string    `json:"content"`
	WordCount   int       `json:"wordCount"`
	UsedTerms   []string  `json:"usedTerms,omitempty"`
	UsedBrands  []string  `json:"usedBrands,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// JobSnapshot is the producer's view of a job at one poll instant.
type JobSnapshot struct {
	ID        uuid.UUID  `json:"id"`
	Status    JobStatus  `json:"status"`
	Request   JobRequest `json:"request"`
	Result    *JobResult `json:"result,omitempty"`
	Error     *string    `json:"error,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// JobSnapshotList is the bulk listing returned by the producer.
type JobSnapshotList struct {
	Jobs []JobSnapshot `json:"jobs"`
}

// JobCreated is the producer's reply to a submission.
type JobCreated struct {
	ID uuid.UUID `json:"id"`
}
