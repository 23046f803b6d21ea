package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"gorm.io/gorm"
)

// Assignment wraps one completed job into a unit of reader work. The
// blocked flag is deliberately absent: it depends on the mutable state of
// sibling assignments and is computed at read time by the admission engine.
type Assignment struct {
	ID             uuid.UUID `gorm:"primaryKey"`
	JobID          uuid.UUID `gorm:"not null;index"`
	AssignedTo     string    `gorm:"not null;index"`
	AssignedBy     string    `gorm:"not null"`
	AssignmentType string    `gorm:"not null"`
	Priority       int       `gorm:"not null;default:1"`
	Status         string    `gorm:"not null;default:assigned"`
	DueDate        *time.Time
	Notes          *string
	OrgID          string `gorm:"not null;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

type AssignmentList []Assignment

func (a Assignment) String() string {
	val, _ := json.Marshal(a)
	return string(val)
}

func NewAssignmentFromApiCreateResource(form *api.AssignmentCreate, assignedBy, orgID string) *Assignment {
	return &Assignment{
		ID:             uuid.New(),
		JobID:          form.JobID,
		AssignedTo:     form.AssignedTo,
		AssignedBy:     assignedBy,
		AssignmentType: string(form.AssignmentType),
		Priority:       form.Priority,
		Status:         string(api.AssignmentStatusAssigned),
		DueDate:        form.DueDate,
		Notes:          form.Notes,
		OrgID:          orgID,
	}
}

func NewAssignmentFromId(id uuid.UUID) *Assignment {
	return &Assignment{ID: id}
}

func NewAssignmentFromApiResource(assignment *api.Assignment, orgID string) *Assignment {
	return &Assignment{
		ID:             assignment.ID,
		JobID:          assignment.JobID,
		AssignedTo:     assignment.AssignedTo,
		AssignedBy:     assignment.AssignedBy,
		AssignmentType: string(assignment.AssignmentType),
		Priority:       assignment.Priority,
		Status:         string(assignment.Status),
		DueDate:        assignment.DueDate,
		Notes:          assignment.Notes,
		OrgID:          orgID,
		CreatedAt:      assignment.CreatedAt,
		CompletedAt:    assignment.CompletedAt,
	}
}

func (a *Assignment) ToApiResource() api.Assignment {
	return api.Assignment{
		ID:             a.ID,
		JobID:          a.JobID,
		AssignedTo:     a.AssignedTo,
		AssignedBy:     a.AssignedBy,
		AssignmentType: api.AssignmentType(a.AssignmentType),
		Priority:       a.Priority,
		Status:         api.StringToAssignmentStatus(a.Status),
		DueDate:        a.DueDate,
		Notes:          a.Notes,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		CompletedAt:    a.CompletedAt,
	}
}

func (al AssignmentList) ToApiResource() []api.Assignment {
	assignments := make([]api.Assignment, len(al))
	for i := range al {
		assignments[i] = al[i].ToApiResource()
	}
	return assignments
}
