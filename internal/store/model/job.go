package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"gorm.io/gorm"
)

// Job is the producer-side record of one generation request. Request and
// Result are stored as JSON documents; the parse boundary lives in the
// client, so everything here is already well-formed.
type Job struct {
	ID        uuid.UUID `gorm:"primaryKey"`
	Status    string    `gorm:"not null;default:queued;index"`
	Request   []byte    `gorm:"type:jsonb;not null"`
	Result    []byte    `gorm:"type:jsonb"`
	Error     *string
	CreatedBy string `gorm:"not null"`
	OrgID     string `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

type JobList []Job

func (j Job) String() string {
	val, _ := json.Marshal(j)
	return string(val)
}

func NewJobFromApiCreateResource(request *api.JobRequest, createdBy, orgID string) *Job {
	encoded, _ := json.Marshal(request)
	return &Job{
		ID:        uuid.New(),
		Status:    string(api.JobStatusQueued),
		Request:   encoded,
		CreatedBy: createdBy,
		OrgID:     orgID,
	}
}

func NewJobFromId(id uuid.UUID) *Job {
	return &Job{ID: id}
}

func (j *Job) ToApiResource() api.JobSnapshot {
	snapshot := api.JobSnapshot{
		ID:        j.ID,
		Status:    api.StringToJobStatus(j.Status),
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	_ = json.Unmarshal(j.Request, &snapshot.Request)
	if len(j.Result) > 0 {
		var result api.JobResult
		if err := json.Unmarshal(j.Result, &result); err == nil {
			snapshot.Result = &result
		}
	}
	return snapshot
}

func (jl JobList) ToApiResource() []api.JobSnapshot {
	jobs := make([]api.JobSnapshot, len(jl))
	for i := range jl {
		jobs[i] = jl[i].ToApiResource()
	}
	return jobs
}
