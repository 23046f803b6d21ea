package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/scriptvoice/narration-planner/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Job is the database contract of the generation job producer.
type Job interface {
	Create(ctx context.Context, job model.Job) (*model.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Job, error)
	List(ctx context.Context, filter *JobQueryFilter) (model.JobList, error)
	// UpdateStatus moves the job's lifecycle state, attaching the result or
	// error where provided.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, result *api.JobResult, errorMessage *string) (*model.Job, error)
	// ClaimNextQueued atomically flips the oldest queued job to processing
	// and returns it. Returns ErrRecordNotFound when the queue is drained.
	ClaimNextQueued(ctx context.Context) (*model.Job, error)
	Delete(ctx context.Context, id uuid.UUID) error
	InitialMigration(ctx context.Context) error
}

type JobStore struct {
	db *gorm.DB
}

// Make sure we conform to Job interface
var _ Job = (*JobStore)(nil)

func NewJobStore(db *gorm.DB) Job {
	return &JobStore{db: db}
}

func (s *JobStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.Job{})
}

func (s *JobStore) Create(ctx context.Context, job model.Job) (*model.Job, error) {
	result := s.getDB(ctx).Create(&job)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating job: %w", result.Error)
	}
	return &job, nil
}

func (s *JobStore) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	var job model.Job
	result := s.getDB(ctx).First(&job, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying job: %w", result.Error)
	}
	return &job, nil
}

func (s *JobStore) List(ctx context.Context, filter *JobQueryFilter) (model.JobList, error) {
	var jobs model.JobList

	tx := s.getDB(ctx).Model(&model.Job{})
	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if result := tx.Order("created_at DESC, id").Find(&jobs); result.Error != nil {
		return nil, fmt.Errorf("listing jobs: %w", result.Error)
	}
	return jobs, nil
}

func (s *JobStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string, result *api.JobResult, errorMessage *string) (*model.Job, error) {
	job := model.NewJobFromId(id)
	updates := map[string]any{"status": status}
	if result != nil {
		encoded, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("encoding job result: %w", err)
		}
		updates["result"] = encoded
	}
	if errorMessage != nil {
		updates["error"] = *errorMessage
	}

	tx := s.getDB(ctx).Model(job).Clauses(clause.Returning{}).Updates(updates)
	if tx.Error != nil {
		return nil, fmt.Errorf("updating job status: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return job, nil
}

func (s *JobStore) ClaimNextQueued(ctx context.Context) (*model.Job, error) {
	var job model.Job

	err := s.getDB(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("status = ?", string(api.JobStatusQueued)).Order("created_at, id")
		// sqlite has no row locks; its writes are serialized anyway
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		result := query.First(&job)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return result.Error
		}

		job.Status = string(api.JobStatusProcessing)
		return tx.Model(&job).Update("status", job.Status).Error
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("claiming queued job: %w", err)
	}
	return &job, nil
}

func (s *JobStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.getDB(ctx).Delete(&model.Job{}, "id = ?", id)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("deleting job: %w", result.Error)
	}
	return nil
}

func (s *JobStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
