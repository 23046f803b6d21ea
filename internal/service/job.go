package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/scriptvoice/narration-planner/internal/auth"
	"github.com/scriptvoice/narration-planner/internal/events"
	"github.com/scriptvoice/narration-planner/internal/store"
	"github.com/scriptvoice/narration-planner/internal/store/model"
	"go.uber.org/zap"
)

type JobService struct {
	store      store.Store
	evProducer *events.EventProducer
}

func NewJobService(store store.Store, evProducer *events.EventProducer) *JobService {
	return &JobService{store: store, evProducer: evProducer}
}

func (s *JobService) CreateJob(ctx context.Context, request *api.JobRequest) (*model.Job, error) {
	user := auth.MustHaveUser(ctx)

	job, err := s.store.Job().Create(ctx, *model.NewJobFromApiCreateResource(request, user.Username, user.Organization))
	if err != nil {
		return nil, err
	}

	s.emitJobEvent(ctx, job)
	zap.S().Named("job_service").Infow("job submitted", "job_id", job.ID, "org_id", job.OrgID)

	return job, nil
}

func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	user := auth.MustHaveUser(ctx)

	job, err := s.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, err
	}
	if job.OrgID != user.Organization {
		return nil, NewErrJobNotFound(id)
	}

	return job, nil
}

// ListJobs returns the caller's own submissions, newest first.
func (s *JobService) ListJobs(ctx context.Context) (model.JobList, error) {
	user := auth.MustHaveUser(ctx)

	filter := store.NewJobQueryFilter().
		ByOrgID(user.Organization).
		ByCreatedBy(user.Username)

	return s.store.Job().List(ctx, filter)
}

// ListAvailableJobs returns the org's completed jobs with no active
// assignment, the pool an operator assigns readers from.
func (s *JobService) ListAvailableJobs(ctx context.Context) (model.JobList, error) {
	user := auth.MustHaveUser(ctx)

	filter := store.NewJobQueryFilter().
		ByOrgID(user.Organization).
		ByStatus(string(api.JobStatusCompleted)).
		WithoutActiveAssignment()

	return s.store.Job().List(ctx, filter)
}

func (s *JobService) emitJobEvent(ctx context.Context, job *model.Job) {
	if s.evProducer == nil {
		return
	}

	event := events.JobEvent{
		JobID:  job.ID.String(),
		OrgID:  job.OrgID,
		Status: job.Status,
	}
	if job.Error != nil {
		event.Error = *job.Error
	}
	if err := s.evProducer.WriteJobEvent(ctx, event); err != nil {
		zap.S().Named("job_service").Warnw("failed to emit job event", "error", err, "job_id", job.ID)
	}
}
