package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/scriptvoice/narration-planner/internal/admission"
	"github.com/scriptvoice/narration-planner/internal/auth"
	"github.com/scriptvoice/narration-planner/internal/events"
	"github.com/scriptvoice/narration-planner/internal/store"
	"github.com/scriptvoice/narration-planner/internal/store/model"
	"github.com/scriptvoice/narration-planner/internal/workflow"
	"github.com/scriptvoice/narration-planner/pkg/metrics"
	"github.com/thoas/go-funk"
	"go.uber.org/zap"
)

type AssignmentService struct {
	store      store.Store
	evProducer *events.EventProducer
}

func NewAssignmentService(store store.Store, evProducer *events.EventProducer) *AssignmentService {
	return &AssignmentService{store: store, evProducer: evProducer}
}

// AssignmentFilter narrows ListMyAssignments. Filtering happens after the
// admission annotation: blocking depends on every sibling, so the predicate
// is always computed over the reader's full set.
type AssignmentFilter struct {
	Status string
	Type   string
}

// CreateAssignment wraps a completed job into reader work. The whole check
// runs in one transaction so two operators cannot both claim the job.
func (s *AssignmentService) CreateAssignment(ctx context.Context, form *api.AssignmentCreate) (*model.Assignment, error) {
	user := auth.MustHaveUser(ctx)

	if _, err := s.activeReader(ctx, user.Organization, form.AssignedTo); err != nil {
		return nil, err
	}

	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	job, err := s.store.Job().Get(ctx, form.JobID)
	if err != nil {
		_, _ = store.Rollback(ctx)
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(form.JobID)
		}
		return nil, err
	}
	if job.OrgID != user.Organization {
		_, _ = store.Rollback(ctx)
		return nil, NewErrJobNotFound(form.JobID)
	}
	if job.Status != string(api.JobStatusCompleted) {
		_, _ = store.Rollback(ctx)
		return nil, NewErrJobNotCompleted(form.JobID)
	}

	active, err := s.store.Assignment().List(ctx,
		store.NewAssignmentQueryFilter().ByJobID(form.JobID.String()).ExcludeSkipped(), nil)
	if err != nil {
		_, _ = store.Rollback(ctx)
		return nil, err
	}
	if len(active) > 0 {
		_, _ = store.Rollback(ctx)
		return nil, NewErrJobAlreadyAssigned(form.JobID)
	}

	assignment, err := s.store.Assignment().Create(ctx, *model.NewAssignmentFromApiCreateResource(form, user.Username, user.Organization))
	if err != nil {
		_, _ = store.Rollback(ctx)
		return nil, err
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	s.emitAssignmentEvent(ctx, assignment, user.Username, "")
	zap.S().Named("assignment_service").Infow("assignment created",
		"assignment_id", assignment.ID, "job_id", assignment.JobID, "assigned_to", assignment.AssignedTo)

	return assignment, nil
}

// ListMyAssignments returns the caller's assignments with the blocking
// projection applied, ordered priority first then oldest first.
func (s *AssignmentService) ListMyAssignments(ctx context.Context, filter *AssignmentFilter) ([]api.Assignment, error) {
	user := auth.MustHaveUser(ctx)

	assignments, err := s.listForReader(ctx, user.Organization, user.Username)
	if err != nil {
		return nil, err
	}

	annotated := admission.Annotate(assignments)
	if filter != nil {
		if filter.Status != "" {
			annotated = funk.Filter(annotated, func(a api.Assignment) bool {
				return a.Status == api.AssignmentStatus(filter.Status)
			}).([]api.Assignment)
		}
		if filter.Type != "" {
			annotated = funk.Filter(annotated, func(a api.Assignment) bool {
				return a.AssignmentType == api.AssignmentType(filter.Type)
			}).([]api.Assignment)
		}
	}

	admission.SortForPresentation(annotated)
	return annotated, nil
}

// UpdateAssignmentStatus drives one workflow transition. Admission is
// recomputed from the current sibling snapshot at the moment of the
// attempt; an illegal transition leaves the row untouched.
func (s *AssignmentService) UpdateAssignmentStatus(ctx context.Context, id uuid.UUID, update *api.AssignmentStatusUpdate) (*model.Assignment, error) {
	user := auth.MustHaveUser(ctx)

	assignment, err := s.getOwned(ctx, user.Organization, id)
	if err != nil {
		return nil, err
	}

	siblings, err := s.listForReader(ctx, user.Organization, assignment.AssignedTo)
	if err != nil {
		return nil, err
	}
	decision := admission.Evaluate(siblings)[id]

	guards := workflow.Guards{
		Blocked: decision.Blocked,
		// The artifact itself lives with the recording collaborator; the
		// explicit submit action is the server-visible evidence of it.
		ArtifactPresent: true,
	}
	if update.Notes != nil {
		guards.SkipReason = *update.Notes
	}

	resource := assignment.ToApiResource()
	if err := workflow.Apply(&resource, update.Status, guards, time.Now()); err != nil {
		return nil, err
	}
	if update.Notes != nil {
		resource.Notes = update.Notes
	}

	updated, err := s.store.Assignment().Update(ctx, *model.NewAssignmentFromApiResource(&resource, user.Organization))
	if err != nil {
		return nil, err
	}

	metrics.IncreaseAssignmentTransitionsTotalMetric(string(update.Status))
	s.emitAssignmentEvent(ctx, updated, user.Username, guards.SkipReason)

	return updated, nil
}

func (s *AssignmentService) UpdateAssignmentPriority(ctx context.Context, id uuid.UUID, update *api.AssignmentPriorityUpdate) (*model.Assignment, error) {
	user := auth.MustHaveUser(ctx)

	assignment, err := s.getOwned(ctx, user.Organization, id)
	if err != nil {
		return nil, err
	}

	assignment.Priority = update.Priority
	updated, err := s.store.Assignment().Update(ctx, *assignment)
	if err != nil {
		return nil, err
	}

	s.emitAssignmentEvent(ctx, updated, user.Username, "")
	return updated, nil
}

func (s *AssignmentService) UpdateAssignmentReader(ctx context.Context, id uuid.UUID, update *api.AssignmentReaderUpdate) (*model.Assignment, error) {
	user := auth.MustHaveUser(ctx)

	assignment, err := s.getOwned(ctx, user.Organization, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.activeReader(ctx, user.Organization, update.AssignedTo); err != nil {
		return nil, err
	}

	assignment.AssignedTo = update.AssignedTo
	updated, err := s.store.Assignment().Update(ctx, *assignment)
	if err != nil {
		return nil, err
	}

	s.emitAssignmentEvent(ctx, updated, user.Username, "")
	return updated, nil
}

// DeleteAssignment removes the assignment from the active set, returning
// its job to the available pool. The row is kept for the audit history.
func (s *AssignmentService) DeleteAssignment(ctx context.Context, id uuid.UUID) error {
	user := auth.MustHaveUser(ctx)

	if _, err := s.getOwned(ctx, user.Organization, id); err != nil {
		return err
	}

	if err := s.store.Assignment().Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrAssignmentNotFound(id)
		}
		return err
	}

	zap.S().Named("assignment_service").Infow("assignment deleted", "assignment_id", id, "actor", user.Username)
	return nil
}

func (s *AssignmentService) ListAvailableReaders(ctx context.Context) (model.ReaderList, error) {
	user := auth.MustHaveUser(ctx)

	return s.store.Reader().List(ctx, store.NewReaderQueryFilter().
		ByOrgID(user.Organization).
		OnlyActive())
}

func (s *AssignmentService) getOwned(ctx context.Context, orgID string, id uuid.UUID) (*model.Assignment, error) {
	assignment, err := s.store.Assignment().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrAssignmentNotFound(id)
		}
		return nil, err
	}
	if assignment.OrgID != orgID {
		return nil, NewErrAssignmentNotFound(id)
	}
	return assignment, nil
}

func (s *AssignmentService) activeReader(ctx context.Context, orgID, username string) (*model.Reader, error) {
	reader, err := s.store.Reader().GetByUsername(ctx, orgID, username)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrReaderNotFound(username)
		}
		return nil, err
	}
	if !reader.Active {
		return nil, NewErrReaderNotFound(username)
	}
	return reader, nil
}

func (s *AssignmentService) listForReader(ctx context.Context, orgID, username string) ([]api.Assignment, error) {
	assignments, err := s.store.Assignment().List(ctx,
		store.NewAssignmentQueryFilter().ByOrgID(orgID).ByAssignedTo(username), nil)
	if err != nil {
		return nil, err
	}
	return assignments.ToApiResource(), nil
}

func (s *AssignmentService) emitAssignmentEvent(ctx context.Context, assignment *model.Assignment, actor, reason string) {
	if s.evProducer == nil {
		return
	}

	event := events.AssignmentEvent{
		AssignmentID: assignment.ID.String(),
		JobID:        assignment.JobID.String(),
		OrgID:        assignment.OrgID,
		AssignedTo:   assignment.AssignedTo,
		Status:       assignment.Status,
		Priority:     assignment.Priority,
		Actor:        actor,
		Reason:       reason,
	}
	if err := s.evProducer.WriteAssignmentEvent(ctx, event); err != nil {
		zap.S().Named("assignment_service").Warnw("failed to emit assignment event", "error", err, "assignment_id", assignment.ID)
	}
}
