package store_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/scriptvoice/narration-planner/internal/config"
	"github.com/scriptvoice/narration-planner/internal/store"
	"github.com/scriptvoice/narration-planner/internal/store/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestStore() (store.Store, *gorm.DB) {
	cfg := config.NewDefault()
	db, err := store.InitDB(cfg)
	Expect(err).To(BeNil())
	s := store.NewStore(db, zap.S())
	Expect(s.InitialMigration(context.TODO())).To(Succeed())
	return s, db
}

func newQueuedJob(orgID, createdBy string) model.Job {
	return *model.NewJobFromApiCreateResource(&api.JobRequest{
		Vertical:      "retail",
		TargetLength:  120,
		Density:       "medium",
		Language:      "en-US",
		EncounterType: "checkout",
		Vocabulary:    []string{"loyalty card"},
	}, createdBy, orgID)
}

var _ = Describe("job store", Ordered, func() {
	var (
		s   store.Store
		ctx context.Context
	)

	BeforeAll(func() {
		ctx = context.TODO()
		s, _ = newTestStore()
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormDB := store.FromContext(ctx)
		Expect(gormDB).To(BeNil())
	})

	It("creates and fetches a job", func() {
		created, err := s.Job().Create(ctx, newQueuedJob("org-a", "svetlana"))
		Expect(err).To(BeNil())
		Expect(created.Status).To(Equal(string(api.JobStatusQueued)))

		got, err := s.Job().Get(ctx, created.ID)
		Expect(err).To(BeNil())
		Expect(got.CreatedBy).To(Equal("svetlana"))
		Expect(got.OrgID).To(Equal("org-a"))
	})

	It("returns ErrRecordNotFound for a missing job", func() {
		_, err := s.Job().Get(ctx, uuid.New())
		Expect(err).To(MatchError(store.ErrRecordNotFound))
	})

	It("filters the list by org and status", func() {
		_, err := s.Job().Create(ctx, newQueuedJob("org-b", "dmitri"))
		Expect(err).To(BeNil())

		jobs, err := s.Job().List(ctx, store.NewJobQueryFilter().ByOrgID("org-b"))
		Expect(err).To(BeNil())
		Expect(jobs).To(HaveLen(1))

		jobs, err = s.Job().List(ctx, store.NewJobQueryFilter().ByOrgID("org-b").ByStatus(string(api.JobStatusCompleted)))
		Expect(err).To(BeNil())
		Expect(jobs).To(BeEmpty())
	})

	It("attaches the result when completing a job", func() {
		created, err := s.Job().Create(ctx, newQueuedJob("org-c", "amara"))
		Expect(err).To(BeNil())

		result := &api.JobResult{Content: "script body", WordCount: 2}
		updated, err := s.Job().UpdateStatus(ctx, created.ID, string(api.JobStatusCompleted), result, nil)
		Expect(err).To(BeNil())
		Expect(updated.Status).To(Equal(string(api.JobStatusCompleted)))

		snapshot := updated.ToApiResource()
		Expect(snapshot.Result).ToNot(BeNil())
		Expect(snapshot.Result.Content).To(Equal("script body"))
	})

	It("records the error when failing a job", func() {
		created, err := s.Job().Create(ctx, newQueuedJob("org-c", "amara"))
		Expect(err).To(BeNil())

		msg := "generation backend unavailable"
		updated, err := s.Job().UpdateStatus(ctx, created.ID, string(api.JobStatusFailed), nil, &msg)
		Expect(err).To(BeNil())
		Expect(updated.Error).ToNot(BeNil())
		Expect(*updated.Error).To(Equal(msg))
	})

	It("claims the oldest queued job exactly once", func() {
		first, err := s.Job().Create(ctx, newQueuedJob("org-claim", "svetlana"))
		Expect(err).To(BeNil())
		// Keep ordering deterministic under sqlite's second-resolution clock.
		time.Sleep(5 * time.Millisecond)
		_, err = s.Job().Create(ctx, newQueuedJob("org-claim", "svetlana"))
		Expect(err).To(BeNil())

		claimed, err := s.Job().ClaimNextQueued(ctx)
		Expect(err).To(BeNil())
		Expect(claimed.ID).To(Equal(first.ID))
		Expect(claimed.Status).To(Equal(string(api.JobStatusProcessing)))

		got, err := s.Job().Get(ctx, first.ID)
		Expect(err).To(BeNil())
		Expect(got.Status).To(Equal(string(api.JobStatusProcessing)))
	})

	It("soft-deletes a job", func() {
		created, err := s.Job().Create(ctx, newQueuedJob("org-d", "dmitri"))
		Expect(err).To(BeNil())

		Expect(s.Job().Delete(ctx, created.ID)).To(Succeed())
		_, err = s.Job().Get(ctx, created.ID)
		Expect(err).To(MatchError(store.ErrRecordNotFound))

		Expect(s.Job().Delete(ctx, created.ID)).To(MatchError(store.ErrRecordNotFound))
	})
})

var _ = Describe("assignment store", Ordered, func() {
	var (
		s   store.Store
		ctx context.Context
		job *model.Job
	)

	newAssignment := func(assignedTo string, priority int) model.Assignment {
		return *model.NewAssignmentFromApiCreateResource(&api.AssignmentCreate{
			JobID:          job.ID,
			AssignedTo:     assignedTo,
			AssignmentType: api.AssignmentTypeRecord,
			Priority:       priority,
		}, "producer", "org-a")
	}

	BeforeAll(func() {
		ctx = context.TODO()
		s, _ = newTestStore()

		var err error
		job, err = s.Job().Create(ctx, newQueuedJob("org-a", "producer"))
		Expect(err).To(BeNil())
	})

	AfterAll(func() {
		s.Close()
	})

	It("creates and lists assignments for a reader", func() {
		_, err := s.Assignment().Create(ctx, newAssignment("svetlana", api.PriorityHigh))
		Expect(err).To(BeNil())
		_, err = s.Assignment().Create(ctx, newAssignment("svetlana", api.PriorityLow))
		Expect(err).To(BeNil())
		_, err = s.Assignment().Create(ctx, newAssignment("dmitri", api.PriorityMedium))
		Expect(err).To(BeNil())

		mine, err := s.Assignment().List(ctx,
			store.NewAssignmentQueryFilter().ByOrgID("org-a").ByAssignedTo("svetlana"),
			store.NewAssignmentQueryOptions().WithSortOrder(store.SortByPriority))
		Expect(err).To(BeNil())
		Expect(mine).To(HaveLen(2))
		Expect(mine[0].Priority).To(Equal(api.PriorityHigh))
		Expect(mine[1].Priority).To(Equal(api.PriorityLow))
	})

	It("updates only the mutable columns", func() {
		created, err := s.Assignment().Create(ctx, newAssignment("amara", api.PriorityMedium))
		Expect(err).To(BeNil())

		created.Status = string(api.AssignmentStatusInProgress)
		created.Priority = api.PriorityHigh
		created.AssignedBy = "someone-else" // not in the update column set

		updated, err := s.Assignment().Update(ctx, *created)
		Expect(err).To(BeNil())
		Expect(updated.Status).To(Equal(string(api.AssignmentStatusInProgress)))
		Expect(updated.Priority).To(Equal(api.PriorityHigh))
		Expect(updated.AssignedBy).To(Equal("producer"))
	})

	It("keeps skipped assignments out of the active set", func() {
		created, err := s.Assignment().Create(ctx, newAssignment("amara", api.PriorityLow))
		Expect(err).To(BeNil())

		created.Status = string(api.AssignmentStatusSkipped)
		_, err = s.Assignment().Update(ctx, *created)
		Expect(err).To(BeNil())

		active, err := s.Assignment().List(ctx,
			store.NewAssignmentQueryFilter().ByOrgID("org-a").ByAssignedTo("amara").ExcludeSkipped(), nil)
		Expect(err).To(BeNil())
		for _, a := range active {
			Expect(a.ID).ToNot(Equal(created.ID))
		}
	})

	It("soft-deletes an assignment", func() {
		created, err := s.Assignment().Create(ctx, newAssignment("dmitri", api.PriorityLow))
		Expect(err).To(BeNil())

		Expect(s.Assignment().Delete(ctx, created.ID)).To(Succeed())
		_, err = s.Assignment().Get(ctx, created.ID)
		Expect(err).To(MatchError(store.ErrRecordNotFound))
	})
})

var _ = Describe("job availability", Ordered, func() {
	var (
		s   store.Store
		ctx context.Context
	)

	BeforeAll(func() {
		ctx = context.TODO()
		s, _ = newTestStore()
	})

	AfterAll(func() {
		s.Close()
	})

	It("excludes jobs with a live assignment and readmits them on skip", func() {
		job, err := s.Job().Create(ctx, newQueuedJob("org-a", "producer"))
		Expect(err).To(BeNil())
		_, err = s.Job().UpdateStatus(ctx, job.ID, string(api.JobStatusCompleted), &api.JobResult{Content: "done"}, nil)
		Expect(err).To(BeNil())

		available := func() model.JobList {
			jobs, err := s.Job().List(ctx, store.NewJobQueryFilter().
				ByOrgID("org-a").
				ByStatus(string(api.JobStatusCompleted)).
				WithoutActiveAssignment())
			Expect(err).To(BeNil())
			return jobs
		}

		Expect(available()).To(HaveLen(1))

		assignment, err := s.Assignment().Create(ctx, *model.NewAssignmentFromApiCreateResource(&api.AssignmentCreate{
			JobID:          job.ID,
			AssignedTo:     "svetlana",
			AssignmentType: api.AssignmentTypeRecord,
			Priority:       api.PriorityMedium,
		}, "producer", "org-a"))
		Expect(err).To(BeNil())

		Expect(available()).To(BeEmpty())

		assignment.Status = string(api.AssignmentStatusSkipped)
		_, err = s.Assignment().Update(ctx, *assignment)
		Expect(err).To(BeNil())

		Expect(available()).To(HaveLen(1))
	})
})

var _ = Describe("reader store", Ordered, func() {
	var (
		s   store.Store
		ctx context.Context
	)

	BeforeAll(func() {
		ctx = context.TODO()
		s, _ = newTestStore()
	})

	AfterAll(func() {
		s.Close()
	})

	It("seeds the default readers idempotently", func() {
		Expect(s.Seed(ctx)).To(Succeed())
		Expect(s.Seed(ctx)).To(Succeed())

		readers, err := s.Reader().List(ctx, store.NewReaderQueryFilter().ByOrgID("internal"))
		Expect(err).To(BeNil())
		Expect(readers).To(HaveLen(3))
	})

	It("filters inactive readers", func() {
		_, err := s.Reader().Create(ctx, model.Reader{
			ID: uuid.New(), Username: "retired", Name: "Retired Reader", OrgID: "org-x", Active: false,
		})
		Expect(err).To(BeNil())

		readers, err := s.Reader().List(ctx, store.NewReaderQueryFilter().ByOrgID("org-x").OnlyActive())
		Expect(err).To(BeNil())
		Expect(readers).To(BeEmpty())
	})

	It("rejects a duplicate username within an org", func() {
		_, err := s.Reader().Create(ctx, model.Reader{
			ID: uuid.New(), Username: "svetlana", Name: "Another Svetlana", OrgID: "internal", Active: true,
		})
		Expect(err).To(MatchError(store.ErrDuplicateKey))
	})
})

var _ = Describe("transactions", Ordered, func() {
	var (
		s   store.Store
		ctx context.Context
	)

	BeforeAll(func() {
		ctx = context.TODO()
		s, _ = newTestStore()
	})

	AfterAll(func() {
		s.Close()
	})

	It("rolls back everything written inside the transaction", func() {
		txCtx, err := s.NewTransactionContext(ctx)
		Expect(err).To(BeNil())

		created, err := s.Job().Create(txCtx, newQueuedJob("org-tx", "svetlana"))
		Expect(err).To(BeNil())

		_, err = store.Rollback(txCtx)
		Expect(err).To(BeNil())

		_, err = s.Job().Get(ctx, created.ID)
		Expect(err).To(MatchError(store.ErrRecordNotFound))
	})

	It("persists everything on commit", func() {
		txCtx, err := s.NewTransactionContext(ctx)
		Expect(err).To(BeNil())

		created, err := s.Job().Create(txCtx, newQueuedJob("org-tx", "svetlana"))
		Expect(err).To(BeNil())

		_, err = store.Commit(txCtx)
		Expect(err).To(BeNil())

		got, err := s.Job().Get(ctx, created.ID)
		Expect(err).To(BeNil())
		Expect(got.ID).To(Equal(created.ID))
	})
})
