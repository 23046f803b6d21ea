package service_test

import (
	"context"
	"errors"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/scriptvoice/narration-planner/internal/auth"
	"github.com/scriptvoice/narration-planner/internal/config"
	"github.com/scriptvoice/narration-planner/internal/service"
	"github.com/scriptvoice/narration-planner/internal/store"
	"github.com/scriptvoice/narration-planner/internal/store/model"
	"github.com/scriptvoice/narration-planner/internal/workflow"
	"go.uber.org/zap"
)

var _ = Describe("assignment service", Ordered, func() {
	var (
		s           store.Store
		jobs        *service.JobService
		assignments *service.AssignmentService
		ctx         context.Context
	)

	operator := auth.User{Username: "producer", Organization: "internal"}

	completedJob := func() uuid.UUID {
		job, err := jobs.CreateJob(ctx, &api.JobRequest{
			Vertical:     "pharmacy",
			TargetLength: 90,
			Language:     "en-US",
			Vocabulary:   []string{"copay"},
		})
		Expect(err).To(BeNil())
		_, err = s.Job().UpdateStatus(ctx, job.ID, string(api.JobStatusCompleted), &api.JobResult{Content: "script"}, nil)
		Expect(err).To(BeNil())
		return job.ID
	}

	assign := func(jobID uuid.UUID, readerCtx string, priority int) *api.Assignment {
		created, err := assignments.CreateAssignment(ctx, &api.AssignmentCreate{
			JobID:          jobID,
			AssignedTo:     readerCtx,
			AssignmentType: api.AssignmentTypeRecord,
			Priority:       priority,
		})
		Expect(err).To(BeNil())
		resource := created.ToApiResource()
		return &resource
	}

	readerContext := func(username string) context.Context {
		return auth.NewUserContext(context.TODO(), auth.User{Username: username, Organization: "internal"})
	}

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())
		s = store.NewStore(db, zap.S())
		Expect(s.InitialMigration(context.TODO())).To(Succeed())
		Expect(s.Seed(context.TODO())).To(Succeed())

		jobs = service.NewJobService(s, nil)
		assignments = service.NewAssignmentService(s, nil)
		ctx = auth.NewUserContext(context.TODO(), operator)
	})

	AfterAll(func() {
		s.Close()
	})

	Context("creation", func() {
		It("rejects a job that has not completed", func() {
			job, err := jobs.CreateJob(ctx, &api.JobRequest{Vertical: "retail", TargetLength: 60, Language: "en-US"})
			Expect(err).To(BeNil())

			_, err = assignments.CreateAssignment(ctx, &api.AssignmentCreate{
				JobID: job.ID, AssignedTo: "svetlana", AssignmentType: api.AssignmentTypeRecord, Priority: api.PriorityMedium,
			})
			var notAvailable *service.ErrJobNotAvailable
			Expect(errors.As(err, &notAvailable)).To(BeTrue())
		})

		It("rejects an unknown reader", func() {
			jobID := completedJob()
			_, err := assignments.CreateAssignment(ctx, &api.AssignmentCreate{
				JobID: jobID, AssignedTo: "nobody", AssignmentType: api.AssignmentTypeRecord, Priority: api.PriorityMedium,
			})
			var notFound *service.ErrReaderNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})

		It("allows at most one active assignment per job", func() {
			jobID := completedJob()
			first := assign(jobID, "svetlana", api.PriorityMedium)

			_, err := assignments.CreateAssignment(ctx, &api.AssignmentCreate{
				JobID: jobID, AssignedTo: "dmitri", AssignmentType: api.AssignmentTypeRecord, Priority: api.PriorityMedium,
			})
			var notAvailable *service.ErrJobNotAvailable
			Expect(errors.As(err, &notAvailable)).To(BeTrue())

			// skipping the first assignment releases the job
			reason := "reader unavailable"
			_, err = assignments.UpdateAssignmentStatus(readerContext("svetlana"), first.ID, &api.AssignmentStatusUpdate{
				Status: api.AssignmentStatusSkipped, Notes: &reason,
			})
			Expect(err).To(BeNil())

			_, err = assignments.CreateAssignment(ctx, &api.AssignmentCreate{
				JobID: jobID, AssignedTo: "dmitri", AssignmentType: api.AssignmentTypeRecord, Priority: api.PriorityMedium,
			})
			Expect(err).To(BeNil())
		})

		It("returns the job to the available pool on deletion", func() {
			jobID := completedJob()
			created := assign(jobID, "amara", api.PriorityLow)

			available, err := jobs.ListAvailableJobs(ctx)
			Expect(err).To(BeNil())
			for _, j := range available {
				Expect(j.ID).ToNot(Equal(jobID))
			}

			Expect(assignments.DeleteAssignment(ctx, created.ID)).To(Succeed())

			available, err = jobs.ListAvailableJobs(ctx)
			Expect(err).To(BeNil())
			ids := make([]uuid.UUID, 0, len(available))
			for _, j := range available {
				ids = append(ids, j.ID)
			}
			Expect(ids).To(ContainElement(jobID))
		})
	})

	Context("workflow transitions", func() {
		It("walks the happy path through to completed", func() {
			created := assign(completedJob(), "svetlana", api.PriorityHigh)
			rctx := readerContext("svetlana")

			updated, err := assignments.UpdateAssignmentStatus(rctx, created.ID, &api.AssignmentStatusUpdate{Status: api.AssignmentStatusInProgress})
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(string(api.AssignmentStatusInProgress)))

			updated, err = assignments.UpdateAssignmentStatus(rctx, created.ID, &api.AssignmentStatusUpdate{Status: api.AssignmentStatusAudioSubmitted})
			Expect(err).To(BeNil())

			updated, err = assignments.UpdateAssignmentStatus(rctx, created.ID, &api.AssignmentStatusUpdate{Status: api.AssignmentStatusCompleted})
			Expect(err).To(BeNil())
			Expect(updated.CompletedAt).ToNot(BeNil())
		})

		It("rejects a transition that jumps a step and leaves the row untouched", func() {
			created := assign(completedJob(), "svetlana", api.PriorityHigh)

			_, err := assignments.UpdateAssignmentStatus(readerContext("svetlana"), created.ID, &api.AssignmentStatusUpdate{Status: api.AssignmentStatusAudioSubmitted})
			var invalid *workflow.InvalidTransitionError
			Expect(errors.As(err, &invalid)).To(BeTrue())

			stored, err := s.Assignment().Get(ctx, created.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(string(api.AssignmentStatusAssigned)))
		})

		It("requires a reason note to skip", func() {
			created := assign(completedJob(), "svetlana", api.PriorityHigh)

			_, err := assignments.UpdateAssignmentStatus(readerContext("svetlana"), created.ID, &api.AssignmentStatusUpdate{Status: api.AssignmentStatusSkipped})
			var invalid *workflow.InvalidTransitionError
			Expect(errors.As(err, &invalid)).To(BeTrue())
		})
	})

	Context("admission", func() {
		It("blocks starting a lower-priority assignment until the higher one resolves", func() {
			_, err := s.Reader().Create(ctx, model.Reader{
				ID: uuid.New(), Username: "tamsin", Name: "Tamsin Adeyemi", OrgID: "internal", Active: true,
			})
			Expect(err).To(BeNil())

			high := assign(completedJob(), "tamsin", api.PriorityHigh)
			low := assign(completedJob(), "tamsin", api.PriorityLow)
			rctx := readerContext("tamsin")

			_, err = assignments.UpdateAssignmentStatus(rctx, low.ID, &api.AssignmentStatusUpdate{Status: api.AssignmentStatusInProgress})
			var invalid *workflow.InvalidTransitionError
			Expect(errors.As(err, &invalid)).To(BeTrue())

			reason := "recorded elsewhere"
			_, err = assignments.UpdateAssignmentStatus(rctx, high.ID, &api.AssignmentStatusUpdate{Status: api.AssignmentStatusSkipped, Notes: &reason})
			Expect(err).To(BeNil())

			_, err = assignments.UpdateAssignmentStatus(rctx, low.ID, &api.AssignmentStatusUpdate{Status: api.AssignmentStatusInProgress})
			Expect(err).To(BeNil())
		})

		It("re-evaluates blocking after a priority edit", func() {
			first := assign(completedJob(), "amara", api.PriorityMedium)
			second := assign(completedJob(), "amara", api.PriorityMedium)
			rctx := readerContext("amara")

			// equals do not block each other
			_, err := assignments.UpdateAssignmentStatus(rctx, second.ID, &api.AssignmentStatusUpdate{Status: api.AssignmentStatusInProgress})
			Expect(err).To(BeNil())

			_, err = assignments.UpdateAssignmentPriority(ctx, first.ID, &api.AssignmentPriorityUpdate{Priority: api.PriorityHigh})
			Expect(err).To(BeNil())

			mine, err := assignments.ListMyAssignments(rctx, nil)
			Expect(err).To(BeNil())
			for _, a := range mine {
				if a.ID == second.ID {
					Expect(a.Blocked).To(BeTrue())
					Expect(a.BlockedReason).ToNot(BeNil())
				}
			}
		})
	})

	Context("listing", func() {
		It("filters by status and type after annotation", func() {
			created := assign(completedJob(), "svetlana", api.PriorityHigh)
			rctx := readerContext("svetlana")

			mine, err := assignments.ListMyAssignments(rctx, &service.AssignmentFilter{Status: string(api.AssignmentStatusAssigned)})
			Expect(err).To(BeNil())
			found := false
			for _, a := range mine {
				Expect(a.Status).To(Equal(api.AssignmentStatusAssigned))
				if a.ID == created.ID {
					found = true
				}
			}
			Expect(found).To(BeTrue())

			mine, err = assignments.ListMyAssignments(rctx, &service.AssignmentFilter{Type: string(api.AssignmentTypeReview)})
			Expect(err).To(BeNil())
			Expect(mine).To(BeEmpty())
		})

		It("reassigns to another active reader", func() {
			created := assign(completedJob(), "svetlana", api.PriorityLow)

			updated, err := assignments.UpdateAssignmentReader(ctx, created.ID, &api.AssignmentReaderUpdate{AssignedTo: "dmitri"})
			Expect(err).To(BeNil())
			Expect(updated.AssignedTo).To(Equal("dmitri"))

			_, err = assignments.UpdateAssignmentReader(ctx, created.ID, &api.AssignmentReaderUpdate{AssignedTo: "ghost"})
			var notFound *service.ErrReaderNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})

		It("lists only active readers", func() {
			readers, err := assignments.ListAvailableReaders(ctx)
			Expect(err).To(BeNil())
			Expect(len(readers)).To(BeNumerically(">=", 3))
			for _, r := range readers {
				Expect(r.Active).To(BeTrue())
			}
		})
	})
})
