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
	"go.uber.org/zap"
)

var _ = Describe("job service", Ordered, func() {
	var (
		s    store.Store
		jobs *service.JobService
		ctx  context.Context
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())
		s = store.NewStore(db, zap.S())
		Expect(s.InitialMigration(context.TODO())).To(Succeed())

		jobs = service.NewJobService(s, nil)
		ctx = auth.NewUserContext(context.TODO(), auth.User{Username: "producer", Organization: "org-a"})
	})

	AfterAll(func() {
		s.Close()
	})

	It("submits a job owned by the caller", func() {
		job, err := jobs.CreateJob(ctx, &api.JobRequest{Vertical: "retail", TargetLength: 60, Language: "en-US"})
		Expect(err).To(BeNil())
		Expect(job.Status).To(Equal(string(api.JobStatusQueued)))
		Expect(job.CreatedBy).To(Equal("producer"))
		Expect(job.OrgID).To(Equal("org-a"))
	})

	It("scopes listing to the caller's identity", func() {
		otherCtx := auth.NewUserContext(context.TODO(), auth.User{Username: "other", Organization: "org-b"})
		_, err := jobs.CreateJob(otherCtx, &api.JobRequest{Vertical: "retail", TargetLength: 60, Language: "en-US"})
		Expect(err).To(BeNil())

		mine, err := jobs.ListJobs(ctx)
		Expect(err).To(BeNil())
		for _, j := range mine {
			Expect(j.OrgID).To(Equal("org-a"))
			Expect(j.CreatedBy).To(Equal("producer"))
		}
	})

	It("hides jobs from other orgs", func() {
		otherCtx := auth.NewUserContext(context.TODO(), auth.User{Username: "other", Organization: "org-b"})
		job, err := jobs.CreateJob(otherCtx, &api.JobRequest{Vertical: "retail", TargetLength: 60, Language: "en-US"})
		Expect(err).To(BeNil())

		_, err = jobs.GetJob(ctx, job.ID)
		var notFound *service.ErrResourceNotFound
		Expect(errors.As(err, &notFound)).To(BeTrue())
	})

	It("reports an unknown job id", func() {
		_, err := jobs.GetJob(ctx, uuid.New())
		var notFound *service.ErrResourceNotFound
		Expect(errors.As(err, &notFound)).To(BeTrue())
	})
})
