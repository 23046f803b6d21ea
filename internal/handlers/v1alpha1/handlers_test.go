package v1alpha1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/scriptvoice/narration-planner/internal/auth"
	"github.com/scriptvoice/narration-planner/internal/config"
	v1alpha1 "github.com/scriptvoice/narration-planner/internal/handlers/v1alpha1"
	"github.com/scriptvoice/narration-planner/internal/service"
	"github.com/scriptvoice/narration-planner/internal/store"
	"go.uber.org/zap"
)

var _ = Describe("api handlers", Ordered, func() {
	var (
		s      store.Store
		server *httptest.Server
	)

	do := func(method, path string, body any) *http.Response {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req, err := http.NewRequest(method, server.URL+path, &buf)
		Expect(err).To(BeNil())
		req.Header.Set("X-Narration-User", "producer")
		req.Header.Set("X-Narration-Org", "internal")
		resp, err := server.Client().Do(req)
		Expect(err).To(BeNil())
		return resp
	}

	decode := func(resp *http.Response, out any) {
		defer resp.Body.Close()
		Expect(json.NewDecoder(resp.Body).Decode(out)).To(Succeed())
	}

	submitJob := func() uuid.UUID {
		resp := do(http.MethodPost, "/api/v1alpha1/jobs", api.JobRequest{
			Vertical: "pharmacy", TargetLength: 90, Language: "en-US", Vocabulary: []string{"copay"},
		})
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		var created api.JobCreated
		decode(resp, &created)
		return created.ID
	}

	completeJob := func(id uuid.UUID) {
		_, err := s.Job().UpdateStatus(context.TODO(), id, string(api.JobStatusCompleted), &api.JobResult{Content: "script"}, nil)
		Expect(err).To(BeNil())
	}

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())
		s = store.NewStore(db, zap.S())
		Expect(s.InitialMigration(context.TODO())).To(Succeed())
		Expect(s.Seed(context.TODO())).To(Succeed())

		handler := v1alpha1.NewServiceHandler(
			service.NewJobService(s, nil),
			service.NewAssignmentService(s, nil),
		)

		authenticator, err := auth.NewHeaderAuthenticator()
		Expect(err).To(BeNil())

		router := chi.NewRouter()
		router.Use(authenticator.Authenticator)
		router.Mount("/api/v1alpha1", handler.Routes())
		server = httptest.NewServer(router)
	})

	AfterAll(func() {
		server.Close()
		s.Close()
	})

	Context("jobs", func() {
		It("submits and polls a job", func() {
			id := submitJob()

			resp := do(http.MethodGet, fmt.Sprintf("/api/v1alpha1/jobs/%s", id), nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var snapshot api.JobSnapshot
			decode(resp, &snapshot)
			Expect(snapshot.ID).To(Equal(id))
			Expect(snapshot.Status).To(Equal(api.JobStatusQueued))
		})

		It("rejects a malformed submission", func() {
			resp := do(http.MethodPost, "/api/v1alpha1/jobs", api.JobRequest{Vertical: "Pharmacy!", TargetLength: 2})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for an unknown job", func() {
			resp := do(http.MethodGet, fmt.Sprintf("/api/v1alpha1/jobs/%s", uuid.New()), nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("lists the caller's jobs", func() {
			submitJob()
			resp := do(http.MethodGet, "/api/v1alpha1/jobs", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var list api.JobSnapshotList
			decode(resp, &list)
			Expect(len(list.Jobs)).To(BeNumerically(">=", 1))
		})
	})

	Context("assignments", func() {
		It("creates an assignment for a completed job and walks it to completed", func() {
			jobID := submitJob()
			completeJob(jobID)

			resp := do(http.MethodPost, "/api/v1alpha1/assignments", api.AssignmentCreate{
				JobID: jobID, AssignedTo: "svetlana", AssignmentType: api.AssignmentTypeRecord, Priority: api.PriorityHigh,
			})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			var created api.Assignment
			decode(resp, &created)
			Expect(created.Status).To(Equal(api.AssignmentStatusAssigned))

			for _, status := range []api.AssignmentStatus{
				api.AssignmentStatusInProgress,
				api.AssignmentStatusAudioSubmitted,
				api.AssignmentStatusCompleted,
			} {
				resp = do(http.MethodPut, fmt.Sprintf("/api/v1alpha1/assignments/%s/status", created.ID),
					api.AssignmentStatusUpdate{Status: status})
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			}

			var final api.Assignment
			decode(resp, &final)
			Expect(final.Status).To(Equal(api.AssignmentStatusCompleted))
			Expect(final.CompletedAt).ToNot(BeNil())
		})

		It("refuses to assign a queued job", func() {
			jobID := submitJob()
			resp := do(http.MethodPost, "/api/v1alpha1/assignments", api.AssignmentCreate{
				JobID: jobID, AssignedTo: "svetlana", AssignmentType: api.AssignmentTypeRecord, Priority: api.PriorityMedium,
			})
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
		})

		It("rejects an illegal transition with 409", func() {
			jobID := submitJob()
			completeJob(jobID)

			resp := do(http.MethodPost, "/api/v1alpha1/assignments", api.AssignmentCreate{
				JobID: jobID, AssignedTo: "dmitri", AssignmentType: api.AssignmentTypeRecord, Priority: api.PriorityHigh,
			})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			var created api.Assignment
			decode(resp, &created)

			resp = do(http.MethodPut, fmt.Sprintf("/api/v1alpha1/assignments/%s/status", created.ID),
				api.AssignmentStatusUpdate{Status: api.AssignmentStatusCompleted})
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
		})

		It("exposes the blocking projection in the listing", func() {
			first := submitJob()
			completeJob(first)
			second := submitJob()
			completeJob(second)

			resp := do(http.MethodPost, "/api/v1alpha1/assignments", api.AssignmentCreate{
				JobID: first, AssignedTo: "amara", AssignmentType: api.AssignmentTypeRecord, Priority: api.PriorityHigh,
			})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			resp = do(http.MethodPost, "/api/v1alpha1/assignments", api.AssignmentCreate{
				JobID: second, AssignedTo: "amara", AssignmentType: api.AssignmentTypeRecord, Priority: api.PriorityLow,
			})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1alpha1/assignments", nil)
			Expect(err).To(BeNil())
			req.Header.Set("X-Narration-User", "amara")
			req.Header.Set("X-Narration-Org", "internal")
			listResp, err := server.Client().Do(req)
			Expect(err).To(BeNil())
			Expect(listResp.StatusCode).To(Equal(http.StatusOK))

			var mine []api.Assignment
			decode(listResp, &mine)
			Expect(len(mine)).To(BeNumerically(">=", 2))
			// priority-first presentation: high and unblocked before low and blocked
			Expect(mine[0].Priority).To(Equal(api.PriorityHigh))
			Expect(mine[0].Blocked).To(BeFalse())
			last := mine[len(mine)-1]
			Expect(last.Priority).To(Equal(api.PriorityLow))
			Expect(last.Blocked).To(BeTrue())
			Expect(last.BlockedReason).ToNot(BeNil())
		})

		It("updates priority and reader", func() {
			jobID := submitJob()
			completeJob(jobID)

			resp := do(http.MethodPost, "/api/v1alpha1/assignments", api.AssignmentCreate{
				JobID: jobID, AssignedTo: "svetlana", AssignmentType: api.AssignmentTypeEvaluate, Priority: api.PriorityLow,
			})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			var created api.Assignment
			decode(resp, &created)

			resp = do(http.MethodPut, fmt.Sprintf("/api/v1alpha1/assignments/%s/priority", created.ID),
				api.AssignmentPriorityUpdate{Priority: api.PriorityHigh})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			resp = do(http.MethodPut, fmt.Sprintf("/api/v1alpha1/assignments/%s/reader", created.ID),
				api.AssignmentReaderUpdate{AssignedTo: "dmitri"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var updated api.Assignment
			decode(resp, &updated)
			Expect(updated.AssignedTo).To(Equal("dmitri"))
		})

		It("deletes an assignment and returns the job to the pool", func() {
			jobID := submitJob()
			completeJob(jobID)

			resp := do(http.MethodPost, "/api/v1alpha1/assignments", api.AssignmentCreate{
				JobID: jobID, AssignedTo: "svetlana", AssignmentType: api.AssignmentTypeRecord, Priority: api.PriorityMedium,
			})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			var created api.Assignment
			decode(resp, &created)

			resp = do(http.MethodDelete, fmt.Sprintf("/api/v1alpha1/assignments/%s", created.ID), nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			resp = do(http.MethodGet, "/api/v1alpha1/jobs/available", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var pool api.JobSnapshotList
			decode(resp, &pool)
			ids := make([]uuid.UUID, 0, len(pool.Jobs))
			for _, j := range pool.Jobs {
				ids = append(ids, j.ID)
			}
			Expect(ids).To(ContainElement(jobID))
		})
	})

	Context("readers", func() {
		It("lists the active readers", func() {
			resp := do(http.MethodGet, "/api/v1alpha1/readers", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var readers []api.Reader
			decode(resp, &readers)
			Expect(len(readers)).To(BeNumerically(">=", 3))
		})
	})
})
