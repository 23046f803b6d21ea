package v1alpha1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/scriptvoice/narration-planner/internal/service"
	"go.uber.org/zap"
)

// CreateJob handles POST /api/v1alpha1/jobs. Invalid requests fail
// validation here so the producer never accepts a malformed submission.
func (h *ServiceHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var request api.JobRequest
	if err := render.DecodeJSON(r.Body, &request); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request body: %v", err))
		return
	}

	if err := h.validator.Struct(request); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid job request: %v", err))
		return
	}

	job, err := h.jobSrv.CreateJob(r.Context(), &request)
	if err != nil {
		zap.S().Named("job_handler").Errorw("failed to create job", "error", err)
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to create job: %v", err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.JobCreated{ID: job.ID})
}

// GetJob handles GET /api/v1alpha1/jobs/{id}, the per-job poll target.
func (h *ServiceHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := h.jobSrv.GetJob(r.Context(), id)
	if err != nil {
		var notFound *service.ErrResourceNotFound
		if errors.As(err, &notFound) {
			renderError(w, r, http.StatusNotFound, err.Error())
			return
		}
		zap.S().Named("job_handler").Errorw("failed to get job", "error", err, "job_id", id)
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get job: %v", err))
		return
	}

	render.JSON(w, r, job.ToApiResource())
}

// ListJobs handles GET /api/v1alpha1/jobs, the bulk resync target.
func (h *ServiceHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobSrv.ListJobs(r.Context())
	if err != nil {
		zap.S().Named("job_handler").Errorw("failed to list jobs", "error", err)
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to list jobs: %v", err))
		return
	}

	render.JSON(w, r, api.JobSnapshotList{Jobs: jobs.ToApiResource()})
}

// ListAvailableJobs handles GET /api/v1alpha1/jobs/available: completed
// jobs not yet claimed by an assignment.
func (h *ServiceHandler) ListAvailableJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobSrv.ListAvailableJobs(r.Context())
	if err != nil {
		zap.S().Named("job_handler").Errorw("failed to list available jobs", "error", err)
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to list available jobs: %v", err))
		return
	}

	render.JSON(w, r, api.JobSnapshotList{Jobs: jobs.ToApiResource()})
}
