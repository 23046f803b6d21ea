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
	"github.com/scriptvoice/narration-planner/internal/workflow"
	"go.uber.org/zap"
)

func (h *ServiceHandler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var form api.AssignmentCreate
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request body: %v", err))
		return
	}

	if err := h.validator.Struct(form); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid assignment: %v", err))
		return
	}

	assignment, err := h.assignmentSrv.CreateAssignment(r.Context(), &form)
	if err != nil {
		h.renderAssignmentError(w, r, err, "failed to create assignment")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, assignment.ToApiResource())
}

// ListMyAssignments handles GET /api/v1alpha1/assignments with optional
// status and type query filters. The response carries the blocking
// projection for each row.
func (h *ServiceHandler) ListMyAssignments(w http.ResponseWriter, r *http.Request) {
	filter := &service.AssignmentFilter{
		Status: r.URL.Query().Get("status"),
		Type:   r.URL.Query().Get("type"),
	}

	assignments, err := h.assignmentSrv.ListMyAssignments(r.Context(), filter)
	if err != nil {
		zap.S().Named("assignment_handler").Errorw("failed to list assignments", "error", err)
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to list assignments: %v", err))
		return
	}

	render.JSON(w, r, assignments)
}

func (h *ServiceHandler) UpdateAssignmentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := assignmentID(w, r)
	if !ok {
		return
	}

	var update api.AssignmentStatusUpdate
	if err := render.DecodeJSON(r.Body, &update); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request body: %v", err))
		return
	}
	if err := h.validator.Struct(update); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid status update: %v", err))
		return
	}

	assignment, err := h.assignmentSrv.UpdateAssignmentStatus(r.Context(), id, &update)
	if err != nil {
		h.renderAssignmentError(w, r, err, "failed to update assignment status")
		return
	}

	render.JSON(w, r, assignment.ToApiResource())
}

func (h *ServiceHandler) UpdateAssignmentPriority(w http.ResponseWriter, r *http.Request) {
	id, ok := assignmentID(w, r)
	if !ok {
		return
	}

	var update api.AssignmentPriorityUpdate
	if err := render.DecodeJSON(r.Body, &update); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request body: %v", err))
		return
	}
	if err := h.validator.Struct(update); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid priority update: %v", err))
		return
	}

	assignment, err := h.assignmentSrv.UpdateAssignmentPriority(r.Context(), id, &update)
	if err != nil {
		h.renderAssignmentError(w, r, err, "failed to update assignment priority")
		return
	}

	render.JSON(w, r, assignment.ToApiResource())
}

func (h *ServiceHandler) UpdateAssignmentReader(w http.ResponseWriter, r *http.Request) {
	id, ok := assignmentID(w, r)
	if !ok {
		return
	}

	var update api.AssignmentReaderUpdate
	if err := render.DecodeJSON(r.Body, &update); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request body: %v", err))
		return
	}
	if err := h.validator.Struct(update); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid reader update: %v", err))
		return
	}

	assignment, err := h.assignmentSrv.UpdateAssignmentReader(r.Context(), id, &update)
	if err != nil {
		h.renderAssignmentError(w, r, err, "failed to reassign")
		return
	}

	render.JSON(w, r, assignment.ToApiResource())
}

func (h *ServiceHandler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := assignmentID(w, r)
	if !ok {
		return
	}

	if err := h.assignmentSrv.DeleteAssignment(r.Context(), id); err != nil {
		h.renderAssignmentError(w, r, err, "failed to delete assignment")
		return
	}

	render.NoContent(w, r)
}

func (h *ServiceHandler) ListAvailableReaders(w http.ResponseWriter, r *http.Request) {
	readers, err := h.assignmentSrv.ListAvailableReaders(r.Context())
	if err != nil {
		zap.S().Named("assignment_handler").Errorw("failed to list readers", "error", err)
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to list readers: %v", err))
		return
	}

	render.JSON(w, r, readers.ToApiResource())
}

func assignmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid assignment id")
		return uuid.Nil, false
	}
	return id, true
}

// renderAssignmentError maps service errors onto the status codes the
// client error taxonomy expects: 404 drops the entry, 400/409 surface
// without retry, everything else is treated as transient.
func (h *ServiceHandler) renderAssignmentError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var (
		notFound       *service.ErrResourceNotFound
		readerNotFound *service.ErrReaderNotFound
		notAvailable   *service.ErrJobNotAvailable
		invalid        *workflow.InvalidTransitionError
	)

	switch {
	case errors.As(err, &notFound):
		renderError(w, r, http.StatusNotFound, err.Error())
	case errors.As(err, &readerNotFound):
		renderError(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &notAvailable):
		renderError(w, r, http.StatusConflict, err.Error())
	case errors.As(err, &invalid):
		renderError(w, r, http.StatusConflict, err.Error())
	default:
		zap.S().Named("assignment_handler").Errorw(msg, "error", err)
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("%s: %v", msg, err))
	}
}
