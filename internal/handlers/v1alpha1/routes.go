package v1alpha1

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the v1alpha1 API surface.
func (h *ServiceHandler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Route("/jobs", func(r chi.Router) {
		r.Post("/", h.CreateJob)
		r.Get("/", h.ListJobs)
		r.Get("/available", h.ListAvailableJobs)
		r.Get("/{id}", h.GetJob)
	})

	router.Route("/assignments", func(r chi.Router) {
		r.Post("/", h.CreateAssignment)
		r.Get("/", h.ListMyAssignments)
		r.Put("/{id}/status", h.UpdateAssignmentStatus)
		r.Put("/{id}/priority", h.UpdateAssignmentPriority)
		r.Put("/{id}/reader", h.UpdateAssignmentReader)
		r.Delete("/{id}", h.DeleteAssignment)
	})

	router.Get("/readers", h.ListAvailableReaders)

	return router
}
