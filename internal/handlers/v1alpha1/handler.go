package v1alpha1

import (
	"net/http"

	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/go-chi/render"
	"github.com/scriptvoice/narration-planner/internal/handlers/validator"
	"github.com/scriptvoice/narration-planner/internal/service"
	"github.com/scriptvoice/narration-planner/pkg/requestid"
)

// ServiceHandler translates the HTTP surface into service calls. All
// invariants live in the services; handlers only decode, validate and map
// errors to status codes.
type ServiceHandler struct {
	jobSrv        *service.JobService
	assignmentSrv *service.AssignmentService
	validator     *validator.Validator
}

func NewServiceHandler(jobSrv *service.JobService, assignmentSrv *service.AssignmentService) *ServiceHandler {
	v := validator.NewValidator()
	v.Register(validator.NewJobValidationRules()...)

	return &ServiceHandler{
		jobSrv:        jobSrv,
		assignmentSrv: assignmentSrv,
		validator:     v,
	}
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, api.Error{Message: message, RequestId: requestid.FromContextPtr(r.Context())})
}
