package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/pims/modules/devicehub/domain/entities/job"
	"github.com/iota-uz/pims/modules/devicehub/presentation/controllers/dtos"
	"github.com/iota-uz/pims/modules/devicehub/services"
	"github.com/iota-uz/pims/modules/inventory/domain/entities/property"
	invdtos "github.com/iota-uz/pims/modules/inventory/presentation/controllers/dtos"
	"github.com/iota-uz/pims/pkg/application"
	"github.com/iota-uz/pims/pkg/authz"
	"github.com/iota-uz/pims/pkg/composables"
	"github.com/iota-uz/pims/pkg/httpapi"
)

type JobsController struct {
	app      application.Application
	jobs     *services.JobService
	basePath string
}

func NewJobsController(app application.Application) application.Controller {
	return &JobsController{
		app:      app,
		jobs:     app.Service(services.JobService{}).(*services.JobService),
		basePath: "/api/v1/jobs",
	}
}

func (c *JobsController) Key() string {
	return c.basePath
}

// Register wires the queue endpoints. Claiming is deliberately open:
// printers and tags authenticate by network placement, not by token.
func (c *JobsController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/{kind:print|display}", c.Enqueue).Methods(http.MethodPost)
	router.HandleFunc("/{kind:print|display}", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{kind:print|display}/next", c.Claim).Methods(http.MethodGet)
}

func (c *JobsController) kind(w http.ResponseWriter, r *http.Request) (job.Kind, bool) {
	kind, ok := job.NewKind(mux.Vars(r)["kind"])
	if !ok {
		_ = httpapi.WriteBusinessError(w, http.StatusBadRequest, job.ErrUnknownKind)
		return job.Kind{}, false
	}
	return kind, true
}

func (c *JobsController) Enqueue(w http.ResponseWriter, r *http.Request) {
	kind, ok := c.kind(w, r)
	if !ok {
		return
	}
	actor, err := composables.UseUser(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	var dto dtos.EnqueueDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	if err := dto.Ok(); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}

	created, err := c.jobs.Enqueue(r.Context(), actor, kind, dto.PropertyID)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]any{
		"job": dtos.NewJobResponse(created),
	})
}

// Claim answers the polling device: 200 with the payload, 204 when the
// queue is empty, 404 when the claimed job's property no longer exists.
func (c *JobsController) Claim(w http.ResponseWriter, r *http.Request) {
	kind, ok := c.kind(w, r)
	if !ok {
		return
	}

	result, err := c.jobs.Claim(r.Context(), kind)
	if err != nil {
		c.writeError(w, err)
		return
	}
	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	body := map[string]any{"job": dtos.NewJobResponse(result.Job)}
	switch kind {
	case job.KindPrint:
		body["property"] = invdtos.NewPropertyResponse(*result.Property)
	case job.KindDisplay:
		body["payload"] = dtos.NewDisplayPayload(result.Display)
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, body)
}

func (c *JobsController) List(w http.ResponseWriter, r *http.Request) {
	kind, ok := c.kind(w, r)
	if !ok {
		return
	}
	actor, err := composables.UseUser(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	items, err := c.jobs.ListAll(r.Context(), actor, kind)
	if err != nil {
		c.writeError(w, err)
		return
	}
	out := make([]dtos.ListItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dtos.NewListItemResponse(item))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"items": out,
	})
}

func (c *JobsController) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authz.ErrForbidden):
		_ = httpapi.WriteBusinessError(w, http.StatusForbidden, err)
	case errors.Is(err, property.ErrNotFound),
		errors.Is(err, job.ErrPropertyGone):
		_ = httpapi.WriteBusinessError(w, http.StatusNotFound, err)
	case errors.Is(err, job.ErrDuplicatePending):
		_ = httpapi.WriteBusinessError(w, http.StatusConflict, err)
	default:
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}
