package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	corepersistence "github.com/iota-uz/pims/modules/core/infrastructure/persistence"
	"github.com/iota-uz/pims/modules/inventory/domain/entities/assignment"
	"github.com/iota-uz/pims/modules/inventory/domain/entities/property"
	"github.com/iota-uz/pims/modules/inventory/presentation/controllers/dtos"
	"github.com/iota-uz/pims/modules/inventory/services"
	"github.com/iota-uz/pims/pkg/application"
	"github.com/iota-uz/pims/pkg/authz"
	"github.com/iota-uz/pims/pkg/composables"
	"github.com/iota-uz/pims/pkg/configuration"
	"github.com/iota-uz/pims/pkg/httpapi"
	"github.com/iota-uz/pims/pkg/middleware"
)

type PropertiesController struct {
	app         application.Application
	properties  *services.PropertyService
	assignments *services.AssignmentService
	basePath    string
}

func NewPropertiesController(app application.Application) application.Controller {
	return &PropertiesController{
		app:         app,
		properties:  app.Service(services.PropertyService{}).(*services.PropertyService),
		assignments: app.Service(services.AssignmentService{}).(*services.AssignmentService),
		basePath:    "/api/v1/properties",
	}
}

func (c *PropertiesController) Key() string {
	return c.basePath
}

func (c *PropertiesController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireAuthorization())
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/assign", c.Assign).Methods(http.MethodPost)
	router.HandleFunc("/reassignments/pending", c.ListPendingReassignments).Methods(http.MethodGet)
	router.HandleFunc("/reassignments/review", c.ReviewReassignment).Methods(http.MethodPost)
	router.HandleFunc("/{id:[0-9]+}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id:[0-9]+}", c.Update).Methods(http.MethodPut)
	router.HandleFunc("/{id:[0-9]+}", c.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/{id:[0-9]+}/details", c.UpdateDetails).Methods(http.MethodPatch)
	router.HandleFunc("/{id:[0-9]+}/location-detail", c.UpdateLocationDetail).Methods(http.MethodPatch)
}

func (c *PropertiesController) List(w http.ResponseWriter, r *http.Request) {
	actor, err := composables.UseUser(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	conf := configuration.Use()
	limit := conf.PageSize
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= conf.MaxPageSize {
			limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	items, total, err := c.properties.GetPaginated(r.Context(), actor, limit, offset)
	if err != nil {
		c.writeError(w, err)
		return
	}
	out := make([]dtos.ListItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dtos.NewListItemResponse(item))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"items":  out,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (c *PropertiesController) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := composables.UseUser(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	var dto dtos.PropertyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	if err := dto.Ok(); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}
	entity, err := dto.ToEntity()
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}

	created, err := c.properties.Create(r.Context(), actor, entity)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]any{
		"property": dtos.NewPropertyResponse(created),
	})
}

func (c *PropertiesController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid property id", nil)
		return
	}
	entity, details, err := c.properties.GetWithDetails(r.Context(), uint(id))
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"property": dtos.NewPropertyResponse(entity),
		"details":  dtos.NewDetailsResponse(details),
	})
}

func (c *PropertiesController) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := composables.UseUser(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid property id", nil)
		return
	}

	var dto dtos.PropertyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	if err := dto.Ok(); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}
	entity, err := dto.ToEntity()
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}
	entity.ID = uint(id)

	updated, err := c.properties.Update(r.Context(), actor, entity)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"property": dtos.NewPropertyResponse(updated),
	})
}

func (c *PropertiesController) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	actor, err := composables.UseUser(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid property id", nil)
		return
	}

	var dto dtos.DetailsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}

	updated, err := c.properties.UpdateDetails(r.Context(), actor, dto.ToEntity(uint(id)))
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"details": dtos.NewDetailsResponse(updated),
	})
}

// UpdateLocationDetail is the custodian's own endpoint: the assigned
// custodian records where the property sits without admin involvement.
func (c *PropertiesController) UpdateLocationDetail(w http.ResponseWriter, r *http.Request) {
	actor, err := composables.UseUser(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid property id", nil)
		return
	}

	var dto dtos.LocationDetailDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	if err := dto.Ok(); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}

	updated, err := c.properties.UpdateLocationDetail(r.Context(), actor, uint(id), dto.LocationDetail)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"property": dtos.NewPropertyResponse(updated),
	})
}

// Delete asks the client to confirm when the property is still assigned
// to a custodian. The unconfirmed response is 200 with a flag, not an
// error.
func (c *PropertiesController) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := composables.UseUser(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid property id", nil)
		return
	}

	var dto dtos.DeleteDTO
	if r.Body != nil {
		// A missing body means an unconfirmed delete.
		_ = json.NewDecoder(r.Body).Decode(&dto)
	}

	result, err := c.properties.Delete(r.Context(), actor, uint(id), dto.Confirmed)
	if err != nil {
		c.writeError(w, err)
		return
	}
	if result.RequiresConfirmation {
		_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
			"requiresConfirmation": true,
			"message":              "this property is assigned to a custodian; repeat the request with confirmed=true",
		})
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"deleted": id,
	})
}

// Assign reports what actually happened: 200 when an admin set the
// custodian, 201 when a custodian delegated for the first time, 202
// when the change was queued for review.
func (c *PropertiesController) Assign(w http.ResponseWriter, r *http.Request) {
	actor, err := composables.UseUser(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	var dto dtos.AssignDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	if err := dto.Ok(); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}

	result, err := c.assignments.Assign(r.Context(), actor, dto.PropertyID, dto.UserID)
	if err != nil {
		if errors.Is(err, corepersistence.ErrUserNotFound) {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "ASSIGN_INVALID_ASSIGNEE", "assignee not found", nil)
			return
		}
		c.writeError(w, err)
		return
	}

	switch result.Outcome {
	case services.OutcomeCustodianAssigned:
		_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
			"outcome":    result.Outcome,
			"propertyId": result.Custodian.PropertyID,
			"custodian":  result.Custodian.Custodian,
			"department": result.Custodian.Department,
		})
	case services.OutcomeStaffDelegated:
		_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]any{
			"outcome":    result.Outcome,
			"propertyId": result.Delegation.PropertyID,
			"staffId":    result.Delegation.StaffID,
		})
	case services.OutcomeReassignmentRequested:
		_ = httpapi.WriteJSON(w, http.StatusAccepted, map[string]any{
			"outcome": result.Outcome,
			"request": dtos.NewRequestResponse(result.Request),
		})
	default:
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}

func (c *PropertiesController) ListPendingReassignments(w http.ResponseWriter, r *http.Request) {
	actor, err := composables.UseUser(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	items, err := c.assignments.ListPending(r.Context(), actor)
	if err != nil {
		c.writeError(w, err)
		return
	}
	out := make([]dtos.PendingRequestResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dtos.NewPendingRequestResponse(item))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"items": out,
	})
}

func (c *PropertiesController) ReviewReassignment(w http.ResponseWriter, r *http.Request) {
	actor, err := composables.UseUser(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	var dto dtos.ReviewDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	if err := dto.Ok(); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}

	reviewed, err := c.assignments.ReviewReassignment(r.Context(), actor, dto.RequestID, dto.NewStatus)
	if err != nil {
		c.writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"request": dtos.NewRequestResponse(reviewed),
	})
}

// writeError translates domain errors into the HTTP contract shared by
// all inventory endpoints.
func (c *PropertiesController) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assignment.ErrInvalidAssignee),
		errors.Is(err, assignment.ErrInvalidDecision),
		errors.Is(err, property.ErrInvalidCategory):
		_ = httpapi.WriteBusinessError(w, http.StatusBadRequest, err)
	case errors.Is(err, authz.ErrForbidden),
		errors.Is(err, assignment.ErrNotOwner):
		_ = httpapi.WriteBusinessError(w, http.StatusForbidden, err)
	case errors.Is(err, property.ErrNotFound),
		errors.Is(err, property.ErrDetailsNotFound),
		errors.Is(err, assignment.ErrRequestNotFound):
		_ = httpapi.WriteBusinessError(w, http.StatusNotFound, err)
	case errors.Is(err, property.ErrPropertyNoTaken),
		errors.Is(err, property.ErrSerialNoTaken),
		errors.Is(err, assignment.ErrDuplicatePendingRequest),
		errors.Is(err, assignment.ErrAlreadyDelegated),
		errors.Is(err, assignment.ErrAlreadyReviewed):
		_ = httpapi.WriteBusinessError(w, http.StatusConflict, err)
	default:
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}
