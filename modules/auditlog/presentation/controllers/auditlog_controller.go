package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/iota-uz/pims/modules/auditlog/domain/entities/record"
	"github.com/iota-uz/pims/modules/auditlog/services"
	"github.com/iota-uz/pims/pkg/application"
	"github.com/iota-uz/pims/pkg/authz"
	"github.com/iota-uz/pims/pkg/composables"
	"github.com/iota-uz/pims/pkg/configuration"
	"github.com/iota-uz/pims/pkg/httpapi"
	"github.com/iota-uz/pims/pkg/middleware"
)

type AuditLogController struct {
	app      application.Application
	records  *services.AuditLogService
	basePath string
}

func NewAuditLogController(app application.Application) application.Controller {
	return &AuditLogController{
		app:      app,
		records:  app.Service(services.AuditLogService{}).(*services.AuditLogService),
		basePath: "/api/v1/audit",
	}
}

func (c *AuditLogController) Key() string {
	return c.basePath
}

func (c *AuditLogController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireAuthorization())
	router.HandleFunc("", c.List).Methods(http.MethodGet)
}

type recordResponse struct {
	ID         uint      `json:"id"`
	Action     string    `json:"action"`
	ActorID    *uint     `json:"actorId,omitempty"`
	ActorName  string    `json:"actorName,omitempty"`
	PropertyID *uint     `json:"propertyId,omitempty"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (c *AuditLogController) List(w http.ResponseWriter, r *http.Request) {
	actor, err := composables.UseUser(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	conf := configuration.Use()
	params := &record.FindParams{
		Action: r.URL.Query().Get("action"),
		Limit:  conf.PageSize,
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= conf.MaxPageSize {
			params.Limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			params.Offset = parsed
		}
	}

	items, total, err := c.records.GetPaginated(r.Context(), actor, params)
	if err != nil {
		if errors.Is(err, authz.ErrForbidden) {
			_ = httpapi.WriteBusinessError(w, http.StatusForbidden, err)
			return
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}

	out := make([]recordResponse, 0, len(items))
	for _, item := range items {
		out = append(out, recordResponse{
			ID:         item.ID,
			Action:     item.Action,
			ActorID:    item.ActorID,
			ActorName:  item.ActorName,
			PropertyID: item.PropertyID,
			Details:    item.Details,
			CreatedAt:  item.CreatedAt,
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"items": out,
		"total": total,
	})
}
