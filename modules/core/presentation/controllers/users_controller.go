package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/modules/core/infrastructure/persistence"
	"github.com/iota-uz/pims/modules/core/presentation/controllers/dtos"
	"github.com/iota-uz/pims/modules/core/services"
	"github.com/iota-uz/pims/pkg/application"
	"github.com/iota-uz/pims/pkg/authz"
	"github.com/iota-uz/pims/pkg/composables"
	"github.com/iota-uz/pims/pkg/configuration"
	"github.com/iota-uz/pims/pkg/httpapi"
	"github.com/iota-uz/pims/pkg/middleware"
)

type UsersController struct {
	app      application.Application
	users    *services.UserService
	basePath string
}

func NewUsersController(app application.Application) application.Controller {
	return &UsersController{
		app:      app,
		users:    app.Service(services.UserService{}).(*services.UserService),
		basePath: "/api/v1/users",
	}
}

func (c *UsersController) Key() string {
	return c.basePath
}

func (c *UsersController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireAuthorization())
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{id:[0-9]+}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id:[0-9]+}", c.Delete).Methods(http.MethodDelete)
}

func (c *UsersController) List(w http.ResponseWriter, r *http.Request) {
	actor, err := composables.UseUser(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	conf := configuration.Use()
	params := &user.FindParams{Limit: conf.PageSize}

	if v := r.URL.Query().Get("role"); v != "" {
		role, ok := user.NewRole(v)
		if !ok {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ROLE", "unknown role", nil)
			return
		}
		params.Role = role
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

	items, total, err := c.users.GetPaginated(r.Context(), actor, params)
	if err != nil {
		if errors.Is(err, authz.ErrForbidden) {
			_ = httpapi.WriteBusinessError(w, http.StatusForbidden, err)
			return
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}

	out := make([]dtos.UserResponse, 0, len(items))
	for _, u := range items {
		out = append(out, dtos.NewUserResponse(u))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"items": out,
		"total": total,
	})
}

func (c *UsersController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid user id", nil)
		return
	}
	u, err := c.users.GetByID(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, persistence.ErrUserNotFound) {
			_ = httpapi.WriteError(w, http.StatusNotFound, "USER_NOT_FOUND", "user not found", nil)
			return
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"user": dtos.NewUserResponse(u),
	})
}

func (c *UsersController) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := composables.UseUser(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid user id", nil)
		return
	}
	if err := c.users.Delete(r.Context(), actor, uint(id)); err != nil {
		if errors.Is(err, authz.ErrForbidden) {
			_ = httpapi.WriteBusinessError(w, http.StatusForbidden, err)
			return
		}
		if errors.Is(err, persistence.ErrUserNotFound) {
			_ = httpapi.WriteError(w, http.StatusNotFound, "USER_NOT_FOUND", "user not found", nil)
			return
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"deleted": id,
	})
}
