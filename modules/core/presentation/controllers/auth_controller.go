package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/modules/core/infrastructure/persistence"
	"github.com/iota-uz/pims/modules/core/presentation/controllers/dtos"
	"github.com/iota-uz/pims/modules/core/services"
	"github.com/iota-uz/pims/pkg/application"
	"github.com/iota-uz/pims/pkg/composables"
	"github.com/iota-uz/pims/pkg/httpapi"
	"github.com/iota-uz/pims/pkg/middleware"
)

type AuthController struct {
	app      application.Application
	auth     *services.AuthService
	basePath string
}

func NewAuthController(app application.Application) application.Controller {
	return &AuthController{
		app:      app,
		auth:     app.Service(services.AuthService{}).(*services.AuthService),
		basePath: "/api/v1/auth",
	}
}

func (c *AuthController) Key() string {
	return c.basePath
}

func (c *AuthController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/sign-up", c.SignUp).Methods(http.MethodPost)
	router.HandleFunc("/sign-in", c.SignIn).Methods(http.MethodPost)

	protected := r.PathPrefix(c.basePath).Subrouter()
	protected.Use(middleware.RequireAuthorization())
	protected.HandleFunc("/me", c.Me).Methods(http.MethodGet)
	protected.HandleFunc("/sign-out", c.SignOut).Methods(http.MethodPost)
}

func (c *AuthController) SignUp(w http.ResponseWriter, r *http.Request) {
	var dto dtos.SignUpDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if err := dto.Ok(); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}

	// Actor is optional here: anonymous sign-up creates staff accounts.
	actor, _ := composables.UseUser(r.Context())

	created, err := c.auth.SignUp(r.Context(), actor, dto.Name, dto.Email, dto.Password, user.Role(dto.Role), dto.Department)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRoleGrantForbidden):
			_ = httpapi.WriteBusinessError(w, http.StatusUnauthorized, err)
		case errors.Is(err, persistence.ErrEmailTaken):
			_ = httpapi.WriteError(w, http.StatusConflict, "USER_EXISTS", "user already exists", nil)
		case errors.Is(err, persistence.ErrDepartmentHeld):
			_ = httpapi.WriteError(w, http.StatusConflict, "DEPARTMENT_TAKEN", "department already has an assigned custodian", nil)
		default:
			_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		}
		return
	}

	_ = httpapi.WriteJSON(w, http.StatusCreated, map[string]any{
		"user": dtos.NewUserResponse(created),
	})
}

func (c *AuthController) SignIn(w http.ResponseWriter, r *http.Request) {
	var dto dtos.SignInDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json", nil)
		return
	}
	if err := dto.Ok(); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}

	u, token, err := c.auth.SignIn(r.Context(), dto.Email, dto.Password)
	if err != nil {
		switch {
		case errors.Is(err, persistence.ErrUserNotFound):
			_ = httpapi.WriteError(w, http.StatusNotFound, "USER_NOT_FOUND", "user not found", nil)
		case errors.Is(err, services.ErrInvalidCredentials):
			_ = httpapi.WriteBusinessError(w, http.StatusUnauthorized, err)
		default:
			_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
		}
		return
	}

	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  dtos.NewUserResponse(u),
	})
}

// SignOut acknowledges the client discarding its token. Tokens are
// stateless, so there is no server-side session to tear down.
func (c *AuthController) SignOut(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	u, err := composables.UseUser(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"user": dtos.NewUserResponse(u),
	})
}
