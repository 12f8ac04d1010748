package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iota-uz/pims/pkg/serrors"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// WriteBusinessError renders a serrors.BaseError with the given status,
// falling back to a generic 500 envelope for unexpected errors.
func WriteBusinessError(w http.ResponseWriter, status int, err error) error {
	var base *serrors.BaseError
	if errors.As(err, &base) {
		return WriteError(w, status, base.Code, base.Message, nil)
	}
	return WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
}
