package httpapi

import "net/http"

// NotFoundHandler renders the JSON envelope for unknown routes.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = WriteError(w, http.StatusNotFound, "NOT_FOUND", "route not found", map[string]string{
			"path": r.URL.Path,
		})
	})
}

// MethodNotAllowedHandler renders the JSON envelope for known routes hit
// with the wrong verb.
func MethodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", map[string]string{
			"path":   r.URL.Path,
			"method": r.Method,
		})
	})
}
