// ABOUTME: JSON response helpers and the error-to-status mapping for REST handlers
// ABOUTME: Every error body is {"message": "..."}

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/2389/quill/internal/auth"
	"github.com/2389/quill/internal/blog"
)

// MessageResponse is the body of most write endpoints and of every error.
type MessageResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

// statusFor maps the blog and auth error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, blog.ErrConflict),
		errors.Is(err, blog.ErrInvalidCredentials),
		errors.Is(err, blog.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, blog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, blog.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as {message}. Unexpected errors are logged with the
// request's ID and reported to the client without detail.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
	}
	writeMessage(w, status, blog.Message(err))
}
