package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"finanze/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	}
}

// writeError maps service errors onto HTTP statuses. Unexpected errors are
// logged with full detail but surface as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validation.Message})
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, services.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: services.ErrInvalidCredentials.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// decodeBody parses a JSON request body into dst, rejecting unknown fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &services.ValidationError{Message: "invalid request body: " + err.Error()}
	}
	return nil
}

// pathID parses the {id} path segment as a positive integer.
func pathID(r *http.Request) (int64, error) {
	return parseID(r.PathValue("id"))
}
