// Package httpx holds the JSON envelope, error mapping and middleware shared by the HTTP adapters.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dejobratic/shopkart/internal/apperrors"
)

const maxBodyBytes = 1 << 20

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]any{"error": message})
}

// WriteStatus answers the API-style endpoints, which always return 200 with a status string.
func WriteStatus(w http.ResponseWriter, status string) {
	WriteJSON(w, http.StatusOK, map[string]any{"status": status})
}

// StatusFor maps an error kind onto an HTTP status code.
func StatusFor(err error) int {
	switch apperrors.Kind(err) {
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrForbidden:
		return http.StatusForbidden
	case apperrors.ErrInvalidState, apperrors.ErrConflict:
		return http.StatusConflict
	case apperrors.ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteAppError writes err using its kind; unclassified errors are logged and hidden behind a generic message.
func WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		WriteError(w, status, "internal server error")
		return
	}
	WriteError(w, status, err.Error())
}

// DecodeJSON decodes a bounded request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Validation("request body is required")
		}
		return apperrors.Validation("invalid JSON payload")
	}
	return nil
}
