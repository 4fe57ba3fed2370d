package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"resqnowserver/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: message}})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteDomainError maps the error taxonomy onto HTTP statuses. An
// InternalError's caller-facing message survives the mapping; everything else
// unclassified collapses to a generic 500.
func WriteDomainError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		WriteError(w, http.StatusBadRequest, "validation_error", ve.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidArgument):
		WriteError(w, http.StatusBadRequest, "invalid_argument", messageOf(err, "invalid request"))
	case errors.Is(err, domain.ErrUnauthenticated):
		WriteError(w, http.StatusUnauthorized, "unauthenticated", messageOf(err, "authentication required"))
	case errors.Is(err, domain.ErrPermissionDenied):
		WriteError(w, http.StatusForbidden, "permission_denied", messageOf(err, "permission denied"))
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", messageOf(err, "not found"))
	default:
		var ie *domain.InternalError
		if errors.As(err, &ie) && ie.Message != "" {
			WriteError(w, http.StatusInternalServerError, "internal_error", ie.Message)
			return
		}
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func messageOf(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
