package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"resqnowserver/internal/domain"
	"resqnowserver/internal/identity"
)

type deleteAccountRequest struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

type deleteAccountResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UID     string `json:"uid"`
	Email   string `json:"email"`
}

// handleAuthDeleteAccount removes the identity-service principal for a user
// whose application data is already gone. An already-missing principal counts
// as success.
func (a *api) handleAuthDeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req deleteAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	uid := strings.TrimSpace(req.UID)
	if uid == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"uid": "required"}))
		return
	}

	if err := a.identitySvc.DeleteAccount(r.Context(), uid); err != nil && !errors.Is(err, identity.ErrUserNotFound) {
		a.logger.Error("auth account deletion failed", "uid", uid, "err", err)
		WriteDomainError(w, domain.Internal("failed to delete auth account", err))
		return
	}

	WriteJSON(w, http.StatusOK, deleteAccountResponse{
		Success: true,
		Message: "Auth account deleted successfully",
		UID:     uid,
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
	})
}
