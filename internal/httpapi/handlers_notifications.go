package httpapi

import (
	"net/http"
	"time"

	"resqnowserver/internal/domain"
	"resqnowserver/internal/service"
)

type notificationResponse struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	Type           string `json:"type,omitempty"`
	RecipientType  string `json:"recipientType"`
	TargetDistrict string `json:"targetDistrict,omitempty"`
	CreatedAt      string `json:"createdAt"`

	DeliveredCount    int      `json:"deliveredCount"`
	FailedCount       int      `json:"failedCount"`
	InvalidTokenUsers []string `json:"invalidTokenUsers,omitempty"`
	SentAt            string   `json:"sentAt,omitempty"`
}

func toNotificationResponse(n domain.Notification) notificationResponse {
	resp := notificationResponse{
		ID:                n.ID,
		Title:             n.Title,
		Message:           n.Message,
		Type:              n.Type,
		RecipientType:     string(n.RecipientType),
		TargetDistrict:    n.TargetDistrict,
		CreatedAt:         n.CreatedAt.UTC().Format(time.RFC3339),
		DeliveredCount:    n.DeliveredCount,
		FailedCount:       n.FailedCount,
		InvalidTokenUsers: n.InvalidTokenUsers,
	}
	if n.SentAt != nil {
		resp.SentAt = n.SentAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func (a *api) handleNotificationsCreate(w http.ResponseWriter, r *http.Request) {
	var req service.PublishInput
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	n, err := a.publishSvc.Publish(r.Context(), CurrentUID(r.Context()), req)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, toNotificationResponse(n))
}

func (a *api) handleNotificationsGet(w http.ResponseWriter, r *http.Request) {
	n, err := a.publishSvc.Get(r.Context(), CurrentUID(r.Context()), r.PathValue("id"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toNotificationResponse(n))
}
