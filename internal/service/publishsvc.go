package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"resqnowserver/internal/domain"
)

type NotificationsStore interface {
	Create(ctx context.Context, n domain.Notification) (domain.Notification, error)
	Get(ctx context.Context, id string) (domain.Notification, error)
}

// PublishService accepts an admin's notification, persists it, and hands it
// to the fanout. Persisting and responding are synchronous; delivery is not,
// so Get exists to read the delivery outcome back later.
type PublishService struct {
	Users         UserGetter
	Notifications NotificationsStore
	Fanout        *FanoutService
	Logger        *slog.Logger
	NewID         func() string
}

type PublishInput struct {
	Title          string `json:"title"`
	Message        string `json:"message"`
	Type           string `json:"type"`
	RecipientType  string `json:"recipientType"`
	TargetDistrict string `json:"targetDistrict"`
	UserID         string `json:"userId"`
}

func (s *PublishService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *PublishService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *PublishService) Publish(ctx context.Context, callerUID string, in PublishInput) (domain.Notification, error) {
	if err := requireAdmin(ctx, s.Users, callerUID); err != nil {
		return domain.Notification{}, err
	}

	fields := map[string]string{}
	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "required"
	}
	if strings.TrimSpace(in.Message) == "" {
		fields["message"] = "required"
	}
	recipientType := domain.RecipientType(strings.TrimSpace(in.RecipientType))
	switch recipientType {
	case domain.RecipientAllUsers, domain.RecipientDonorsOnly:
	case domain.RecipientSpecificDistrict:
		if strings.TrimSpace(in.TargetDistrict) == "" {
			fields["targetDistrict"] = "required for specific_district"
		}
	case "":
		fields["recipientType"] = "required"
	default:
		fields["recipientType"] = "must be all_users, donors_only or specific_district"
	}
	if len(fields) > 0 {
		return domain.Notification{}, domain.NewValidationError(fields)
	}

	n := domain.Notification{
		ID:             s.newID(),
		Title:          strings.TrimSpace(in.Title),
		Message:        strings.TrimSpace(in.Message),
		Type:           strings.TrimSpace(in.Type),
		RecipientType:  recipientType,
		TargetDistrict: strings.TrimSpace(in.TargetDistrict),
		UserID:         strings.TrimSpace(in.UserID),
	}

	created, err := s.Notifications.Create(ctx, n)
	if err != nil {
		return domain.Notification{}, domain.Internal("failed to create notification", err)
	}

	if s.Fanout != nil {
		// The response does not wait for delivery. WithoutCancel keeps the
		// fanout alive after the request context is torn down.
		s.logger().Info("notification created, dispatching fanout",
			"notification_id", created.ID, "recipient_type", created.RecipientType)
		go s.Fanout.Deliver(context.WithoutCancel(ctx), created)
	}
	return created, nil
}

// Get reads a notification back, delivery bookkeeping included. Before the
// fanout finishes, the delivery fields are zero and SentAt is nil.
func (s *PublishService) Get(ctx context.Context, callerUID, id string) (domain.Notification, error) {
	if err := requireAdmin(ctx, s.Users, callerUID); err != nil {
		return domain.Notification{}, err
	}
	if strings.TrimSpace(id) == "" {
		return domain.Notification{}, fmt.Errorf("%w: a notification id is required", domain.ErrInvalidArgument)
	}

	n, err := s.Notifications.Get(ctx, id)
	if err != nil {
		return domain.Notification{}, domain.Internal("failed to load notification", err)
	}
	return n, nil
}
