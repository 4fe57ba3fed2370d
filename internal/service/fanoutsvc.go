package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"resqnowserver/internal/domain"
	"resqnowserver/internal/notifications"
	"resqnowserver/internal/observability/metrics"
)

type AudienceStore interface {
	ListAudience(ctx context.Context, recipientType domain.RecipientType, district string) ([]domain.UserAccount, error)
}

type DeliveryStore interface {
	RecordDelivery(ctx context.Context, id string, delivered, failed int, invalidTokenUsers []string) error
}

type PushSender interface {
	Send(ctx context.Context, token string, msg notifications.Message) error
}

// FanoutService delivers a newly created notification to its audience. It has
// no caller to report to: every failure is logged and swallowed, and the
// triggering record is updated exactly once after the whole audience has been
// processed.
type FanoutService struct {
	Users         AudienceStore
	Notifications DeliveryStore
	Sender        PushSender
	Logger        *slog.Logger
	Now           func() time.Time
}

func (s *FanoutService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *FanoutService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *FanoutService) Deliver(ctx context.Context, n domain.Notification) {
	logger := s.logger().With("notification_id", n.ID)

	if n.Title == "" || n.Message == "" || n.RecipientType == "" {
		logger.Error("fanout: invalid notification data",
			"has_title", n.Title != "", "has_message", n.Message != "", "recipient_type", n.RecipientType)
		return
	}
	// A district-targeted notification without a district would otherwise
	// match every user; treat it as invalid instead.
	if n.RecipientType == domain.RecipientSpecificDistrict && strings.TrimSpace(n.TargetDistrict) == "" {
		logger.Error("fanout: specific_district notification without target district")
		return
	}

	audience, err := s.Users.ListAudience(ctx, n.RecipientType, n.TargetDistrict)
	if err != nil {
		logger.Error("fanout: audience resolution failed", "err", err)
		return
	}
	if len(audience) == 0 {
		logger.Info("fanout: no users match notification criteria",
			"recipient_type", n.RecipientType, "target_district", n.TargetDistrict)
		return
	}

	msgType := n.Type
	if msgType == "" {
		msgType = "general"
	}
	data := map[string]string{
		"notificationId": n.ID,
		"type":           msgType,
		"timestamp":      s.now().UTC().Format(time.RFC3339),
	}

	delivered := 0
	failed := 0
	var invalidTokenUsers []string

	// Every recipient gets an attempt; earlier failures never short-circuit
	// the loop, so delivered+failed always equals the audience size.
	for _, u := range audience {
		token := u.FCMToken
		if token == "" {
			token = u.DeviceToken
		}
		if token == "" {
			logger.Info("fanout: no push token for user, skipping", "uid", u.UID)
			failed++
			metrics.PushDeliveriesTotal.WithLabelValues("failed").Inc()
			continue
		}

		msg := notifications.Message{
			Data: data,
			Notification: &notifications.Notification{
				Title: n.Title,
				Body:  n.Message,
			},
		}
		if err := s.Sender.Send(ctx, token, msg); err != nil {
			failed++
			if errors.Is(err, notifications.ErrInvalidToken) {
				invalidTokenUsers = append(invalidTokenUsers, u.UID)
				metrics.PushDeliveriesTotal.WithLabelValues("invalid_token").Inc()
			} else {
				metrics.PushDeliveriesTotal.WithLabelValues("failed").Inc()
			}
			logger.Error("fanout: delivery failed", "uid", u.UID, "err", err)
			continue
		}
		delivered++
		metrics.PushDeliveriesTotal.WithLabelValues("delivered").Inc()
	}

	if err := s.Notifications.RecordDelivery(ctx, n.ID, delivered, failed, invalidTokenUsers); err != nil {
		logger.Error("fanout: failed to record delivery outcome", "err", err)
		return
	}

	logger.Info("fanout: notification delivered", "delivered", delivered, "failed", failed,
		"invalid_tokens", len(invalidTokenUsers))
}
