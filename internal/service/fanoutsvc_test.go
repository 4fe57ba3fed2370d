package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"resqnowserver/internal/domain"
	"resqnowserver/internal/notifications"
)

func TestDeliverRejectsInvalidNotification(t *testing.T) {
	tests := []struct {
		name string
		n    domain.Notification
	}{
		{"missing title", domain.Notification{ID: "n1", Message: "m", RecipientType: domain.RecipientAllUsers}},
		{"missing message", domain.Notification{ID: "n1", Title: "t", RecipientType: domain.RecipientAllUsers}},
		{"missing recipient type", domain.Notification{ID: "n1", Title: "t", Message: "m"}},
		{"district target without district", domain.Notification{
			ID: "n1", Title: "t", Message: "m", RecipientType: domain.RecipientSpecificDistrict,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved := false
			users := &stubUsersStore{
				listAudienceFunc: func(ctx context.Context, rt domain.RecipientType, district string) ([]domain.UserAccount, error) {
					resolved = true
					return nil, nil
				},
			}
			deliveries := &stubDeliveryStore{}
			svc := &FanoutService{Users: users, Notifications: deliveries, Sender: &stubPushSender{}}

			svc.Deliver(context.Background(), tt.n)

			if resolved {
				t.Fatal("invalid notification must not resolve an audience")
			}
			if deliveries.calls != 0 {
				t.Fatal("invalid notification must not record a delivery")
			}
		})
	}
}

func TestDeliverEmptyAudience(t *testing.T) {
	users := &stubUsersStore{
		listAudienceFunc: func(ctx context.Context, rt domain.RecipientType, district string) ([]domain.UserAccount, error) {
			return nil, nil
		},
	}
	deliveries := &stubDeliveryStore{}
	svc := &FanoutService{Users: users, Notifications: deliveries, Sender: &stubPushSender{}}

	svc.Deliver(context.Background(), domain.Notification{
		ID: "n1", Title: "t", Message: "m", RecipientType: domain.RecipientDonorsOnly,
	})

	if deliveries.calls != 0 {
		t.Fatal("no delivery record expected for an empty audience")
	}
}

// Ten recipients: seven deliver (one of them via the legacy device token),
// two have no token at all, and one send is rejected for a stale token. The
// recorded outcome must account for every recipient exactly once.
func TestDeliverBookkeeping(t *testing.T) {
	audience := []domain.UserAccount{
		{UID: "u1", FCMToken: "tok-1"},
		{UID: "u2", FCMToken: "tok-2"},
		{UID: "u3", FCMToken: "tok-3"},
		{UID: "u4", FCMToken: "tok-4"},
		{UID: "u5", FCMToken: "tok-5"},
		{UID: "u6", FCMToken: "tok-6"},
		{UID: "u7", DeviceToken: "legacy-7"},
		{UID: "u8"},
		{UID: "u9"},
		{UID: "u10", FCMToken: "stale-10"},
	}

	var sentTokens []string
	sender := &stubPushSender{
		sendFunc: func(ctx context.Context, token string, msg notifications.Message) error {
			sentTokens = append(sentTokens, token)
			if token == "stale-10" {
				return notifications.ErrInvalidToken
			}
			return nil
		},
	}
	users := &stubUsersStore{
		listAudienceFunc: func(ctx context.Context, rt domain.RecipientType, district string) ([]domain.UserAccount, error) {
			if rt != domain.RecipientSpecificDistrict || district != "Kathmandu" {
				t.Fatalf("audience query = %v %q", rt, district)
			}
			return audience, nil
		},
	}

	var gotID string
	var gotDelivered, gotFailed int
	var gotInvalid []string
	deliveries := &stubDeliveryStore{
		recordFunc: func(ctx context.Context, id string, delivered, failed int, invalid []string) error {
			gotID, gotDelivered, gotFailed, gotInvalid = id, delivered, failed, invalid
			return nil
		},
	}
	svc := &FanoutService{Users: users, Notifications: deliveries, Sender: sender, Now: fixedNow}

	svc.Deliver(context.Background(), domain.Notification{
		ID:             "n1",
		Title:          "Urgent",
		Message:        "O- needed",
		RecipientType:  domain.RecipientSpecificDistrict,
		TargetDistrict: "Kathmandu",
	})

	if deliveries.calls != 1 {
		t.Fatalf("RecordDelivery called %d times, want exactly once", deliveries.calls)
	}
	if gotID != "n1" {
		t.Fatalf("recorded id = %q", gotID)
	}
	if gotDelivered != 7 || gotFailed != 3 {
		t.Fatalf("delivered/failed = %d/%d, want 7/3", gotDelivered, gotFailed)
	}
	if gotDelivered+gotFailed != len(audience) {
		t.Fatalf("outcome does not cover the audience: %d+%d != %d", gotDelivered, gotFailed, len(audience))
	}
	if len(gotInvalid) != 1 || gotInvalid[0] != "u10" {
		t.Fatalf("invalid token users = %v, want [u10]", gotInvalid)
	}
	// Eight sends: tokenless users never reach the sender.
	if len(sentTokens) != 8 {
		t.Fatalf("sender saw %d tokens, want 8", len(sentTokens))
	}
	if sentTokens[6] != "legacy-7" {
		t.Fatalf("expected device-token fallback, sends = %v", sentTokens)
	}
}

func TestDeliverMessagePayload(t *testing.T) {
	var got notifications.Message
	sender := &stubPushSender{
		sendFunc: func(ctx context.Context, token string, msg notifications.Message) error {
			got = msg
			return nil
		},
	}
	users := &stubUsersStore{
		listAudienceFunc: func(ctx context.Context, rt domain.RecipientType, district string) ([]domain.UserAccount, error) {
			return []domain.UserAccount{{UID: "u1", FCMToken: "tok-1"}}, nil
		},
	}
	svc := &FanoutService{Users: users, Notifications: &stubDeliveryStore{}, Sender: sender, Now: fixedNow}

	svc.Deliver(context.Background(), domain.Notification{
		ID: "n1", Title: "Urgent", Message: "O- needed", RecipientType: domain.RecipientAllUsers,
	})

	if got.Notification == nil || got.Notification.Title != "Urgent" || got.Notification.Body != "O- needed" {
		t.Fatalf("notification = %+v", got.Notification)
	}
	if got.Data["notificationId"] != "n1" {
		t.Fatalf("data = %v", got.Data)
	}
	if got.Data["type"] != "general" {
		t.Fatalf("type = %q, want the general default", got.Data["type"])
	}
	if got.Data["timestamp"] != fixedNow().Format(time.RFC3339) {
		t.Fatalf("timestamp = %q", got.Data["timestamp"])
	}
}

func TestDeliverKeepsGoingAfterSendFailures(t *testing.T) {
	sends := 0
	sender := &stubPushSender{
		sendFunc: func(ctx context.Context, token string, msg notifications.Message) error {
			sends++
			return errors.New("upstream 500")
		},
	}
	users := &stubUsersStore{
		listAudienceFunc: func(ctx context.Context, rt domain.RecipientType, district string) ([]domain.UserAccount, error) {
			return []domain.UserAccount{
				{UID: "u1", FCMToken: "tok-1"},
				{UID: "u2", FCMToken: "tok-2"},
				{UID: "u3", FCMToken: "tok-3"},
			}, nil
		},
	}
	var gotDelivered, gotFailed int
	var gotInvalid []string
	deliveries := &stubDeliveryStore{
		recordFunc: func(ctx context.Context, id string, delivered, failed int, invalid []string) error {
			gotDelivered, gotFailed, gotInvalid = delivered, failed, invalid
			return nil
		},
	}
	svc := &FanoutService{Users: users, Notifications: deliveries, Sender: sender}

	svc.Deliver(context.Background(), domain.Notification{
		ID: "n1", Title: "t", Message: "m", RecipientType: domain.RecipientAllUsers,
	})

	if sends != 3 {
		t.Fatalf("sends = %d, want every recipient attempted", sends)
	}
	if gotDelivered != 0 || gotFailed != 3 {
		t.Fatalf("delivered/failed = %d/%d", gotDelivered, gotFailed)
	}
	if len(gotInvalid) != 0 {
		t.Fatalf("invalid = %v, non-token failures are not stale tokens", gotInvalid)
	}
}
