package service

import (
	"context"
	"errors"
	"time"

	"resqnowserver/internal/domain"
	"resqnowserver/internal/notifications"
)

type stubUsersStore struct {
	getFunc           func(context.Context, string) (domain.UserAccount, error)
	markSuspendedFunc func(context.Context, string, string, string) error
	markActiveFunc    func(context.Context, string) error
	deleteFunc        func(context.Context, string) error
	listSuspendedFunc func(context.Context) ([]domain.UserAccount, error)
	listAudienceFunc  func(context.Context, domain.RecipientType, string) ([]domain.UserAccount, error)
}

func (s *stubUsersStore) GetUser(ctx context.Context, uid string) (domain.UserAccount, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, uid)
	}
	return domain.UserAccount{}, errors.New("get not stubbed")
}

func (s *stubUsersStore) MarkSuspended(ctx context.Context, uid, reason, deniedMessage string) error {
	if s.markSuspendedFunc != nil {
		return s.markSuspendedFunc(ctx, uid, reason, deniedMessage)
	}
	return errors.New("mark suspended not stubbed")
}

func (s *stubUsersStore) MarkActive(ctx context.Context, uid string) error {
	if s.markActiveFunc != nil {
		return s.markActiveFunc(ctx, uid)
	}
	return errors.New("mark active not stubbed")
}

func (s *stubUsersStore) DeleteUser(ctx context.Context, uid string) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, uid)
	}
	return errors.New("delete user not stubbed")
}

func (s *stubUsersStore) ListSuspended(ctx context.Context) ([]domain.UserAccount, error) {
	if s.listSuspendedFunc != nil {
		return s.listSuspendedFunc(ctx)
	}
	return nil, errors.New("list suspended not stubbed")
}

func (s *stubUsersStore) ListAudience(ctx context.Context, recipientType domain.RecipientType, district string) ([]domain.UserAccount, error) {
	if s.listAudienceFunc != nil {
		return s.listAudienceFunc(ctx, recipientType, district)
	}
	return nil, errors.New("list audience not stubbed")
}

// adminCaller stubs the caller lookup for admin-gated operations and defers
// everything else to other.
func adminCaller(other func(context.Context, string) (domain.UserAccount, error)) func(context.Context, string) (domain.UserAccount, error) {
	return func(ctx context.Context, uid string) (domain.UserAccount, error) {
		if uid == "admin-1" {
			return domain.UserAccount{UID: "admin-1", Role: "admin"}, nil
		}
		if other != nil {
			return other(ctx, uid)
		}
		return domain.UserAccount{}, domain.ErrNotFound
	}
}

type stubBlockedStore struct {
	getFunc    func(context.Context, string) (domain.BlockedEmail, error)
	upsertFunc func(context.Context, domain.BlockedEmail) error
	batchFunc  func(context.Context, []domain.BlockedEmail) error
	deleteFunc func(context.Context, string) error
}

func (s *stubBlockedStore) Get(ctx context.Context, email string) (domain.BlockedEmail, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, email)
	}
	return domain.BlockedEmail{}, domain.ErrNotFound
}

func (s *stubBlockedStore) Upsert(ctx context.Context, b domain.BlockedEmail) error {
	if s.upsertFunc != nil {
		return s.upsertFunc(ctx, b)
	}
	return nil
}

func (s *stubBlockedStore) UpsertBatch(ctx context.Context, records []domain.BlockedEmail) error {
	if s.batchFunc != nil {
		return s.batchFunc(ctx, records)
	}
	return nil
}

func (s *stubBlockedStore) Delete(ctx context.Context, email string) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, email)
	}
	return nil
}

type stubUserDataStore struct {
	deleteAllFunc func(context.Context, string) (domain.DeletedCounts, error)
}

func (s *stubUserDataStore) DeleteAll(ctx context.Context, uid string) (domain.DeletedCounts, error) {
	if s.deleteAllFunc != nil {
		return s.deleteAllFunc(ctx, uid)
	}
	return domain.DeletedCounts{}, nil
}

type stubIdentity struct {
	deleteFunc func(context.Context, string) error
	revokeFunc func(context.Context, string) error
}

func (s *stubIdentity) DeleteAccount(ctx context.Context, uid string) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, uid)
	}
	return nil
}

func (s *stubIdentity) RevokeSessions(ctx context.Context, uid string) error {
	if s.revokeFunc != nil {
		return s.revokeFunc(ctx, uid)
	}
	return nil
}

type stubPushSender struct {
	sendFunc func(context.Context, string, notifications.Message) error
}

func (s *stubPushSender) Send(ctx context.Context, token string, msg notifications.Message) error {
	if s.sendFunc != nil {
		return s.sendFunc(ctx, token, msg)
	}
	return nil
}

type stubDeliveryStore struct {
	recordFunc func(context.Context, string, int, int, []string) error
	calls      int
}

func (s *stubDeliveryStore) RecordDelivery(ctx context.Context, id string, delivered, failed int, invalidTokenUsers []string) error {
	s.calls++
	if s.recordFunc != nil {
		return s.recordFunc(ctx, id, delivered, failed, invalidTokenUsers)
	}
	return nil
}

func fixedNow() time.Time {
	return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
}
