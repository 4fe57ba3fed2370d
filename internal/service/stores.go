package service

import (
	"context"
	"errors"
	"fmt"

	"resqnowserver/internal/domain"
)

// Store interfaces are declared where they are consumed; the postgres package
// provides the implementations.

type UsersStore interface {
	GetUser(ctx context.Context, uid string) (domain.UserAccount, error)
	MarkSuspended(ctx context.Context, uid, reason, deniedMessage string) error
	MarkActive(ctx context.Context, uid string) error
	DeleteUser(ctx context.Context, uid string) error
	ListSuspended(ctx context.Context) ([]domain.UserAccount, error)
}

type BlockedEmailsStore interface {
	Get(ctx context.Context, email string) (domain.BlockedEmail, error)
	Upsert(ctx context.Context, b domain.BlockedEmail) error
	UpsertBatch(ctx context.Context, records []domain.BlockedEmail) error
	Delete(ctx context.Context, email string) error
}

type UserDataStore interface {
	DeleteAll(ctx context.Context, uid string) (domain.DeletedCounts, error)
}

// IdentityService is the hosted auth service. Both calls treat a missing
// principal as identity.ErrUserNotFound, which the lifecycle paths tolerate.
type IdentityService interface {
	DeleteAccount(ctx context.Context, uid string) error
	RevokeSessions(ctx context.Context, uid string) error
}

type UserGetter interface {
	GetUser(ctx context.Context, uid string) (domain.UserAccount, error)
}

// requireAdmin authorizes an admin-only operation. The caller must be
// authenticated and its own account must carry the admin role; nothing about
// the target is touched before this check passes.
func requireAdmin(ctx context.Context, users UserGetter, callerUID string) error {
	if callerUID == "" {
		return fmt.Errorf("%w: authentication required", domain.ErrUnauthenticated)
	}
	caller, err := users.GetUser(ctx, callerUID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: admin access required", domain.ErrPermissionDenied)
		}
		return domain.Internal("authorization check failed", err)
	}
	if caller.Role != "admin" {
		return fmt.Errorf("%w: admin access required", domain.ErrPermissionDenied)
	}
	return nil
}

func requireTargetUID(uid string) error {
	if uid == "" {
		return fmt.Errorf("%w: a valid target uid is required", domain.ErrInvalidArgument)
	}
	return nil
}
