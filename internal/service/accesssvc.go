package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resqnowserver/internal/domain"
)

// AccessService answers whether an authenticated principal may log in. It
// only ever reads the caller's own account; no side effects.
type AccessService struct {
	Users UserGetter
}

func (s *AccessService) CheckAccess(ctx context.Context, callerUID string) (domain.AccessStatus, error) {
	if callerUID == "" {
		return domain.AccessStatus{}, fmt.Errorf("%w: authentication required", domain.ErrUnauthenticated)
	}

	u, err := s.Users.GetUser(ctx, callerUID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// An absent record means the account was deleted earlier.
			return domain.AccessStatus{
				Allowed:    false,
				ReasonCode: "account-deleted",
				Message:    "No account exists with this email. Please create a new account.",
			}, nil
		}
		return domain.AccessStatus{}, domain.Internal("access check failed due to a server error", err)
	}

	if u.Suspended() {
		reason := strings.TrimSpace(u.SuspensionReason)
		if reason == "" {
			reason = "suspicious activities"
		}
		return domain.AccessStatus{
			Allowed:    false,
			ReasonCode: "suspended",
			Message:    fmt.Sprintf("Login denied: your account is currently suspended for %s. Please contact support.", reason),
		}, nil
	}

	return domain.AccessStatus{Allowed: true, ReasonCode: "active", Message: "ok"}, nil
}
