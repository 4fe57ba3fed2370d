package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"resqnowserver/internal/domain"
	"resqnowserver/internal/identity"
	"resqnowserver/internal/observability/metrics"
)

const (
	defaultSuspensionReason = "Suspended by admin for suspicious activity"
	suspendedLoginMessage   = "Login denied: your account is currently suspended for suspicious activity. Contact support if this is a mistake."
	deletedAccountReason    = "Account deleted by admin"
)

// LifecycleService owns the consistency contract between users.accountStatus
// and the blocked_emails side table. The error asymmetry here is deliberate:
// blocked-email upserts after a committed suspension/deletion are best-effort,
// while the blocked-email removal during reactivation is correctness-critical
// and verified.
type LifecycleService struct {
	Users    UsersStore
	Blocked  BlockedEmailsStore
	UserData UserDataStore
	Identity IdentityService
	Logger   *slog.Logger
	Now      func() time.Time
}

type SuspendResult struct {
	Success bool   `json:"success"`
	UID     string `json:"uid"`
	Email   string `json:"email"`
	Status  string `json:"status"`
}

type ReactivateResult struct {
	Success   bool   `json:"success"`
	UID       string `json:"uid"`
	Email     string `json:"email"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type DeleteResult struct {
	Success       bool                 `json:"success"`
	UID           string               `json:"uid"`
	Email         string               `json:"email"`
	DeletedCounts domain.DeletedCounts `json:"deletedCounts"`
}

func (s *LifecycleService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *LifecycleService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *LifecycleService) target(ctx context.Context, targetUID string) (domain.UserAccount, error) {
	if err := requireTargetUID(targetUID); err != nil {
		return domain.UserAccount{}, err
	}
	u, err := s.Users.GetUser(ctx, targetUID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.UserAccount{}, fmt.Errorf("%w: target user does not exist", domain.ErrNotFound)
		}
		return domain.UserAccount{}, err
	}
	return u, nil
}

func (s *LifecycleService) Suspend(ctx context.Context, callerUID, targetUID, reason string) (SuspendResult, error) {
	res, err := s.suspend(ctx, callerUID, targetUID, reason)
	observeLifecycle("suspend", err)
	return res, domain.Internal("suspend failed due to a server error", err)
}

func (s *LifecycleService) suspend(ctx context.Context, callerUID, targetUID, reason string) (SuspendResult, error) {
	if err := requireAdmin(ctx, s.Users, callerUID); err != nil {
		return SuspendResult{}, err
	}
	target, err := s.target(ctx, targetUID)
	if err != nil {
		return SuspendResult{}, err
	}

	email := strings.ToLower(strings.TrimSpace(target.Email))
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultSuspensionReason
	}

	if err := s.Users.MarkSuspended(ctx, targetUID, reason, suspendedLoginMessage); err != nil {
		return SuspendResult{}, err
	}

	// Best-effort: the authoritative suspension already landed on the user
	// row, so a failed side-table write must not fail the operation. The
	// synchronizer exists to repair exactly this drift.
	if email != "" {
		block := domain.BlockedEmail{
			Email:     email,
			UID:       targetUID,
			Reason:    reason,
			BlockedBy: callerUID,
			Status:    domain.BlockStatusSuspended,
		}
		if err := s.Blocked.Upsert(ctx, block); err != nil {
			s.logger().Error("suspend: failed to block email", "email", email, "uid", targetUID, "err", err)
		} else {
			s.logger().Info("suspend: blocked email", "email", email, "uid", targetUID)
		}
	}

	if err := s.Identity.RevokeSessions(ctx, targetUID); err != nil && !errors.Is(err, identity.ErrUserNotFound) {
		return SuspendResult{}, err
	}

	return SuspendResult{Success: true, UID: targetUID, Email: email, Status: "suspended"}, nil
}

func (s *LifecycleService) Reactivate(ctx context.Context, callerUID, targetUID string) (ReactivateResult, error) {
	res, err := s.reactivate(ctx, callerUID, targetUID)
	observeLifecycle("reactivate", err)
	return res, domain.Internal("reactivation failed due to a server error", err)
}

func (s *LifecycleService) reactivate(ctx context.Context, callerUID, targetUID string) (ReactivateResult, error) {
	if err := requireAdmin(ctx, s.Users, callerUID); err != nil {
		return ReactivateResult{}, err
	}
	target, err := s.target(ctx, targetUID)
	if err != nil {
		return ReactivateResult{}, err
	}

	email := strings.ToLower(strings.TrimSpace(target.Email))

	if err := s.Users.MarkActive(ctx, targetUID); err != nil {
		return ReactivateResult{}, err
	}

	// Unlike the suspend path this step is NOT best-effort: leaving a stale
	// suspended block in place would silently lock out a reactivated user,
	// so the deletion is verified and any failure aborts the operation.
	if email != "" {
		_, err := s.Blocked.Get(ctx, email)
		switch {
		case err == nil:
			if err := s.Blocked.Delete(ctx, email); err != nil {
				return ReactivateResult{}, s.unblockFailed(email, targetUID, err)
			}
			if _, err := s.Blocked.Get(ctx, email); err == nil {
				return ReactivateResult{}, s.unblockFailed(email, targetUID,
					errors.New("deletion verification failed: record still present"))
			} else if !errors.Is(err, domain.ErrNotFound) {
				return ReactivateResult{}, s.unblockFailed(email, targetUID, err)
			}
			s.logger().Info("reactivate: unblocked email", "email", email, "uid", targetUID)
		case errors.Is(err, domain.ErrNotFound):
			s.logger().Info("reactivate: email not in blocked list (already unblocked)", "email", email)
		default:
			return ReactivateResult{}, err
		}
	}

	return ReactivateResult{
		Success:   true,
		UID:       targetUID,
		Email:     email,
		Status:    "active",
		Message:   "Account reactivated successfully. User can now login and signup.",
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}, nil
}

func (s *LifecycleService) unblockFailed(email, uid string, cause error) error {
	s.logger().Error("reactivate: failed to unblock email", "email", email, "uid", uid, "err", cause)
	return &domain.InternalError{
		Message: fmt.Sprintf("failed to remove email from blocked list. Email: %s", email),
		Code:    "unknown",
		Cause:   cause,
	}
}

func (s *LifecycleService) DeleteCompletely(ctx context.Context, callerUID, targetUID string) (DeleteResult, error) {
	res, err := s.deleteCompletely(ctx, callerUID, targetUID)
	observeLifecycle("delete", err)
	return res, domain.Internal("delete failed due to a server error", err)
}

func (s *LifecycleService) deleteCompletely(ctx context.Context, callerUID, targetUID string) (DeleteResult, error) {
	if err := requireAdmin(ctx, s.Users, callerUID); err != nil {
		return DeleteResult{}, err
	}
	target, err := s.target(ctx, targetUID)
	if err != nil {
		return DeleteResult{}, err
	}

	email := strings.ToLower(strings.TrimSpace(target.Email))

	counts, err := s.UserData.DeleteAll(ctx, targetUID)
	if err != nil {
		return DeleteResult{}, err
	}

	if err := s.Users.DeleteUser(ctx, targetUID); err != nil {
		return DeleteResult{}, err
	}

	// The permanent block outlives the account: it stops re-signup with the
	// same email. Best-effort, since the account itself is already gone.
	if email != "" {
		deletedAt := s.now().UTC()
		block := domain.BlockedEmail{
			Email:     email,
			UID:       targetUID,
			Reason:    deletedAccountReason,
			BlockedBy: callerUID,
			Status:    domain.BlockStatusDeleted,
			DeletedAt: &deletedAt,
		}
		if err := s.Blocked.Upsert(ctx, block); err != nil {
			s.logger().Error("delete: failed to block deleted email", "email", email, "uid", targetUID, "err", err)
		} else {
			s.logger().Info("delete: marked email as deleted", "email", email, "uid", targetUID)
		}
	}

	if err := s.Identity.DeleteAccount(ctx, targetUID); err != nil && !errors.Is(err, identity.ErrUserNotFound) {
		return DeleteResult{}, err
	}

	return DeleteResult{Success: true, UID: targetUID, Email: email, DeletedCounts: counts}, nil
}

func observeLifecycle(op string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.AccountLifecycleOpsTotal.WithLabelValues(op, result).Inc()
}
