package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"resqnowserver/internal/domain"
)

// syncBatchLimit caps blocked-email upserts per committed batch.
const syncBatchLimit = 100

// SyncService is the reconciliation pass: it heals drift left by best-effort
// blocked-email writes on the suspend path. It never touches status=deleted
// rows for other emails, and it is safe to re-run.
type SyncService struct {
	Users   UsersStore
	Blocked BlockedEmailsStore
	Logger  *slog.Logger
	Now     func() time.Time
}

type SyncError struct {
	UID   string `json:"uid"`
	Error string `json:"error"`
}

type SyncResult struct {
	Success    bool        `json:"success"`
	AddedCount int         `json:"addedCount"`
	Errors     []SyncError `json:"errors"`
	Message    string      `json:"message"`
}

func (s *SyncService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *SyncService) Sync(ctx context.Context, callerUID string) (SyncResult, error) {
	res, err := s.sync(ctx, callerUID)
	return res, domain.Internal("sync failed due to a server error", err)
}

func (s *SyncService) sync(ctx context.Context, callerUID string) (SyncResult, error) {
	if err := requireAdmin(ctx, s.Users, callerUID); err != nil {
		return SyncResult{}, err
	}

	suspended, err := s.Users.ListSuspended(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	s.logger().Info("sync: scanning suspended users", "count", len(suspended))

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	syncedAt := now().UTC()

	records := make([]domain.BlockedEmail, 0, len(suspended))
	for _, u := range suspended {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" {
			s.logger().Warn("sync: skipping user with no email", "uid", u.UID)
			continue
		}
		reason := strings.TrimSpace(u.SuspensionReason)
		if reason == "" {
			reason = "Suspended by admin"
		}
		records = append(records, domain.BlockedEmail{
			Email:    email,
			UID:      u.UID,
			Reason:   reason,
			Status:   domain.BlockStatusSuspended,
			SyncedAt: &syncedAt,
		})
	}

	// Bounded chunks, each committed on its own. A failed chunk is recorded
	// per uid and does not abort the rest of the scan; re-running the sync
	// repairs whatever was missed.
	added := 0
	var syncErrors []SyncError
	for start := 0; start < len(records); start += syncBatchLimit {
		end := min(start+syncBatchLimit, len(records))
		chunk := records[start:end]

		if err := s.Blocked.UpsertBatch(ctx, chunk); err != nil {
			s.logger().Error("sync: batch commit failed", "size", len(chunk), "err", err)
			for _, r := range chunk {
				syncErrors = append(syncErrors, SyncError{UID: r.UID, Error: err.Error()})
			}
			continue
		}
		added += len(chunk)
	}

	if syncErrors == nil {
		syncErrors = []SyncError{}
	}
	return SyncResult{
		Success:    true,
		AddedCount: added,
		Errors:     syncErrors,
		Message:    fmt.Sprintf("Synced %d suspended users to blocked emails", added),
	}, nil
}
