package postgres

import (
	"context"
	"errors"
	"fmt"

	"resqnowserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BlockedEmailsStore struct {
	pool *pgxpool.Pool
}

func NewBlockedEmailsStore(pool *pgxpool.Pool) *BlockedEmailsStore {
	return &BlockedEmailsStore{pool: pool}
}

// upsertQuery merges into an existing row the way a merge-set would: fields
// not carried by the new record (NULL in EXCLUDED) keep their old values.
const upsertQuery = `
	INSERT INTO blocked_emails (email, uid, reason, blocked_by, status, blocked_at, synced_at, deleted_at)
	VALUES ($1, $2, $3, $4, $5, now(), $6, $7)
	ON CONFLICT (email) DO UPDATE SET
		uid = EXCLUDED.uid,
		reason = EXCLUDED.reason,
		blocked_by = COALESCE(EXCLUDED.blocked_by, blocked_emails.blocked_by),
		status = EXCLUDED.status,
		blocked_at = now(),
		synced_at = COALESCE(EXCLUDED.synced_at, blocked_emails.synced_at),
		deleted_at = COALESCE(EXCLUDED.deleted_at, blocked_emails.deleted_at)
`

func (s *BlockedEmailsStore) Upsert(ctx context.Context, b domain.BlockedEmail) error {
	_, err := s.pool.Exec(ctx, upsertQuery,
		b.Email, b.UID, b.Reason, nullIfEmpty(b.BlockedBy), string(b.Status), b.SyncedAt, b.DeletedAt)
	if err != nil {
		return fmt.Errorf("upsert blocked email: %w", err)
	}
	return nil
}

// UpsertBatch commits records in bounded chunks. Every completed chunk stays
// committed even if a later one fails; the synchronizer is re-runnable.
func (s *BlockedEmailsStore) UpsertBatch(ctx context.Context, records []domain.BlockedEmail) error {
	for start := 0; start < len(records); start += batchLimit {
		end := min(start+batchLimit, len(records))

		batch := &pgx.Batch{}
		for _, b := range records[start:end] {
			batch.Queue(upsertQuery,
				b.Email, b.UID, b.Reason, nullIfEmpty(b.BlockedBy), string(b.Status), b.SyncedAt, b.DeletedAt)
		}
		if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upsert blocked emails batch: %w", err)
		}
	}
	return nil
}

func (s *BlockedEmailsStore) Get(ctx context.Context, email string) (domain.BlockedEmail, error) {
	const q = `
		SELECT email, uid, reason, blocked_by, status, blocked_at, synced_at, deleted_at
		FROM blocked_emails
		WHERE email = $1
	`

	var (
		b           domain.BlockedEmail
		blockedBy   pgtype.Text
		syncedAtTS  pgtype.Timestamptz
		deletedAtTS pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx, q, email).Scan(
		&b.Email,
		&b.UID,
		&b.Reason,
		&blockedBy,
		&b.Status,
		&b.BlockedAt,
		&syncedAtTS,
		&deletedAtTS,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.BlockedEmail{}, domain.ErrNotFound
		}
		return domain.BlockedEmail{}, fmt.Errorf("get blocked email: %w", err)
	}

	b.BlockedBy = textOrEmpty(blockedBy)
	b.SyncedAt = timestamptzPtr(syncedAtTS)
	b.DeletedAt = timestamptzPtr(deletedAtTS)
	return b, nil
}

func (s *BlockedEmailsStore) Delete(ctx context.Context, email string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM blocked_emails WHERE email = $1`, email); err != nil {
		return fmt.Errorf("delete blocked email: %w", err)
	}
	return nil
}
