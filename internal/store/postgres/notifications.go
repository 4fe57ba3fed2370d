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

type NotificationsStore struct {
	pool *pgxpool.Pool
}

func NewNotificationsStore(pool *pgxpool.Pool) *NotificationsStore {
	return &NotificationsStore{pool: pool}
}

func (s *NotificationsStore) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	const q = `
		INSERT INTO notifications (id, title, message, type, recipient_type, target_district, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := s.pool.QueryRow(ctx, q,
		n.ID, n.Title, n.Message, nullIfEmpty(n.Type), string(n.RecipientType),
		nullIfEmpty(n.TargetDistrict), nullIfEmpty(n.UserID),
	).Scan(&n.CreatedAt)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

func (s *NotificationsStore) Get(ctx context.Context, id string) (domain.Notification, error) {
	const q = `
		SELECT id, title, message, type, recipient_type, target_district, user_id,
			delivered_count, failed_count, invalid_token_users, sent_at, created_at
		FROM notifications
		WHERE id = $1
	`

	var (
		n            domain.Notification
		idUUID       pgtype.UUID
		typeText     pgtype.Text
		districtText pgtype.Text
		userText     pgtype.Text
		delivered    pgtype.Int4
		failed       pgtype.Int4
		invalid      []string
		sentAtTS     pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&idUUID,
		&n.Title,
		&n.Message,
		&typeText,
		&n.RecipientType,
		&districtText,
		&userText,
		&delivered,
		&failed,
		&invalid,
		&sentAtTS,
		&n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Notification{}, domain.ErrNotFound
		}
		return domain.Notification{}, fmt.Errorf("get notification: %w", err)
	}

	n.ID = uuidOrEmpty(idUUID)
	n.Type = textOrEmpty(typeText)
	n.TargetDistrict = textOrEmpty(districtText)
	n.UserID = textOrEmpty(userText)
	n.DeliveredCount = int4OrZero(delivered)
	n.FailedCount = int4OrZero(failed)
	n.InvalidTokenUsers = invalid
	n.SentAt = timestamptzPtr(sentAtTS)
	return n, nil
}

// RecordDelivery attaches the delivery outcome to the triggering record. The
// fanout calls this exactly once, after the full audience has been processed.
func (s *NotificationsStore) RecordDelivery(ctx context.Context, id string, delivered, failed int, invalidTokenUsers []string) error {
	const q = `
		UPDATE notifications
		SET delivered_count = $2,
			failed_count = $3,
			invalid_token_users = $4,
			sent_at = now()
		WHERE id = $1
	`
	if invalidTokenUsers == nil {
		invalidTokenUsers = []string{}
	}
	tag, err := s.pool.Exec(ctx, q, id, delivered, failed, invalidTokenUsers)
	if err != nil {
		return fmt.Errorf("record notification delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
