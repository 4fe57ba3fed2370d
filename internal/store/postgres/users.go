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

type UsersStore struct {
	pool *pgxpool.Pool
}

func NewUsersStore(pool *pgxpool.Pool) *UsersStore {
	return &UsersStore{pool: pool}
}

const userColumns = `
	uid, email, role, account_status, is_blocked,
	suspension_reason, access_denied_message, suspended_at,
	is_donor, district, fcm_token, device_token,
	created_at, updated_at
`

func scanUser(row pgx.Row) (domain.UserAccount, error) {
	var (
		u            domain.UserAccount
		emailText    pgtype.Text
		reasonText   pgtype.Text
		deniedText   pgtype.Text
		suspendedTS  pgtype.Timestamptz
		districtText pgtype.Text
		fcmText      pgtype.Text
		deviceText   pgtype.Text
	)
	err := row.Scan(
		&u.UID,
		&emailText,
		&u.Role,
		&u.AccountStatus,
		&u.IsBlocked,
		&reasonText,
		&deniedText,
		&suspendedTS,
		&u.IsDonor,
		&districtText,
		&fcmText,
		&deviceText,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.UserAccount{}, err
	}
	u.Email = textOrEmpty(emailText)
	u.SuspensionReason = textOrEmpty(reasonText)
	u.AccessDeniedMessage = textOrEmpty(deniedText)
	u.SuspendedAt = timestamptzPtr(suspendedTS)
	u.District = textOrEmpty(districtText)
	u.FCMToken = textOrEmpty(fcmText)
	u.DeviceToken = textOrEmpty(deviceText)
	return u, nil
}

func (s *UsersStore) GetUser(ctx context.Context, uid string) (domain.UserAccount, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, q, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserAccount{}, domain.ErrNotFound
		}
		return domain.UserAccount{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// MarkSuspended is a partial update: only the suspension fields change,
// everything else on the row is left alone.
func (s *UsersStore) MarkSuspended(ctx context.Context, uid, reason, deniedMessage string) error {
	const q = `
		UPDATE users
		SET account_status = 'suspended',
			is_blocked = true,
			suspended_at = now(),
			suspension_reason = $2,
			access_denied_message = $3,
			updated_at = now()
		WHERE uid = $1
	`
	tag, err := s.pool.Exec(ctx, q, uid, reason, deniedMessage)
	if err != nil {
		return fmt.Errorf("mark user suspended: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkActive clears the suspension fields entirely rather than blanking them.
func (s *UsersStore) MarkActive(ctx context.Context, uid string) error {
	const q = `
		UPDATE users
		SET account_status = 'active',
			is_blocked = false,
			suspended_at = NULL,
			suspension_reason = NULL,
			access_denied_message = NULL,
			updated_at = now()
		WHERE uid = $1
	`
	tag, err := s.pool.Exec(ctx, q, uid)
	if err != nil {
		return fmt.Errorf("mark user active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *UsersStore) DeleteUser(ctx context.Context, uid string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM users WHERE uid = $1`, uid); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *UsersStore) ListSuspended(ctx context.Context) ([]domain.UserAccount, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE account_status = 'suspended'`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list suspended users: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

// ListAudience resolves the recipient set for a notification.
func (s *UsersStore) ListAudience(ctx context.Context, recipientType domain.RecipientType, district string) ([]domain.UserAccount, error) {
	q := `SELECT ` + userColumns + ` FROM users`
	var args []any
	switch recipientType {
	case domain.RecipientDonorsOnly:
		q += ` WHERE is_donor`
	case domain.RecipientSpecificDistrict:
		q += ` WHERE district = $1`
		args = append(args, district)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list audience: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]domain.UserAccount, error) {
	var out []domain.UserAccount
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("collect users: %w", err)
	}
	return out, nil
}
