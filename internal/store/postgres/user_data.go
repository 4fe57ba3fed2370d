package postgres

import (
	"context"
	"fmt"

	"resqnowserver/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UserDataStore removes everything that references a uid across the
// collaborating tables. The referencing (table, column) pairs form a closed,
// known set and are enumerated explicitly rather than discovered.
type UserDataStore struct {
	pool *pgxpool.Pool
}

func NewUserDataStore(pool *pgxpool.Pool) *UserDataStore {
	return &UserDataStore{pool: pool}
}

func (s *UserDataStore) DeleteAll(ctx context.Context, uid string) (domain.DeletedCounts, error) {
	var counts domain.DeletedCounts

	tag, err := s.pool.Exec(ctx, `DELETE FROM donors WHERE uid = $1`, uid)
	if err != nil {
		return counts, fmt.Errorf("delete donor by doc id: %w", err)
	}
	counts.DonorsByDocID = int(tag.RowsAffected())

	if counts.DonorsByUserID, err = s.deleteByField(ctx, "donors", "user_id", uid); err != nil {
		return counts, err
	}
	if counts.CallRequestsByUserID, err = s.deleteByField(ctx, "call_requests", "user_id", uid); err != nil {
		return counts, err
	}
	if counts.CallRequestsByRequesterID, err = s.deleteByField(ctx, "call_requests", "requester_id", uid); err != nil {
		return counts, err
	}
	if counts.CallRequestsByDonorID, err = s.deleteByField(ctx, "call_requests", "donor_id", uid); err != nil {
		return counts, err
	}
	if counts.Notifications, err = s.deleteByField(ctx, "notifications", "user_id", uid); err != nil {
		return counts, err
	}

	return counts, nil
}

// table and column only ever come from the enumerated calls above, never from
// caller input.
func (s *UserDataStore) deleteByField(ctx context.Context, table, column, uid string) (int, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table, column)
	tag, err := s.pool.Exec(ctx, q, uid)
	if err != nil {
		return 0, fmt.Errorf("delete %s by %s: %w", table, column, err)
	}
	return int(tag.RowsAffected()), nil
}
