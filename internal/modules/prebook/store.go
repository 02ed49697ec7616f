// README: Pre-booking store backed by PostgreSQL.
package prebook

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campusride/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

var _ Store = (*PGStore)(nil)

func (s *PGStore) Create(ctx context.Context, p *PreBooking) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO prebookings (
			id, rider_id, pickup, dropoff, scheduled_at, fare, currency,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		string(p.ID), string(p.RiderID), p.Pickup, p.Dropoff, p.ScheduledAt,
		p.Fare.Amount, p.Fare.Currency, string(p.Status), p.CreatedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*PreBooking, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, rider_id, pickup, dropoff, scheduled_at, fare, currency,
		       status, created_at, updated_at
		FROM prebookings WHERE id = $1`, string(id),
	)
	var p PreBooking
	err := row.Scan(
		&p.ID, &p.RiderID, &p.Pickup, &p.Dropoff, &p.ScheduledAt,
		&p.Fare.Amount, &p.Fare.Currency, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PGStore) List(ctx context.Context) ([]*PreBooking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, rider_id, pickup, dropoff, scheduled_at, fare, currency,
		       status, created_at, updated_at
		FROM prebookings
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*PreBooking
	for rows.Next() {
		var p PreBooking
		if err := rows.Scan(
			&p.ID, &p.RiderID, &p.Pickup, &p.Dropoff, &p.ScheduledAt,
			&p.Fare.Amount, &p.Fare.Currency, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, now time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE prebookings
		SET status = $2, updated_at = $4
		WHERE id = $1 AND status = $3`,
		string(id), string(to), string(from), now,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
