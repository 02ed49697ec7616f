// README: Driver registry store backed by PostgreSQL.
package driver

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campusride/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

var _ Registry = (*Store)(nil)

const driverColumns = `
	id, user_id, name, phone, gender, vehicle_type, vehicle_number,
	approval_status, is_online, total_rides, total_earnings,
	active_ride_id, last_ride_at, created_at, updated_at`

func (s *Store) Get(ctx context.Context, id types.ID) (*Driver, error) {
	row := s.db.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, string(id))
	return scanDriver(row)
}

func (s *Store) ListApproved(ctx context.Context) ([]*Driver, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+driverColumns+`
		FROM drivers
		WHERE approval_status = 'approved'
		ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SetOnline flips the durable online flag. Going offline is guarded against
// an in-flight ride so a driver cannot vanish mid-engagement.
func (s *Store) SetOnline(ctx context.Context, id types.ID, online bool) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers
		SET is_online = $2, updated_at = NOW()
		WHERE id = $1
		  AND ($2 = TRUE OR active_ride_id IS NULL)`,
		string(id), online,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) Stats(ctx context.Context, id types.ID) (Stats, error) {
	row := s.db.QueryRow(ctx, `
		SELECT d.total_rides, d.total_earnings,
		       (SELECT COUNT(*) FROM rides r WHERE r.driver_id = d.id AND r.status = 'completed')
		FROM drivers d
		WHERE d.id = $1`, string(id),
	)
	var st Stats
	err := row.Scan(&st.TotalRides, &st.TotalEarnings, &st.CompletedRides)
	if errors.Is(err, pgx.ErrNoRows) {
		return Stats{}, ErrNotFound
	}
	if err != nil {
		return Stats{}, err
	}
	return st, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDriver(row rowScanner) (*Driver, error) {
	var d Driver
	var activeRide sql.NullString
	var lastRide sql.NullTime
	err := row.Scan(
		&d.ID, &d.UserID, &d.Name, &d.Phone, &d.Gender, &d.VehicleType, &d.VehicleNumber,
		&d.Approval, &d.Online, &d.TotalRides, &d.TotalEarnings,
		&activeRide, &lastRide, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if activeRide.Valid {
		rid := types.ID(activeRide.String)
		d.ActiveRideID = &rid
	}
	if lastRide.Valid {
		t := lastRide.Time
		d.LastRideAt = &t
	}
	return &d, nil
}
