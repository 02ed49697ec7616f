// README: Ride store backed by PostgreSQL; guarded row updates carry the state machine.
package ride

import (
	"context"
	"database/sql"
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

const rideColumns = `
	id, rider_id, driver_id, status, pickup, dropoff, fare, currency,
	rider_gender, driver_pref, otp, payment_status, prebooked, scheduled_at,
	created_at, updated_at, picked_up_at, dropped_at`

func (s *PGStore) Create(ctx context.Context, r *Ride) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO rides (
			id, rider_id, driver_id, status, pickup, dropoff, fare, currency,
			rider_gender, driver_pref, otp, payment_status, prebooked,
			scheduled_at, created_at, updated_at
		) VALUES (
			$1, $2, NULL, $3, $4, $5, $6, $7,
			$8, $9, '', $10, $11,
			$12, $13, $13
		)`,
		string(r.ID), string(r.RiderID), string(r.Status),
		r.Pickup, r.Dropoff, r.Fare.Amount, r.Fare.Currency,
		string(r.RiderGender), string(r.DriverPref), string(r.Payment),
		r.Prebooked, r.ScheduledAt, r.CreatedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, string(id))
	return scanRide(row)
}

func (s *PGStore) ListOpenSince(ctx context.Context, cutoff time.Time) ([]*Ride, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+rideColumns+`
		FROM rides
		WHERE status = 'requested'
		  AND driver_id IS NULL
		  AND created_at > $1
		ORDER BY created_at DESC`, cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRides(rows)
}

// Accept lands the contended requested→accepted transition. Both the ride
// guard and the driver's active-ride slot are claimed in one transaction so
// a winning driver can never end up with two rides.
func (s *PGStore) Accept(ctx context.Context, rideID, driverID types.ID, otp string, now time.Time) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Row lock order is rides then drivers, matching Cancel and Complete.
	tag, err := tx.Exec(ctx, `
		UPDATE rides
		SET driver_id = $2, status = 'accepted', otp = $3, updated_at = $4
		WHERE id = $1
		  AND status = 'requested'
		  AND driver_id IS NULL`,
		string(rideID), string(driverID), otp, now,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	tag, err = tx.Exec(ctx, `
		UPDATE drivers
		SET active_ride_id = $2, updated_at = $3
		WHERE id = $1
		  AND approval_status = 'approved'
		  AND active_ride_id IS NULL`,
		string(driverID), string(rideID), now,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, ErrDriverUnavailable
	}
	return true, tx.Commit(ctx)
}

func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, now time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE rides
		SET status = $2,
		    updated_at = $4,
		    payment_status = CASE WHEN $2 = 'otp_verified' THEN 'paid' ELSE payment_status END,
		    picked_up_at = CASE WHEN $2 = 'in_progress' THEN $4 ELSE picked_up_at END
		WHERE id = $1 AND status = $3`,
		string(id), string(to), string(from), now,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) Cancel(ctx context.Context, id types.ID, from Status, now time.Time) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE rides
		SET status = 'cancelled', updated_at = $3
		WHERE id = $1 AND status = $2`,
		string(id), string(from), now,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}
	if _, err := tx.Exec(ctx, `
		UPDATE drivers
		SET active_ride_id = NULL, updated_at = $2
		WHERE active_ride_id = $1`,
		string(id), now,
	); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

// Complete finishes the ride and applies the stats increment in one
// transaction; the guard failing means another caller already completed or
// cancelled it, so nothing is credited twice.
func (s *PGStore) Complete(ctx context.Context, id types.ID, now time.Time) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		UPDATE rides
		SET status = 'completed', dropped_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'in_progress'
		RETURNING driver_id, fare`,
		string(id), now,
	)
	var driverID sql.NullString
	var fare int64
	err = row.Scan(&driverID, &fare)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if driverID.Valid {
		if _, err := tx.Exec(ctx, `
			UPDATE drivers
			SET total_rides = total_rides + 1,
			    total_earnings = total_earnings + $2,
			    active_ride_id = NULL,
			    last_ride_at = $3,
			    updated_at = $3
			WHERE id = $1`,
			driverID.String, fare, now,
		); err != nil {
			return false, err
		}
	}
	return true, tx.Commit(ctx)
}

func (s *PGStore) CurrentForDriver(ctx context.Context, driverID types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+rideColumns+`
		FROM rides r
		WHERE r.id = (SELECT active_ride_id FROM drivers WHERE id = $1)`,
		string(driverID),
	)
	return scanRide(row)
}

func (s *PGStore) ListStaleAccepted(ctx context.Context, cutoff time.Time) ([]*Ride, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+rideColumns+`
		FROM rides
		WHERE status = 'accepted'
		  AND updated_at < $1
		ORDER BY updated_at`, cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRides(rows)
}

func (s *PGStore) CountsByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.Query(ctx, `SELECT status, COUNT(*) FROM rides GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[Status]int)
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		out[Status(st)] = n
	}
	return out, rows.Err()
}

func (s *PGStore) AppendEvent(ctx context.Context, e *Event) error {
	var actorID *string
	if e.ActorID != nil {
		v := string(*e.ActorID)
		actorID = &v
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO ride_events (
			ride_id, kind, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(e.RideID), string(e.Kind), string(e.FromStatus), string(e.ToStatus),
		e.ActorType, actorID, e.CreatedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*Ride, error) {
	var r Ride
	var driverID sql.NullString
	var scheduledAt, pickedUpAt, droppedAt sql.NullTime
	err := row.Scan(
		&r.ID, &r.RiderID, &driverID, &r.Status, &r.Pickup, &r.Dropoff,
		&r.Fare.Amount, &r.Fare.Currency, &r.RiderGender, &r.DriverPref,
		&r.OTP, &r.Payment, &r.Prebooked, &scheduledAt,
		&r.CreatedAt, &r.UpdatedAt, &pickedUpAt, &droppedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if driverID.Valid {
		d := types.ID(driverID.String)
		r.DriverID = &d
	}
	r.ScheduledAt = timePtr(scheduledAt)
	r.PickedUpAt = timePtr(pickedUpAt)
	r.DroppedAt = timePtr(droppedAt)
	return &r, nil
}

func collectRides(rows pgx.Rows) ([]*Ride, error) {
	var out []*Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
