// README: Application store; approval activates a driver row in the same transaction.
package application

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

const appColumns = `
	id, name, phone, gender, vehicle_type, vehicle_number, license_no,
	id_proof_ref, agreed, status, submitted_at, reviewed_at`

func (s *PGStore) Create(ctx context.Context, a *Application) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO hero_applications (
			id, name, phone, gender, vehicle_type, vehicle_number, license_no,
			id_proof_ref, agreed, status, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		string(a.ID), a.Name, a.Phone, string(a.Gender), a.VehicleType,
		a.VehicleNumber, a.LicenseNo, a.IDProofRef, a.Agreed, string(a.Status),
		a.SubmittedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Application, error) {
	row := s.db.QueryRow(ctx, `SELECT `+appColumns+` FROM hero_applications WHERE id = $1`, string(id))
	return scanApplication(row)
}

func (s *PGStore) List(ctx context.Context, status Status) ([]*Application, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+appColumns+`
		FROM hero_applications
		WHERE ($1 = '' OR status = $1)
		ORDER BY submitted_at DESC`, string(status),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Decide flips a pending application and, on approval, activates the driver
// row the registry will match against. Both writes commit together; the
// guard on status='pending' makes decisions one-way.
func (s *PGStore) Decide(ctx context.Context, id types.ID, to Status, now time.Time) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		UPDATE hero_applications
		SET status = $2, reviewed_at = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING name, phone, gender, vehicle_type, vehicle_number`,
		string(id), string(to), now,
	)
	var name, phone, gender, vehicleType, vehicleNumber string
	err = row.Scan(&name, &phone, &gender, &vehicleType, &vehicleNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if to == StatusApproved {
		if _, err := tx.Exec(ctx, `
			INSERT INTO drivers (
				id, name, phone, gender, vehicle_type, vehicle_number,
				approval_status, is_online, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, 'approved', FALSE, $7, $7)`,
			string(id), name, phone, gender, vehicleType, vehicleNumber, now,
		); err != nil {
			return false, err
		}
	}
	return true, tx.Commit(ctx)
}

func (s *PGStore) CountPending(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM hero_applications WHERE status = 'pending'`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*Application, error) {
	var a Application
	var reviewedAt sql.NullTime
	err := row.Scan(
		&a.ID, &a.Name, &a.Phone, &a.Gender, &a.VehicleType, &a.VehicleNumber,
		&a.LicenseNo, &a.IDProofRef, &a.Agreed, &a.Status, &a.SubmittedAt, &reviewedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		a.ReviewedAt = &t
	}
	return &a, nil
}
