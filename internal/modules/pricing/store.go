// README: Fare rule store backed by PostgreSQL.
package pricing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Rule returns the configured fare rule. The second result is false when no
// row exists, in which case callers fall back to their compiled defaults.
func (s *Store) Rule(ctx context.Context) (Rule, bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT base_fare, prebook_fare, prebook_lead_minutes, currency
		FROM fare_rules
		ORDER BY updated_at DESC
		LIMIT 1`,
	)
	var r Rule
	var leadMin int
	err := row.Scan(&r.BaseFare, &r.PrebookFare, &leadMin, &r.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rule{}, false, nil
	}
	if err != nil {
		return Rule{}, false, err
	}
	r.Lead = minutes(leadMin)
	return r, true, nil
}
