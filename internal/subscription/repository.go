package subscription

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"session-gateway/internal/auth"
)

// Repository returns the entitling subscription for a user, or ErrNotFound.
type Repository interface {
	Current(ctx context.Context, userID string) (Subscription, error)
}

// NOTE: PostgresRepository assumes a table shaped like:
//
//	subscriptions(user_id text, tier text, status text, expires_at timestamptz null, updated_at timestamptz)
//
// with an index on (user_id, updated_at DESC). Rows are history; the newest entitling row wins.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Current(ctx context.Context, userID string) (Subscription, error) {
	const q = `
SELECT user_id, tier, status, expires_at, updated_at
FROM subscriptions
WHERE user_id = $1 AND status IN ('active', 'trialing')
ORDER BY updated_at DESC
LIMIT 1
`
	var (
		s         Subscription
		tier      string
		status    string
		expiresAt sql.NullTime
	)
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(
		&s.UserID,
		&tier,
		&status,
		&expiresAt,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Subscription{}, ErrNotFound
		}
		return Subscription{}, err
	}

	s.Tier = auth.Tier(tier)
	s.Status = Status(status)
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		s.ExpiresAt = &t
	}
	return s, nil
}

// Record appends a subscription row. The newest entitling row wins on read.
// Billing owns the table in production; Record exists to seed rows in the
// integration tests.
func (r *PostgresRepository) Record(ctx context.Context, s Subscription) error {
	const q = `
INSERT INTO subscriptions (user_id, tier, status, expires_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
`
	updatedAt := s.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	var expiresAt sql.NullTime
	if s.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *s.ExpiresAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, q, s.UserID, string(s.Tier), string(s.Status), expiresAt, updatedAt)
	return err
}
