package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo appends to:
//
//	auth_audit_events(id uuid primary key, type text, user_id text null, email text null,
//	                  ip_address text null, user_agent text null, request_id text null,
//	                  message text null, created_at timestamptz)
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO auth_audit_events (
  id, type, user_id, email, ip_address, user_agent, request_id, message, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		string(e.Type),
		nullString(e.UserID),
		nullString(e.Email),
		nullString(e.IPAddress),
		nullString(e.UserAgent),
		nullString(e.RequestID),
		nullString(e.Message),
		e.CreatedAt,
	)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
