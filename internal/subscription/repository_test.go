package subscription

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"session-gateway/internal/auth"
)

func TestPostgresRepository_Integration(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("RUN_INTEGRATION_TESTS not set to true")
	}
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	defer db.Close()
	// Temp tables are per connection.
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, `
CREATE TEMP TABLE subscriptions (
  user_id    text        NOT NULL,
  tier       text        NOT NULL,
  status     text        NOT NULL,
  expires_at timestamptz NULL,
  updated_at timestamptz NOT NULL
)`)
	require.NoError(t, err)

	repo := NewPostgresRepository(db)

	_, err = repo.Current(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)

	lapse := baseTime.Add(30 * 24 * time.Hour)
	require.NoError(t, repo.Record(ctx, Subscription{UserID: "user-1", Tier: auth.TierPlus, Status: StatusActive, UpdatedAt: baseTime.Add(-time.Hour)}))
	require.NoError(t, repo.Record(ctx, Subscription{UserID: "user-1", Tier: auth.TierPro, Status: StatusActive, ExpiresAt: &lapse, UpdatedAt: baseTime}))
	require.NoError(t, repo.Record(ctx, Subscription{UserID: "user-1", Tier: auth.TierFree, Status: StatusCanceled, UpdatedAt: baseTime.Add(time.Hour)}))

	s, err := repo.Current(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, auth.TierPro, s.Tier)
	assert.Equal(t, StatusActive, s.Status)
	require.NotNil(t, s.ExpiresAt)
	assert.True(t, s.ExpiresAt.Equal(lapse))
}
