package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserID(t *testing.T) {
	_, err := UserID(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = UserID(WithClaims(context.Background(), Claims{Tier: TierFree}))
	assert.ErrorIs(t, err, ErrNoSession)

	uid, err := UserID(WithClaims(context.Background(), Claims{Subject: "user-1", Tier: TierPlus}))
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)
}
