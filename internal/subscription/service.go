package subscription

import (
	"context"
	"fmt"
	"time"

	"session-gateway/internal/auth"
)

// Service turns subscription rows into token tiers. It satisfies session.TierLookup.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// GetTier returns the user's tier and, for paid tiers, when it lapses.
// A subscription already past its expiry reports ErrNotFound.
func (s *Service) GetTier(ctx context.Context, userID string) (auth.Tier, *time.Time, error) {
	if userID == "" {
		return auth.TierFree, nil, ErrNotFound
	}

	sub, err := s.repo.Current(ctx, userID)
	if err != nil {
		return auth.TierFree, nil, err
	}

	tier, err := auth.ParseTier(string(sub.Tier))
	if err != nil {
		return auth.TierFree, nil, fmt.Errorf("subscription %s: %w", userID, err)
	}
	if sub.ExpiresAt != nil && !s.clock().Before(*sub.ExpiresAt) {
		return auth.TierFree, nil, ErrNotFound
	}
	return tier, sub.ExpiresAt, nil
}
