package entitlement

import (
	"time"

	"session-gateway/internal/auth"
)

// EffectiveTier is the tier a caller may use right now. A paid tier whose
// subscription lapse time has passed counts as free until the next refresh.
func EffectiveTier(c auth.Claims, now time.Time) auth.Tier {
	if !c.Tier.Valid() {
		return auth.TierFree
	}
	if c.TierExpiresAt != nil && !now.Before(c.TierExpiresAt.Time) {
		return auth.TierFree
	}
	return c.Tier
}
