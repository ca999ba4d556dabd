package entitlement

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"session-gateway/internal/auth"
)

var now = time.Now

// RequireSession rejects anonymous callers. Claims are bound by the session middleware.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, err := auth.UserID(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set("user_id", uid)
		c.Next()
	}
}

// RequireTier allows access if the caller's effective tier is at least floor.
// Rules:
// - anonymous callers get 401
// - a lapsed paid tier is treated as free
// - lower tiers get 403 with the tier they need
func RequireTier(floor auth.Tier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := auth.ClaimsFrom(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		tier := EffectiveTier(claims, now())
		if !tier.AtLeast(floor) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":         "upgrade required",
				"tier":          tier,
				"required_tier": floor,
			})
			return
		}
		c.Set("tier", string(tier))
		c.Next()
	}
}
