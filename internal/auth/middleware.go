package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// RequireBearerToken verifies a session token sent in the Authorization header and
// binds its claims into the request context. There is no refresh on this path:
// header clients re-authenticate through /auth/session when they get a 401.
func RequireBearerToken(codec *Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
		if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tok := strings.TrimPrefix(raw, bearerPrefix)

		v := codec.Verify(tok)
		if !v.Valid() {
			c.Set("token_reason", string(v.Reason))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Request = c.Request.WithContext(WithClaims(c.Request.Context(), *v.Claims))

		// Also store on gin context for handler convenience.
		c.Set("user_id", v.Claims.Subject)
		c.Set("tier", string(v.Claims.Tier))

		c.Next()
	}
}
