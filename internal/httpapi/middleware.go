package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"session-gateway/internal/audit"
	"session-gateway/internal/auth"
	"session-gateway/internal/session"
	"session-gateway/pkg/logger"
)

const outcomeKey = "session_outcome"

var nowFunc = time.Now

// SessionResolver is the subset of *session.Resolver the HTTP layer uses.
type SessionResolver interface {
	Resolve(ctx context.Context, token, refreshCredential string) (session.Outcome, error)
	Establish(ctx context.Context, ps session.ProviderSession) (session.Outcome, error)
}

// SessionMiddleware resolves the caller's session from cookies (or a bearer
// header) and binds the claims into the request context. It never rejects a
// request for being anonymous; use entitlement middleware for that.
// When the resolver reissues a token both cookies are rewritten and, if auditor
// is non-nil, a session_refreshed event is recorded.
func SessionMiddleware(resolver SessionResolver, cookies Cookies, auditor Auditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, refresh := cookies.Read(c)
		if token == "" {
			token = bearerToken(c.GetHeader("Authorization"))
		}

		out, err := resolver.Resolve(c.Request.Context(), token, refresh)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		if out.Authenticated() && out.Claims != nil {
			ctx := auth.WithClaims(c.Request.Context(), *out.Claims)
			ctx = logger.With(ctx, logger.From(ctx).With("user_id", out.Claims.Subject))
			c.Request = c.Request.WithContext(ctx)
			c.Set("user_id", out.Claims.Subject)
			c.Set("tier", string(out.Claims.Tier))
		}
		if out.Reissued() {
			cookies.Write(c, out.ReissuedToken, out.TokenTTL, out.RefreshCredential)
			recordAudit(c, auditor, audit.Event{
				Type:   audit.EventSessionRefreshed,
				UserID: out.Claims.Subject,
				Email:  out.Claims.Email,
			})
		}
		c.Set(outcomeKey, out)
		c.Next()
	}
}

func outcomeFrom(c *gin.Context) (session.Outcome, bool) {
	v, ok := c.Get(outcomeKey)
	if !ok {
		return session.Outcome{}, false
	}
	out, ok := v.(session.Outcome)
	return out, ok
}

func bearerToken(h string) string {
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
