package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"session-gateway/internal/audit"
	"session-gateway/internal/auth"
	"session-gateway/internal/entitlement"
	"session-gateway/internal/gotrue"
	"session-gateway/internal/session"
	"session-gateway/pkg/logger"
)

// PasswordAuthenticator runs the provider's password grant.
type PasswordAuthenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (session.ProviderSession, error)
}

// TokenVerifier is the subset of *auth.Codec used to identify who is signing out.
type TokenVerifier interface {
	Verify(token string) auth.Verification
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
// Tokens and Audit are optional.
type Handlers struct {
	Sessions  SessionResolver
	Passwords PasswordAuthenticator
	Tokens    TokenVerifier
	Audit     Auditor
	Cookies   Cookies
}

type userView struct {
	ID        string     `json:"id"`
	Email     string     `json:"email,omitempty"`
	Tier      auth.Tier  `json:"tier"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type sessionView struct {
	ExpiresAt int64 `json:"expires_at"`
}

func viewsOf(c *auth.Claims) (userView, sessionView) {
	u := userView{ID: c.Subject, Email: c.Email, Tier: c.Tier}
	var s sessionView
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Unix()
	}
	return u, s
}

// outcomeViews adds what only the provider knows to the claim-derived views.
func outcomeViews(out session.Outcome) (userView, sessionView) {
	u, s := viewsOf(out.Claims)
	if !out.UserCreatedAt.IsZero() {
		t := out.UserCreatedAt.UTC()
		u.CreatedAt = &t
	}
	return u, s
}

// --- Session ---

// Session reports the caller's session. It must run behind SessionMiddleware,
// which has already rewritten cookies if the token was reissued.
func (h Handlers) Session(c *gin.Context) {
	out, ok := outcomeFrom(c)
	if !ok || !out.Authenticated() || out.Claims == nil {
		c.JSON(http.StatusOK, gin.H{"user": nil, "session": nil})
		return
	}
	u, s := outcomeViews(out)
	c.JSON(http.StatusOK, gin.H{"user": u, "session": s})
}

// Me returns the bound claims with the tier currently in effect.
func (h Handlers) Me(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	u, s := viewsOf(&claims)
	u.Tier = entitlement.EffectiveTier(claims, nowFunc())
	c.JSON(http.StatusOK, gin.H{"user": u, "session": s})
}

// --- Sign in / out ---

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn exchanges email and password with the provider and sets session cookies.
func (h Handlers) SignIn(c *gin.Context) {
	if h.Passwords == nil || h.Sessions == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sign-in not configured"})
		return
	}

	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	ctx := c.Request.Context()
	ps, err := h.Passwords.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		logger.From(ctx).Info("password sign-in rejected", "err", err)
		recordAudit(c, h.Audit, audit.Event{Type: audit.EventSignInFailed, Email: strings.ToLower(req.Email), Message: signInFailure(err)})
		if errors.Is(err, gotrue.ErrUnavailable) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authentication service unavailable"})
			return
		}
		msg := "Authentication failed"
		var apiErr *gotrue.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			msg = apiErr.Message
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
		return
	}

	out, err := h.Sessions.Establish(ctx, ps)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if !out.Authenticated() || !out.Reissued() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed"})
		return
	}

	h.Cookies.Write(c, out.ReissuedToken, out.TokenTTL, out.RefreshCredential)
	c.Set("user_id", out.Claims.Subject)
	recordAudit(c, h.Audit, audit.Event{Type: audit.EventSignIn, UserID: out.Claims.Subject, Email: out.Claims.Email})
	u, s := outcomeViews(out)
	c.JSON(http.StatusOK, gin.H{"user": u, "session": s})
}

// SignOut clears both session cookies. Nothing is held server-side.
func (h Handlers) SignOut(c *gin.Context) {
	if token, _ := h.Cookies.Read(c); token != "" && h.Tokens != nil {
		// Expired tokens still identify the caller.
		if v := h.Tokens.Verify(token); v.Claims != nil && v.Status != auth.StatusInvalid {
			recordAudit(c, h.Audit, audit.Event{Type: audit.EventSignOut, UserID: v.Claims.Subject, Email: v.Claims.Email})
		}
	}
	h.Cookies.Clear(c)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
}

func signInFailure(err error) string {
	var apiErr *gotrue.APIError
	switch {
	case errors.Is(err, gotrue.ErrUnavailable):
		return "provider unavailable"
	case errors.As(err, &apiErr) && apiErr.Code != "":
		return apiErr.Code
	default:
		return "rejected"
	}
}
