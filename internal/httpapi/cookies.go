package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "sb-access-token"
	RefreshCookie = "sb-refresh-token"

	DefaultRefreshMaxAge = 7 * 24 * time.Hour
)

// Cookies controls how session cookies are written. All cookies are HttpOnly,
// SameSite=Lax and scoped to Path=/.
type Cookies struct {
	Secure        bool
	RefreshMaxAge time.Duration
}

func (ck Cookies) refreshMaxAge() time.Duration {
	if ck.RefreshMaxAge <= 0 {
		return DefaultRefreshMaxAge
	}
	return ck.RefreshMaxAge
}

// Read returns the session token and refresh credential presented by the client.
func (ck Cookies) Read(c *gin.Context) (token, refresh string) {
	if v, err := c.Cookie(AccessCookie); err == nil {
		token = v
	}
	if v, err := c.Cookie(RefreshCookie); err == nil {
		refresh = v
	}
	return token, refresh
}

// Write sets the session token cookie and, when non-empty, the refresh credential cookie.
func (ck Cookies) Write(c *gin.Context, token string, ttl time.Duration, refresh string) {
	http.SetCookie(c.Writer, ck.cookie(AccessCookie, token, int(ttl/time.Second)))
	if refresh != "" {
		http.SetCookie(c.Writer, ck.cookie(RefreshCookie, refresh, int(ck.refreshMaxAge()/time.Second)))
	}
}

// Clear expires both session cookies.
func (ck Cookies) Clear(c *gin.Context) {
	// net/http renders a negative MaxAge as Max-Age=0.
	http.SetCookie(c.Writer, ck.cookie(AccessCookie, "", -1))
	http.SetCookie(c.Writer, ck.cookie(RefreshCookie, "", -1))
}

func (ck Cookies) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   ck.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
