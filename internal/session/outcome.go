package session

import (
	"time"

	"session-gateway/internal/auth"
)

type Status int

const (
	StatusAnonymous Status = iota
	StatusAuthenticated
)

func (s Status) String() string {
	if s == StatusAuthenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Outcome is the result of resolving a presented token.
//
// ReissuedToken is set only when the refresh path minted a new token; the caller must
// then replace the client-held token (and RefreshCredential, if non-empty).
type Outcome struct {
	Status Status
	Claims *auth.Claims

	ReissuedToken     string
	RefreshCredential string
	TokenTTL          time.Duration
	// UserCreatedAt is only known when the provider was consulted.
	UserCreatedAt time.Time

	// Reason records why the fast path was not taken, for logs only.
	Reason string
}

func (o Outcome) Authenticated() bool { return o.Status == StatusAuthenticated }

func (o Outcome) Reissued() bool { return o.ReissuedToken != "" }

func anonymous(reason string) Outcome {
	return Outcome{Status: StatusAnonymous, Reason: reason}
}
