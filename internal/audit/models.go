package audit

import "time"

// Event is an immutable, append-only record of an authentication event.
//
// Invariants:
// - Events are never updated or deleted.
// - Either UserID or Email identifies the subject; failed sign-ins only know the email.
// - Capture is best-effort; audit failures never block a sign-in or a refresh.
//
// Storage (Postgres): table auth_audit_events with an INSERT-only grant.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	UserID string `json:"user_id,omitempty" db:"user_id"`
	Email  string `json:"email,omitempty" db:"email"`

	// IPAddress is the client IP as resolved by gin (trusted proxies apply).
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent string `json:"user_agent,omitempty" db:"user_agent"`
	RequestID string `json:"request_id,omitempty" db:"request_id"`

	// Message is a short description for internal ops, never a credential.
	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventSignIn           EventType = "sign_in"
	EventSignInFailed     EventType = "sign_in_failed"
	EventSignOut          EventType = "sign_out"
	EventSessionRefreshed EventType = "session_refreshed"
)
