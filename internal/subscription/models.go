package subscription

import (
	"errors"
	"time"

	"session-gateway/internal/auth"
)

var ErrNotFound = errors.New("subscription not found")

type Status string

const (
	StatusActive   Status = "active"
	StatusTrialing Status = "trialing"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
)

// Entitled reports whether a subscription in this status grants its tier.
func (s Status) Entitled() bool {
	return s == StatusActive || s == StatusTrialing
}

// Subscription is the current plan row for a user.
type Subscription struct {
	UserID string    `json:"user_id" db:"user_id"`
	Tier   auth.Tier `json:"tier" db:"tier"`
	Status Status    `json:"status" db:"status"`

	// ExpiresAt is when the paid period lapses; nil means open-ended.
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}
