package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tier is the subscription level carried in session tokens.
type Tier string

const (
	TierFree Tier = "free"
	TierPlus Tier = "plus"
	TierPro  Tier = "pro"
)

// ParseTier maps a stored tier name onto the closed tier set.
func ParseTier(s string) (Tier, error) {
	switch t := Tier(s); t {
	case TierFree, TierPlus, TierPro:
		return t, nil
	default:
		return "", fmt.Errorf("unknown tier %q", s)
	}
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	_, err := ParseTier(string(t))
	return err == nil
}

// Rank orders tiers for entitlement checks. Unknown tiers rank below free.
func (t Tier) Rank() int {
	switch t {
	case TierFree:
		return 0
	case TierPlus:
		return 1
	case TierPro:
		return 2
	default:
		return -1
	}
}

// AtLeast reports whether t grants everything floor grants.
func (t Tier) AtLeast(floor Tier) bool {
	return t.Valid() && t.Rank() >= floor.Rank()
}

// SubjectClaims is the caller-supplied part of a token; timestamps are stamped at mint time.
type SubjectClaims struct {
	Subject       string
	Email         string
	Tier          Tier
	TierExpiresAt *time.Time
}

// Claims is the only supported token payload shape.
// Field names are part of the wire format and must stay stable.
type Claims struct {
	Subject       string           `json:"sub"`
	Email         string           `json:"email,omitempty"`
	Tier          Tier             `json:"tier"`
	TierExpiresAt *jwt.NumericDate `json:"expires_at,omitempty"`
	IssuedAt      *jwt.NumericDate `json:"iat"`
	ExpiresAt     *jwt.NumericDate `json:"exp"`
}

var errClaimShape = errors.New("claim shape invalid")

// Validate is called by the jwt validator after the registered-claim checks.
// A missing tier decodes as free; any other absence is rejected.
func (c *Claims) Validate() error {
	if c.Subject == "" {
		return fmt.Errorf("%w: sub missing", errClaimShape)
	}
	if c.IssuedAt == nil {
		return fmt.Errorf("%w: iat missing", errClaimShape)
	}
	if c.ExpiresAt == nil {
		return fmt.Errorf("%w: exp missing", errClaimShape)
	}
	if !c.ExpiresAt.After(c.IssuedAt.Time) {
		return fmt.Errorf("%w: exp not after iat", errClaimShape)
	}
	if c.Tier == "" {
		c.Tier = TierFree
	}
	if !c.Tier.Valid() {
		return fmt.Errorf("%w: tier %q", errClaimShape, c.Tier)
	}
	return nil
}

// SubjectClaims returns the caller-supplied part of c.
func (c Claims) SubjectClaims() SubjectClaims {
	out := SubjectClaims{
		Subject: c.Subject,
		Email:   c.Email,
		Tier:    c.Tier,
	}
	if c.TierExpiresAt != nil {
		t := c.TierExpiresAt.Time.UTC()
		out.TierExpiresAt = &t
	}
	return out
}

// jwt.Claims implementation.

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c Claims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c Claims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c Claims) GetIssuer() (string, error)                   { return "", nil }
func (c Claims) GetSubject() (string, error)                  { return c.Subject, nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }
