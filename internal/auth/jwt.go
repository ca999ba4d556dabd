package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Reason says why a token was rejected. It is for logs and metrics only;
// callers branch on Status.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonMalformed    Reason = "malformed"
	ReasonBadSignature Reason = "bad_signature"
	ReasonExpired      Reason = "expired"
	ReasonNotYetValid  Reason = "not_yet_valid"
)

type VerifyStatus int

const (
	StatusInvalid VerifyStatus = iota
	StatusValid
	StatusExpired
)

func (s VerifyStatus) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// Verification is the outcome of Codec.Verify.
// Claims is set for StatusValid and StatusExpired, nil otherwise.
type Verification struct {
	Status VerifyStatus
	Reason Reason
	Claims *Claims
}

func (v Verification) Valid() bool { return v.Status == StatusValid }

// Codec mints and verifies HS256 session tokens.
// It holds no state besides the read-only secret and is safe for concurrent use.
type Codec struct {
	secret []byte
	clock  func() time.Time
	parser *jwt.Parser
}

type CodecOption func(*Codec)

// WithClock overrides the time source used by both Mint and Verify.
func WithClock(clock func() time.Time) CodecOption {
	return func(c *Codec) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func NewCodec(secret []byte, opts ...CodecOption) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}

	c := &Codec{
		secret: append([]byte(nil), secret...),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)
	return c, nil
}

func (c *Codec) now() time.Time {
	if c.clock == nil {
		return time.Now()
	}
	return c.clock()
}

/* ===================== MINT ===================== */

// Mint signs sc into a new token valid for ttl from now.
// ttl is truncated to whole seconds and must be at least one second.
func (c *Codec) Mint(sc SubjectClaims, ttl time.Duration) (string, Claims, error) {
	if c == nil || len(c.secret) == 0 {
		return "", Claims{}, ErrMissingSecret
	}
	ttl = ttl.Truncate(time.Second)
	if ttl <= 0 {
		return "", Claims{}, fmt.Errorf("%w: ttl must be positive", ErrInvalidClaims)
	}
	if sc.Subject == "" {
		return "", Claims{}, fmt.Errorf("%w: subject is required", ErrInvalidClaims)
	}
	if !sc.Tier.Valid() {
		return "", Claims{}, fmt.Errorf("%w: tier %q", ErrInvalidClaims, sc.Tier)
	}

	iat := jwt.NewNumericDate(c.now())
	claims := Claims{
		Subject:   sc.Subject,
		Email:     sc.Email,
		Tier:      sc.Tier,
		IssuedAt:  iat,
		ExpiresAt: jwt.NewNumericDate(iat.Add(ttl)),
	}
	if sc.TierExpiresAt != nil {
		claims.TierExpiresAt = jwt.NewNumericDate(*sc.TierExpiresAt)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(c.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

/* ===================== VERIFY ===================== */

// Verify checks structure, signature and expiry, in that order.
// It never returns an error; every rejection is a Verification with a Reason.
func (c *Codec) Verify(token string) Verification {
	if c == nil || len(c.secret) == 0 {
		return invalid(ReasonBadSignature)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return invalid(ReasonMalformed)
	}

	// Strict decoding rejects non-zero padding bits. The decoder still skips
	// CR/LF, so the round trip pins each signature to exactly one encoding.
	sig, err := c.parser.DecodeSegment(parts[2])
	if err != nil || base64.RawURLEncoding.EncodeToString(sig) != parts[2] {
		return invalid(ReasonBadSignature)
	}
	// hmac.Equal inside Verify keeps the comparison constant-time.
	if err := jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, c.secret); err != nil {
		return invalid(ReasonBadSignature)
	}

	var claims Claims
	_, err = c.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err == nil {
		return Verification{Status: StatusValid, Claims: &claims}
	}

	switch {
	case errors.Is(err, errClaimShape), errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return invalid(ReasonMalformed)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return invalid(ReasonBadSignature)
	case errors.Is(err, jwt.ErrTokenExpired):
		return Verification{Status: StatusExpired, Reason: ReasonExpired, Claims: &claims}
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return invalid(ReasonNotYetValid)
	default:
		return invalid(ReasonMalformed)
	}
}

func invalid(r Reason) Verification {
	return Verification{Status: StatusInvalid, Reason: r}
}
