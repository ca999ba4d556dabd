package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"session-gateway/internal/auth"
	"session-gateway/pkg/logger"
)

// DefaultTokenTTL applies when the provider does not report a session lifetime.
const DefaultTokenTTL = time.Hour

// ErrInternal marks failures that are not "caller is not logged in", such as a
// token that cannot be minted. Resolve never coerces these into Anonymous.
var ErrInternal = errors.New("session: internal error")

// ProviderSession is what the identity provider hands back for a renewed credential.
type ProviderSession struct {
	Identity          string
	Email             string
	RefreshCredential string
	TTL               time.Duration
	// CreatedAt is when the provider created the user; zero if not reported.
	CreatedAt time.Time
}

// CredentialExchanger trades a provider refresh credential for a renewed session.
// Implementations must be safe for concurrent use.
type CredentialExchanger interface {
	ExchangeRefreshCredential(ctx context.Context, refreshCredential string) (ProviderSession, error)
}

// TierLookup returns the current subscription tier for an identity.
// Any error, including not-found, resolves to the free tier.
type TierLookup interface {
	GetTier(ctx context.Context, identity string) (auth.Tier, *time.Time, error)
}

// TokenCodec is the subset of *auth.Codec the resolver needs.
type TokenCodec interface {
	Verify(token string) auth.Verification
	Mint(sc auth.SubjectClaims, ttl time.Duration) (string, auth.Claims, error)
}

// Recorder receives resolver events; see internal/metrics.
type Recorder interface {
	ObserveVerify(status, reason string)
	ObserveResolve(status string, reissued bool)
	ObserveRefreshFailure(stage string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveVerify(string, string) {}
func (nopRecorder) ObserveResolve(string, bool)  {}
func (nopRecorder) ObserveRefreshFailure(string) {}

// Resolver decides, per request, whether a presented token is accepted as-is or
// the provider credential is refreshed and a new token minted.
// It holds no per-call state and is safe for concurrent use.
type Resolver struct {
	codec      TokenCodec
	exchanger  CredentialExchanger
	tiers      TierLookup
	metrics    Recorder
	defaultTTL time.Duration
}

type Option func(*Resolver)

func WithRecorder(rec Recorder) Option {
	return func(r *Resolver) {
		if rec != nil {
			r.metrics = rec
		}
	}
}

// WithDefaultTTL overrides DefaultTokenTTL.
func WithDefaultTTL(d time.Duration) Option {
	return func(r *Resolver) {
		if d >= time.Second {
			r.defaultTTL = d
		}
	}
}

func NewResolver(codec TokenCodec, exchanger CredentialExchanger, tiers TierLookup, opts ...Option) *Resolver {
	r := &Resolver{
		codec:      codec,
		exchanger:  exchanger,
		tiers:      tiers,
		metrics:    nopRecorder{},
		defaultTTL: DefaultTokenTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs a single pass of the session state machine. The returned error is
// non-nil only for internal failures (wrapping ErrInternal); every expected
// failure is reported as an Anonymous outcome.
func (r *Resolver) Resolve(ctx context.Context, token, refreshCredential string) (Outcome, error) {
	out, err := r.resolve(ctx, token, refreshCredential)
	if err == nil {
		r.metrics.ObserveResolve(out.Status.String(), out.Reissued())
	}
	return out, err
}

func (r *Resolver) resolve(ctx context.Context, token, refreshCredential string) (Outcome, error) {
	if token == "" {
		return anonymous("no_token"), nil
	}

	v := r.codec.Verify(token)
	r.metrics.ObserveVerify(v.Status.String(), string(v.Reason))
	if v.Valid() {
		return Outcome{Status: StatusAuthenticated, Claims: v.Claims}, nil
	}

	log := logger.From(ctx).With("verify_reason", string(v.Reason))
	if refreshCredential == "" {
		log.Debug("session token rejected, no refresh credential")
		return anonymous(string(v.Reason)), nil
	}
	return r.refresh(ctx, log, refreshCredential)
}

func (r *Resolver) refresh(ctx context.Context, log *slog.Logger, refreshCredential string) (Outcome, error) {
	if r.exchanger == nil {
		return Outcome{}, fmt.Errorf("%w: credential exchanger not configured", ErrInternal)
	}

	ps, err := r.exchanger.ExchangeRefreshCredential(ctx, refreshCredential)
	if err != nil {
		r.metrics.ObserveRefreshFailure("exchange")
		log.Info("refresh credential exchange failed", "err", err)
		return anonymous("refresh_failed"), nil
	}
	if ps.Identity == "" {
		r.metrics.ObserveRefreshFailure("exchange")
		log.Warn("refresh credential exchange returned no identity")
		return anonymous("refresh_failed"), nil
	}

	return r.establish(ctx, log, ps)
}

// Establish mints a token for a provider session that was obtained outside the
// refresh path, e.g. a password sign-in. It follows the same tier rules as refresh.
func (r *Resolver) Establish(ctx context.Context, ps ProviderSession) (Outcome, error) {
	if ps.Identity == "" {
		return anonymous("no_identity"), nil
	}
	out, err := r.establish(ctx, logger.From(ctx), ps)
	if err == nil {
		r.metrics.ObserveResolve(out.Status.String(), out.Reissued())
	}
	return out, err
}

func (r *Resolver) establish(ctx context.Context, log *slog.Logger, ps ProviderSession) (Outcome, error) {
	log = log.With("user_id", ps.Identity)

	tier, tierExpiresAt := auth.TierFree, (*time.Time)(nil)
	if r.tiers != nil {
		t, exp, err := r.tiers.GetTier(ctx, ps.Identity)
		switch {
		case err != nil:
			log.Debug("subscription lookup failed, defaulting to free", "err", err)
		case !t.Valid():
			log.Warn("subscription lookup returned unknown tier, defaulting to free", "tier", string(t))
		default:
			tier, tierExpiresAt = t, exp
		}
	}

	// Cancellation during either external call degrades to anonymous rather than
	// minting from a half-finished refresh.
	if err := ctx.Err(); err != nil {
		r.metrics.ObserveRefreshFailure("canceled")
		log.Info("session refresh canceled", "err", err)
		return anonymous("refresh_canceled"), nil
	}

	ttl := ps.TTL
	if ttl < time.Second {
		ttl = r.defaultTTL
	}

	tok, claims, err := r.codec.Mint(auth.SubjectClaims{
		Subject:       ps.Identity,
		Email:         ps.Email,
		Tier:          tier,
		TierExpiresAt: tierExpiresAt,
	}, ttl)
	if err != nil {
		log.Error("mint session token failed", "err", err)
		return Outcome{}, fmt.Errorf("%w: mint: %w", ErrInternal, err)
	}

	log.Debug("session token reissued", "tier", string(tier))
	return Outcome{
		Status:            StatusAuthenticated,
		Claims:            &claims,
		ReissuedToken:     tok,
		RefreshCredential: ps.RefreshCredential,
		TokenTTL:          ttl.Truncate(time.Second),
		UserCreatedAt:     ps.CreatedAt,
	}, nil
}
