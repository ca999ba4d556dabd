package auth

import "context"

type ctxKey int

const ctxClaims ctxKey = iota

// WithClaims binds verified claims to ctx for downstream handlers.
func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, ctxClaims, c)
}

// ClaimsFrom returns the claims bound by WithClaims; ok is false for anonymous requests.
func ClaimsFrom(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(ctxClaims).(Claims)
	return c, ok && c.Subject != ""
}

// UserID returns the subject of the bound claims.
func UserID(ctx context.Context) (string, error) {
	c, ok := ClaimsFrom(ctx)
	if !ok {
		return "", ErrNoSession
	}
	return c.Subject, nil
}
