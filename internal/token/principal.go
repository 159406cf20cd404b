package token

import (
	"context"
	"errors"
	"time"
)

// Principal is the verified identity behind a request. It is derived from a
// verified access token and is immutable for the request's lifetime.
type Principal struct {
	UserID    string
	TenantID  string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type ctxKey int

const ctxPrincipal ctxKey = iota

// WithPrincipal stores the verified principal on the request context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipal, p)
}

// PrincipalFrom returns the request's principal, if one was verified.
func PrincipalFrom(ctx context.Context) (Principal, error) {
	if p, ok := ctx.Value(ctxPrincipal).(Principal); ok && p.UserID != "" {
		return p, nil
	}
	return Principal{}, errors.New("principal not in context")
}
