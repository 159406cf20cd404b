package tenant

import (
	"context"
	"errors"
)

type ctxKey int

const ctxTenantID ctxKey = iota

// With stores the resolved tenant id on the request context. The carrier is
// the request's own context value chain, so it is released with the request
// on every exit path and is never visible to concurrent requests.
func With(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ctxTenantID, tenantID)
}

// From returns the active tenant id. Downstream data access must scope every
// query by this value.
func From(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxTenantID).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("tenant_id not in context")
}
