package tenant

import (
	"errors"
	"strings"
)

// HeaderTenantID is the fallback tenant header for unauthenticated routes
// that still require tenant scoping.
const HeaderTenantID = "X-Tenant-Id"

var (
	ErrMissingTenant  = errors.New("tenant: no tenant resolved")
	ErrTenantMismatch = errors.New("tenant: claim and header disagree")
)

// Resolve picks the authoritative tenant id for a request.
//
// An authenticated principal's tenant_id claim wins. A header may supply the
// tenant only when no principal is present. When both exist and disagree the
// request fails; one source is never silently preferred over the other.
func Resolve(claimTenantID, headerTenantID string) (string, error) {
	headerTenantID = strings.TrimSpace(headerTenantID)

	if claimTenantID != "" {
		if headerTenantID != "" && headerTenantID != claimTenantID {
			return "", ErrTenantMismatch
		}
		return claimTenantID, nil
	}
	if headerTenantID != "" {
		return headerTenantID, nil
	}
	return "", ErrMissingTenant
}
