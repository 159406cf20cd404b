package audit

import "time"

// Event is an immutable, append-only audit log record for auth state
// transitions.
//
// Invariants:
// - Events are never updated or deleted.
// - Audit is internal-only; records are not exposed to tenant users.
// - Appending is best-effort; critical auth flows must not block on it.
type Event struct {
	ID string `json:"id" db:"id"`

	// TenantID may be empty for failed logins where no tenant was resolved.
	TenantID string `json:"tenant_id,omitempty" db:"tenant_id"`

	// Type indicates the auth transition being recorded.
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the user the tokens belong to (if known).
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`

	// FamilyID and TokenID identify the refresh session involved.
	// Raw token material is never recorded, only opaque ids.
	FamilyID string `json:"family_id,omitempty" db:"family_id"`
	TokenID  string `json:"token_id,omitempty" db:"token_id"`

	// IPAddress should capture the original client IP when available.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeLogin         EventType = "login"
	EventTypeLoginFailed   EventType = "login_failed"
	EventTypeTokenRotated  EventType = "token_rotated"
	EventTypeReuseDetected EventType = "reuse_detected"
	EventTypeFamilyRevoked EventType = "family_revoked"
)
