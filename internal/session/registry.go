package session

import (
	"context"
	"errors"
	"time"
)

// Session is the durable state of one refresh-token family.
//
// Invariants:
//   - At most one non-revoked token id is current for a family at any instant.
//   - Sequence only moves forward, by exactly one per successful Advance.
//   - Revoked families stay in the registry so late replays are still
//     distinguishable from unknown families.
type Session struct {
	FamilyID  string
	TokenID   string // current (latest) refresh token id
	UserID    string
	TenantID  string
	Sequence  int64
	Revoked   bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

var (
	ErrNotFound      = errors.New("session: family not found")
	ErrRevoked       = errors.New("session: family revoked")
	ErrExpired       = errors.New("session: family expired")
	ErrTokenMismatch = errors.New("session: presented token is not current")
)

// Registry persists refresh-token families.
//
// Advance is the contended operation: it must atomically compare the presented
// token id against the family's current one and advance the sequence. Under
// concurrent rotation attempts for the same token id exactly one caller
// succeeds; the loser observes ErrTokenMismatch and is treated as reuse by the
// token service.
type Registry interface {
	Create(ctx context.Context, s Session) error
	Advance(ctx context.Context, familyID, presentedTokenID, newTokenID string, now, newExpiresAt time.Time) (Session, error)
	// RevokeFamily marks the whole family revoked. Idempotent.
	RevokeFamily(ctx context.Context, familyID string) error
	Get(ctx context.Context, familyID string) (Session, error)
}
