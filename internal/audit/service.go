package audit

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records auth state transitions: logins, rotations, reuse detection
// and family revocations.
//
// Callers should treat audit logging as best-effort; a nil *Service is safe
// and records nothing.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s == nil || s.repo == nil {
		return nil
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogLogin records a successful credential login that opened a new family.
func (s *Service) LogLogin(ctx context.Context, tenantID, userID, familyID, ip string) error {
	return s.Append(ctx, Event{
		TenantID:    tenantID,
		Type:        EventTypeLogin,
		ActorUserID: userID,
		FamilyID:    familyID,
		IPAddress:   ip,
		Message:     "login succeeded",
	})
}

// LogLoginFailed records a failed credential login. No tenant is known yet.
func (s *Service) LogLoginFailed(ctx context.Context, ip string) error {
	return s.Append(ctx, Event{
		Type:      EventTypeLoginFailed,
		IPAddress: ip,
		Message:   "login failed",
	})
}

// LogRotation records a successful refresh-token rotation.
func (s *Service) LogRotation(ctx context.Context, tenantID, userID, familyID, tokenID string, sequence int64) error {
	return s.Append(ctx, Event{
		TenantID:    tenantID,
		Type:        EventTypeTokenRotated,
		ActorUserID: userID,
		FamilyID:    familyID,
		TokenID:     tokenID,
		Message:     "refresh token rotated",
		Metadata:    sequenceMetadata(sequence),
	})
}

// LogReuseDetected records a replayed refresh token and the resulting
// family revocation.
func (s *Service) LogReuseDetected(ctx context.Context, tenantID, userID, familyID, tokenID string) error {
	return s.Append(ctx, Event{
		TenantID:    tenantID,
		Type:        EventTypeReuseDetected,
		ActorUserID: userID,
		FamilyID:    familyID,
		TokenID:     tokenID,
		Message:     "refresh token reuse detected; family revoked",
	})
}

// LogFamilyRevoked records an explicit family revocation (logout, admin).
func (s *Service) LogFamilyRevoked(ctx context.Context, tenantID, actorUserID, familyID string) error {
	return s.Append(ctx, Event{
		TenantID:    tenantID,
		Type:        EventTypeFamilyRevoked,
		ActorUserID: actorUserID,
		FamilyID:    familyID,
		Message:     "session family revoked",
	})
}

func sequenceMetadata(seq int64) string {
	return `{"sequence":` + strconv.FormatInt(seq, 10) + `}`
}
