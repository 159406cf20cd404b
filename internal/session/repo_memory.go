package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryRegistry is an in-process Registry useful for tests and local runs.
// It is not durable and not intended for production use.
type MemoryRegistry struct {
	mu       sync.Mutex
	families map[string]Session
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{families: make(map[string]Session)}
}

func (r *MemoryRegistry) Create(ctx context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.families[s.FamilyID]; ok {
		return errors.New("session: family already exists")
	}
	r.families[s.FamilyID] = s
	return nil
}

func (r *MemoryRegistry) Advance(ctx context.Context, familyID, presentedTokenID, newTokenID string, now, newExpiresAt time.Time) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.families[familyID]
	if !ok {
		return Session{}, ErrNotFound
	}
	if s.Revoked {
		return Session{}, ErrRevoked
	}
	if !s.ExpiresAt.After(now) {
		return Session{}, ErrExpired
	}
	if s.TokenID != presentedTokenID {
		return Session{}, ErrTokenMismatch
	}

	s.TokenID = newTokenID
	s.Sequence++
	s.ExpiresAt = newExpiresAt
	r.families[familyID] = s
	return s, nil
}

func (r *MemoryRegistry) RevokeFamily(ctx context.Context, familyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.families[familyID]
	if !ok {
		return nil
	}
	s.Revoked = true
	r.families[familyID] = s
	return nil
}

func (r *MemoryRegistry) Get(ctx context.Context, familyID string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.families[familyID]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}
