package identity

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("identity: not found")
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	ErrUserDisabled       = errors.New("identity: user disabled")
)

// Repository is the persistence contract for the credential store.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	FindTenant(ctx context.Context, tenantID string) (Tenant, error)
}

// Directory is the read side consumed by the token service at rotation time.
type Directory interface {
	Snapshot(ctx context.Context, userID string) (Snapshot, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate verifies a password against the stored bcrypt hash.
// All failure modes beyond a plain lookup error collapse to
// ErrInvalidCredentials so callers cannot distinguish unknown users
// from wrong passwords.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	if email == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if u.Status != UserStatusActive {
		return User{}, ErrUserDisabled
	}
	return u, nil
}

// Snapshot re-reads live tenant membership and roles for a user.
func (s *Service) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	if userID == "" {
		return Snapshot{}, ErrNotFound
	}
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	if u.Status != UserStatusActive {
		return Snapshot{}, ErrUserDisabled
	}
	return Snapshot{UserID: u.ID, TenantID: u.TenantID, Roles: u.Roles}, nil
}

// Tenant looks up tenant metadata by id.
func (s *Service) Tenant(ctx context.Context, tenantID string) (Tenant, error) {
	if tenantID == "" {
		return Tenant{}, ErrNotFound
	}
	return s.repo.FindTenant(ctx, tenantID)
}
