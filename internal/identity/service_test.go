package identity

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func seedUser(t *testing.T, repo *MemoryRepo, status UserStatus) User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	u := User{
		ID:           "user-1",
		TenantID:     "t1",
		Email:        "one@t1.example",
		PasswordHash: string(hash),
		Roles:        []string{"manager"},
		Status:       status,
	}
	repo.Put(u)
	return u
}

func TestAuthenticate_Succeeds(t *testing.T) {
	repo := NewMemoryRepo()
	seedUser(t, repo, UserStatusActive)
	svc := NewService(repo)

	u, err := svc.Authenticate(context.Background(), "one@t1.example", "hunter2")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u.ID != "user-1" || u.TenantID != "t1" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestAuthenticate_WrongPasswordAndUnknownUserLookAlike(t *testing.T) {
	repo := NewMemoryRepo()
	seedUser(t, repo, UserStatusActive)
	svc := NewService(repo)

	_, wrongPw := svc.Authenticate(context.Background(), "one@t1.example", "nope")
	_, unknown := svc.Authenticate(context.Background(), "ghost@t1.example", "hunter2")

	if !errors.Is(wrongPw, ErrInvalidCredentials) || !errors.Is(unknown, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", wrongPw, unknown)
	}
}

func TestAuthenticate_DisabledUser(t *testing.T) {
	repo := NewMemoryRepo()
	seedUser(t, repo, UserStatusDisabled)
	svc := NewService(repo)

	if _, err := svc.Authenticate(context.Background(), "one@t1.example", "hunter2"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got %v", err)
	}
}

func TestSnapshot_ReturnsLiveState(t *testing.T) {
	repo := NewMemoryRepo()
	u := seedUser(t, repo, UserStatusActive)
	svc := NewService(repo)

	snap, err := svc.Snapshot(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.TenantID != "t1" || len(snap.Roles) != 1 || snap.Roles[0] != "manager" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	u.Roles = []string{"admin"}
	repo.Put(u)

	snap, err = svc.Snapshot(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Roles) != 1 || snap.Roles[0] != "admin" {
		t.Fatalf("expected updated roles, got %v", snap.Roles)
	}
}

func TestSnapshot_UnknownUser(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if _, err := svc.Snapshot(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
