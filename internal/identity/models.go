package identity

import "time"

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// User is a credential-store record. PasswordHash is an opaque bcrypt hash;
// raw passwords never appear outside Authenticate.
type User struct {
	ID           string
	TenantID     string
	Email        string
	PasswordHash string
	Roles        []string
	Status       UserStatus
	CreatedAt    time.Time
}

type Tenant struct {
	ID   string
	Name string
}

// Snapshot is the live role/tenant state of a user, re-read at rotation time
// so role changes take effect on the next rotation rather than retroactively.
type Snapshot struct {
	UserID   string
	TenantID string
	Roles    []string
}
