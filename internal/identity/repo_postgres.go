package identity

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresRepo reads users, tenant membership and roles from Postgres.
//
// Assumed tables:
//
//	users (
//	  id            TEXT PRIMARY KEY,
//	  tenant_id     TEXT NOT NULL,
//	  email         TEXT NOT NULL UNIQUE,
//	  password_hash TEXT NOT NULL,
//	  status        TEXT NOT NULL,
//	  created_at    TIMESTAMPTZ NOT NULL
//	)
//	user_roles (
//	  user_id TEXT NOT NULL REFERENCES users(id),
//	  role    TEXT NOT NULL,
//	  PRIMARY KEY (user_id, role)
//	)
//	tenants (
//	  id   TEXT PRIMARY KEY,
//	  name TEXT NOT NULL
//	)
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	const q = `
SELECT id, tenant_id, email, password_hash, status, created_at
FROM users
WHERE email = $1
`
	return r.findOne(ctx, q, email)
}

func (r *PostgresRepo) FindByID(ctx context.Context, id string) (User, error) {
	const q = `
SELECT id, tenant_id, email, password_hash, status, created_at
FROM users
WHERE id = $1
`
	return r.findOne(ctx, q, id)
}

func (r *PostgresRepo) FindTenant(ctx context.Context, tenantID string) (Tenant, error) {
	const q = `
SELECT id, name
FROM tenants
WHERE id = $1
`
	var t Tenant
	if err := r.db.QueryRowContext(ctx, q, tenantID).Scan(&t.ID, &t.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tenant{}, ErrNotFound
		}
		return Tenant{}, err
	}
	return t, nil
}

func (r *PostgresRepo) findOne(ctx context.Context, query, arg string) (User, error) {
	var u User
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.TenantID,
		&u.Email,
		&u.PasswordHash,
		&u.Status,
		&u.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}

	roles, err := r.rolesFor(ctx, u.ID)
	if err != nil {
		return User{}, err
	}
	u.Roles = roles
	return u, nil
}

func (r *PostgresRepo) rolesFor(ctx context.Context, userID string) ([]string, error) {
	const q = `
SELECT role
FROM user_roles
WHERE user_id = $1
ORDER BY role
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
