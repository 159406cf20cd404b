package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"authgate/pkg/utils"
)

// PostgresRegistry stores refresh-token families in Postgres.
//
// Assumed table:
//
//	refresh_sessions (
//	  family_id        TEXT PRIMARY KEY,
//	  current_token_id TEXT NOT NULL,
//	  user_id          TEXT NOT NULL,
//	  tenant_id        TEXT NOT NULL,
//	  sequence         BIGINT NOT NULL,
//	  revoked          BOOLEAN NOT NULL DEFAULT FALSE,
//	  created_at       TIMESTAMPTZ NOT NULL,
//	  expires_at       TIMESTAMPTZ NOT NULL
//	)
type PostgresRegistry struct {
	db *sql.DB
}

func NewPostgresRegistry(db *sql.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

func (r *PostgresRegistry) Create(ctx context.Context, s Session) error {
	const q = `
INSERT INTO refresh_sessions (
  family_id, current_token_id, user_id, tenant_id, sequence, revoked, created_at, expires_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8
)
`
	_, err := r.db.ExecContext(ctx, q,
		s.FamilyID,
		s.TokenID,
		s.UserID,
		s.TenantID,
		s.Sequence,
		s.Revoked,
		s.CreatedAt,
		s.ExpiresAt,
	)
	return err
}

// Advance performs the compare-and-advance as a single conditional UPDATE.
// The WHERE clause is the optimistic concurrency check: two racing rotations
// for the same token id serialize on the row, and the loser matches zero rows.
// The diagnostic SELECT runs in the same transaction so the reported cause is
// consistent with what the UPDATE observed.
func (r *PostgresRegistry) Advance(ctx context.Context, familyID, presentedTokenID, newTokenID string, now, newExpiresAt time.Time) (Session, error) {
	const update = `
UPDATE refresh_sessions
SET current_token_id = $3,
    sequence = sequence + 1,
    expires_at = $4
WHERE family_id = $1
  AND current_token_id = $2
  AND revoked = FALSE
  AND expires_at > $5
RETURNING family_id, current_token_id, user_id, tenant_id, sequence, revoked, created_at, expires_at
`
	const inspect = `
SELECT family_id, current_token_id, user_id, tenant_id, sequence, revoked, created_at, expires_at
FROM refresh_sessions
WHERE family_id = $1
`

	var out Session
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		err := scanSession(tx.QueryRowContext(ctx, update, familyID, presentedTokenID, newTokenID, newExpiresAt, now), &out)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		// Zero rows updated; find out why.
		var cur Session
		if err := scanSession(tx.QueryRowContext(ctx, inspect, familyID), &cur); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		switch {
		case cur.Revoked:
			return ErrRevoked
		case !cur.ExpiresAt.After(now):
			return ErrExpired
		default:
			return ErrTokenMismatch
		}
	})
	if err != nil {
		return Session{}, err
	}
	return out, nil
}

func (r *PostgresRegistry) RevokeFamily(ctx context.Context, familyID string) error {
	const q = `
UPDATE refresh_sessions
SET revoked = TRUE
WHERE family_id = $1
`
	_, err := r.db.ExecContext(ctx, q, familyID)
	return err
}

func (r *PostgresRegistry) Get(ctx context.Context, familyID string) (Session, error) {
	const q = `
SELECT family_id, current_token_id, user_id, tenant_id, sequence, revoked, created_at, expires_at
FROM refresh_sessions
WHERE family_id = $1
`
	var s Session
	if err := scanSession(r.db.QueryRowContext(ctx, q, familyID), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner, s *Session) error {
	return row.Scan(
		&s.FamilyID,
		&s.TokenID,
		&s.UserID,
		&s.TenantID,
		&s.Sequence,
		&s.Revoked,
		&s.CreatedAt,
		&s.ExpiresAt,
	)
}
