package token

import (
	"context"
	"errors"
	"time"

	"authgate/internal/audit"
	"authgate/internal/config"
	"authgate/internal/identity"
	"authgate/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Pair is one access/refresh issuance. FamilyID identifies the refresh
// session the pair belongs to.
type Pair struct {
	AccessToken  string
	RefreshToken string
	FamilyID     string
}

// Service issues and verifies token pairs and rotates refresh tokens.
//
// Access tokens are stateless: validity is signature + claim checks only.
// Refresh tokens are tracked in the session registry for reuse detection;
// a replayed token id revokes its whole family before the error surfaces.
type Service struct {
	codec    *Codec
	sessions session.Registry
	users    identity.Directory
	audit    *audit.Service

	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	skew       time.Duration

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(cfg config.AuthConfig, sessions session.Registry, users identity.Directory, auditLog *audit.Service) (*Service, error) {
	codec, err := NewCodec([]byte(cfg.JWTSecret))
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		return nil, errors.New("token: session registry is required")
	}
	if users == nil {
		return nil, errors.New("token: identity directory is required")
	}

	skew := cfg.ClockSkew
	if skew <= 0 {
		skew = 60 * time.Second
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}

	return &Service{
		codec:      codec,
		sessions:   sessions,
		users:      users,
		audit:      auditLog,
		issuer:     cfg.JWTIssuer,
		audience:   cfg.JWTAudience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		skew:       skew,
		clock:      time.Now,
	}, nil
}

/* ===================== ISSUE ===================== */

// Issue creates an access/refresh pair and opens a new session family at
// sequence 0.
func (s *Service) Issue(ctx context.Context, userID, tenantID string, roles []string) (Pair, error) {
	if userID == "" || tenantID == "" {
		return Pair{}, errors.New("token: user id and tenant id are required")
	}

	now := s.clock().UTC()
	familyID := uuid.NewString()
	refreshID := uuid.NewString()
	refreshExp := now.Add(s.refreshTTL)

	access, err := s.encodeAccess(now, userID, tenantID, roles)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.encodeRefresh(now, userID, tenantID, familyID, refreshID, 0)
	if err != nil {
		return Pair{}, err
	}

	if err := s.sessions.Create(ctx, session.Session{
		FamilyID:  familyID,
		TokenID:   refreshID,
		UserID:    userID,
		TenantID:  tenantID,
		Sequence:  0,
		CreatedAt: now,
		ExpiresAt: refreshExp,
	}); err != nil {
		return Pair{}, err
	}

	return Pair{AccessToken: access, RefreshToken: refresh, FamilyID: familyID}, nil
}

/* ===================== VERIFY ===================== */

// VerifyAccess checks signature, validity window, issuer and audience, and
// returns the request principal. It never consults the session registry;
// access tokens are trusted until expiry.
func (s *Service) VerifyAccess(tokenString string) (Principal, error) {
	claims, err := s.codec.Decode(tokenString)
	if err != nil {
		return Principal{}, err
	}
	if err := s.validate(claims); err != nil {
		return Principal{}, err
	}
	if claims.TokenType != TokenTypeAccess {
		return Principal{}, ErrMalformed
	}
	if claims.Subject == "" || claims.TenantID == "" {
		return Principal{}, ErrMalformed
	}

	p := Principal{
		UserID:   claims.Subject,
		TenantID: claims.TenantID,
		Roles:    claims.Roles,
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

/* ===================== ROTATE ===================== */

// Rotate exchanges a refresh token for a fresh pair. The presented token id
// must be the family's current one; anything else is treated as reuse and
// revokes the family before the error surfaces. Role and tenant state are
// re-read from the credential store so role changes apply from this rotation
// on, not retroactively to outstanding access tokens.
func (s *Service) Rotate(ctx context.Context, refreshToken string) (Pair, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return Pair{}, err
	}
	if err := s.validate(claims); err != nil {
		return Pair{}, err
	}
	if claims.TokenType != TokenTypeRefresh || claims.FamilyID == "" || claims.ID == "" {
		return Pair{}, ErrMalformed
	}

	now := s.clock().UTC()
	newID := uuid.NewString()
	newExp := now.Add(s.refreshTTL)

	sess, err := s.sessions.Advance(ctx, claims.FamilyID, claims.ID, newID, now, newExp)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrTokenMismatch), errors.Is(err, session.ErrNotFound):
			// Containment before availability: revoke the family, then fail.
			if rerr := s.sessions.RevokeFamily(ctx, claims.FamilyID); rerr != nil {
				return Pair{}, rerr
			}
			_ = s.audit.LogReuseDetected(ctx, claims.TenantID, claims.Subject, claims.FamilyID, claims.ID)
			return Pair{}, ErrReuseDetected
		case errors.Is(err, session.ErrRevoked):
			return Pair{}, ErrRevoked
		case errors.Is(err, session.ErrExpired):
			return Pair{}, ErrExpired
		default:
			return Pair{}, err
		}
	}

	snap, err := s.users.Snapshot(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) || errors.Is(err, identity.ErrUserDisabled) {
			if rerr := s.sessions.RevokeFamily(ctx, sess.FamilyID); rerr != nil {
				return Pair{}, rerr
			}
			_ = s.audit.LogFamilyRevoked(ctx, sess.TenantID, sess.UserID, sess.FamilyID)
			return Pair{}, ErrRevoked
		}
		return Pair{}, err
	}

	access, err := s.encodeAccess(now, snap.UserID, snap.TenantID, snap.Roles)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.encodeRefresh(now, snap.UserID, snap.TenantID, sess.FamilyID, newID, sess.Sequence)
	if err != nil {
		return Pair{}, err
	}

	_ = s.audit.LogRotation(ctx, snap.TenantID, snap.UserID, sess.FamilyID, newID, sess.Sequence)
	return Pair{AccessToken: access, RefreshToken: refresh, FamilyID: sess.FamilyID}, nil
}

/* ===================== REVOKE ===================== */

// RevokeFamily marks all refresh state for a family revoked. Idempotent.
func (s *Service) RevokeFamily(ctx context.Context, familyID string) error {
	if familyID == "" {
		return errors.New("token: family id is required")
	}

	// Read first for audit attribution; an unknown family still revokes cleanly.
	sess, err := s.sessions.Get(ctx, familyID)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return err
	}
	if err := s.sessions.RevokeFamily(ctx, familyID); err != nil {
		return err
	}
	_ = s.audit.LogFamilyRevoked(ctx, sess.TenantID, sess.UserID, familyID)
	return nil
}

// RevokeByToken revokes the family a refresh token belongs to (logout).
// Only the signature must hold; an expired or already-rotated token still
// identifies its family.
func (s *Service) RevokeByToken(ctx context.Context, refreshToken string) error {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return err
	}
	if claims.TokenType != TokenTypeRefresh || claims.FamilyID == "" {
		return ErrMalformed
	}
	return s.RevokeFamily(ctx, claims.FamilyID)
}

/* ===================== INTERNAL ===================== */

func (s *Service) validate(claims Claims) error {
	now := s.clock()

	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(s.skew),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	validator := jwt.NewValidator(opts...)
	if err := validator.Validate(claims.RegisteredClaims); err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrExpired
		case errors.Is(err, jwt.ErrTokenUsedBeforeIssued), errors.Is(err, jwt.ErrTokenNotValidYet):
			return ErrNotYetValid
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return ErrInvalidIssuer
		case errors.Is(err, jwt.ErrTokenInvalidAudience):
			return ErrInvalidAudience
		default:
			return ErrMalformed
		}
	}
	return nil
}

func (s *Service) encodeAccess(now time.Time, userID, tenantID string, roles []string) (string, error) {
	return s.codec.Encode(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  audienceOrNil(s.audience),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			ID:        uuid.NewString(),
		},
		TenantID:  tenantID,
		Roles:     roles,
		TokenType: TokenTypeAccess,
	})
}

func (s *Service) encodeRefresh(now time.Time, userID, tenantID, familyID, tokenID string, seq int64) (string, error) {
	return s.codec.Encode(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  audienceOrNil(s.audience),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
			ID:        tokenID,
		},
		TenantID: tenantID,
		// Refresh tokens DO NOT carry roles.
		TokenType: TokenTypeRefresh,
		FamilyID:  familyID,
		Sequence:  seq,
	})
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}
