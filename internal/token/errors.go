package token

import "errors"

// Verification and rotation failures. All of these are recoverable by the
// caller and collapse to a generic 401 at the HTTP boundary; the split exists
// for auditing and tests, never for response bodies.
var (
	ErrInvalidSignature = errors.New("token: invalid signature")
	ErrMalformed        = errors.New("token: malformed")
	ErrExpired          = errors.New("token: expired")
	ErrNotYetValid      = errors.New("token: not yet valid")
	ErrInvalidIssuer    = errors.New("token: invalid issuer")
	ErrInvalidAudience  = errors.New("token: invalid audience")
	ErrRevoked          = errors.New("token: session family revoked")
	ErrReuseDetected    = errors.New("token: refresh token reuse detected")
)
