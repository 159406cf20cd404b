package token

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Codec encodes and decodes signed claims. It is stateless and pure over the
// signing secret. Decode verifies the signature before returning any claim;
// it performs no time/issuer/audience validation, which belongs to Service.
type Codec struct {
	secret []byte
}

func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token: signing secret is required")
	}
	return &Codec{secret: secret}, nil
}

func (c *Codec) Encode(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Decode verifies the signature and returns the claims. No field of the
// returned claims is trusted for validity windows or issuer/audience yet.
func (c *Codec) Decode(tokenString string) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return Claims{}, ErrInvalidSignature
		}
		return Claims{}, ErrMalformed
	}
	return claims, nil
}
