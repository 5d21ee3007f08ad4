package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/plataforma-media/user-accounts-api/internal/core/domain"
)

const defaultTokenTTL = time.Hour

// tokenClaims is the JWT payload: the registered subject carries the identity
// id, email and role ride alongside.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// JWTIssuer signs and verifies HS256 tokens asserting (id, email, role).
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTIssuer builds an issuer with the given symmetric secret and token
// lifetime. A non-positive ttl falls back to one hour.
func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &JWTIssuer{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured token lifetime. Revocation entries use it so a
// revoked id stays denied for as long as any outstanding token could live.
func (i *JWTIssuer) TTL() time.Duration { return i.ttl }

func (i *JWTIssuer) Issue(identity *domain.Identity) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Email: identity.Email,
		Role:  identity.Role,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token. Expiry surfaces as
// domain.ErrTokenExpired; every other defect as domain.ErrTokenInvalid, so
// the transport layer can render distinct messages.
func (i *JWTIssuer) Verify(token string) (domain.Caller, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Caller{}, domain.ErrTokenExpired
		}
		return domain.Caller{}, domain.ErrTokenInvalid
	}
	if !parsed.Valid || claims.Subject == "" {
		return domain.Caller{}, domain.ErrTokenInvalid
	}

	return domain.Caller{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}
