// Package token implements the signed bearer credential: HS256 signing and
// verification with a shared secret.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verification failure classes. Everything else coming out of Verify is an
// unexpected verification error the caller should treat as internal.
var (
	// ErrExpired indicates a well-formed token past its expiry.
	ErrExpired = errors.New("token: expired")
	// ErrMalformed indicates a token that cannot be parsed or whose signature
	// does not verify.
	ErrMalformed = errors.New("token: malformed")
)

// Claims is the payload carried inside a signed credential. Identity lives in
// the registered subject claim; the role names are a snapshot taken at issue
// time and are only trusted for coarse role checks.
type Claims struct {
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies bearer credentials with a shared HS256 secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec constructs a Codec. The secret is an opaque configuration value.
func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl}
}

// TTL exposes the configured credential lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Sign issues a credential for the given identity and role-name snapshot.
func (c *Codec) Sign(email, name string, roles []string) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:  name,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the decoded claims.
// Expiry maps to ErrExpired, parse and signature failures to ErrMalformed;
// any other failure is returned wrapped.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenMalformed),
			errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrSignatureInvalid),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, ErrMalformed
		default:
			return nil, fmt.Errorf("token: verify: %w", err)
		}
	}
	return claims, nil
}

// Remaining reports how much lifetime the claims still have, clamped at zero.
func (cl *Claims) Remaining(now time.Time) time.Duration {
	if cl.ExpiresAt == nil {
		return 0
	}
	d := cl.ExpiresAt.Time.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
