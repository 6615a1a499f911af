package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	codec := NewCodec("unit-test-secret", time.Hour)

	signed, err := codec.Sign("ana@example.org", "Ana", []string{"administrator", "operator"})
	require.NoError(t, err)

	claims, err := codec.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.org", claims.Subject)
	assert.Equal(t, "Ana", claims.Name)
	assert.Equal(t, []string{"administrator", "operator"}, claims.Roles)
	assert.NotEmpty(t, claims.ID)
	assert.Positive(t, claims.Remaining(time.Now()))
}

func TestVerifyExpired(t *testing.T) {
	codec := NewCodec("unit-test-secret", -time.Minute)

	signed, err := codec.Sign("ana@example.org", "Ana", nil)
	require.NoError(t, err)

	_, err = codec.Verify(signed)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	signed, err := NewCodec("secret-a", time.Hour).Sign("ana@example.org", "Ana", nil)
	require.NoError(t, err)

	_, err = NewCodec("secret-b", time.Hour).Verify(signed)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestVerifyGarbage(t *testing.T) {
	codec := NewCodec("unit-test-secret", time.Hour)

	_, err := codec.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestVerifyRejectsUnsignedAlg(t *testing.T) {
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "ana@example.org"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewCodec("unit-test-secret", time.Hour).Verify(unsigned)
	assert.Error(t, err)
}

func TestRemainingClampedAtZero(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}}
	assert.Zero(t, claims.Remaining(time.Now()))

	var noExpiry Claims
	assert.Zero(t, noExpiry.Remaining(time.Now()))
}
