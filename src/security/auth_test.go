package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestAuth(t *testing.T, password string) *AuthService {
	t.Helper()
	hash, err := NewAuthService("", "", 0).HashPassword(password)
	require.NoError(t, err)
	return NewAuthService(testSecret, hash, time.Hour)
}

func TestLoginAndValidate(t *testing.T) {
	auth := newTestAuth(t, "s3cret-pass")

	token, expiresAt, err := auth.Login("s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	assert.NoError(t, auth.ValidateToken(token))
}

func TestLoginWrongPassword(t *testing.T) {
	auth := newTestAuth(t, "s3cret-pass")

	_, _, err := auth.Login("nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginDisabledWithoutSecret(t *testing.T) {
	auth := NewAuthService("", "", time.Hour)
	assert.False(t, auth.Enabled())

	_, _, err := auth.Login("anything")
	assert.ErrorIs(t, err, ErrAuthDisabled)
	assert.ErrorIs(t, auth.ValidateToken("x"), ErrAuthDisabled)
}

func TestValidateTokenRejectsForeignTokens(t *testing.T) {
	auth := newTestAuth(t, "pw")

	other := NewAuthService("ffffffffffffffffffffffffffffffff", "", time.Hour)
	foreign, _, err := other.GenerateToken()
	require.NoError(t, err)
	assert.ErrorIs(t, auth.ValidateToken(foreign), ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   adminSubject,
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	signed, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)
	assert.ErrorIs(t, auth.ValidateToken(signed), ErrInvalidToken)

	assert.ErrorIs(t, auth.ValidateToken("not-a-jwt"), ErrInvalidToken)
}
