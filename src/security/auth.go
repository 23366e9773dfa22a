// backend/src/security/auth.go
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminSubject = "admin"
	tokenIssuer  = "tradejournal"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrAuthDisabled       = errors.New("admin authentication is not configured")
)

// AuthService issues and checks the admin bearer token.
type AuthService struct {
	jwtSecret    []byte
	passwordHash []byte
	tokenExpiry  time.Duration
}

func NewAuthService(jwtSecret, adminPasswordHash string, tokenExpiry time.Duration) *AuthService {
	if tokenExpiry <= 0 {
		tokenExpiry = 12 * time.Hour
	}
	return &AuthService{
		jwtSecret:    []byte(jwtSecret),
		passwordHash: []byte(adminPasswordHash),
		tokenExpiry:  tokenExpiry,
	}
}

// Enabled reports whether tokens can be issued and are required.
func (s *AuthService) Enabled() bool {
	return len(s.jwtSecret) > 0
}

func (s *AuthService) HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Login checks the admin password and returns a signed token with its expiry.
func (s *AuthService) Login(password string) (string, time.Time, error) {
	if !s.Enabled() || len(s.passwordHash) == 0 {
		return "", time.Time{}, ErrAuthDisabled
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return s.GenerateToken()
}

// GenerateToken signs an admin token without a password check. Used by the CLI.
func (s *AuthService) GenerateToken() (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, ErrAuthDisabled
	}
	now := time.Now()
	expiresAt := now.Add(s.tokenExpiry)
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies signature, expiry and subject.
func (s *AuthService) ValidateToken(tokenString string) error {
	if !s.Enabled() {
		return ErrAuthDisabled
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithSubject(adminSubject),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}
