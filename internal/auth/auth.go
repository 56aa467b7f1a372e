// Package auth gates the dashboard behind an externally supplied credential.
// A successful login is materialized by a signed token carried in a cookie
// or an Authorization header.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/swellcycle/surfboard-gwp/internal/config"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "surfboard-gwp"

var (
	// ErrNotConfigured is returned when no credential has been supplied.
	ErrNotConfigured = errors.New("authentication is not configured")
	// ErrInvalidCredentials is returned on username or password mismatch.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidToken is returned for malformed, forged or expired tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims are the token claims, the subject is the username.
type Claims struct {
	jwt.RegisteredClaims
}

// Authenticator checks credentials and signs tokens.
type Authenticator struct {
	username     string
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
}

// New returns an authenticator for cfg. An authenticator built from an
// incomplete configuration rejects every login and every token.
func New(cfg config.Auth) *Authenticator {
	return &Authenticator{
		username:     cfg.Username,
		passwordHash: []byte(cfg.PasswordHash),
		secret:       []byte(cfg.JWTSecret),
		ttl:          cfg.TokenTTL,
		now:          time.Now,
	}
}

// Configured reports whether logins can succeed.
func (a *Authenticator) Configured() bool {
	return a.username != "" && len(a.passwordHash) > 0 && len(a.secret) > 0
}

// CheckPassword verifies a login attempt.
func (a *Authenticator) CheckPassword(username, password string) error {
	if !a.Configured() {
		return ErrNotConfigured
	}

	// the hash is always compared so timing does not leak valid usernames
	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("failed to compare password hash: %w", err)
	}
	if !usernameOK || err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// IssueToken signs a token for username.
func (a *Authenticator) IssueToken(username string) (token string, expiresAt time.Time, err error) {
	if !a.Configured() {
		return "", time.Time{}, ErrNotConfigured
	}

	now := a.now()
	expiresAt = now.Add(a.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Validate parses a token and returns its subject.
func (a *Authenticator) Validate(token string) (string, error) {
	if !a.Configured() {
		return "", ErrNotConfigured
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject != a.username {
		return "", fmt.Errorf("%w: unknown subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// HashPassword returns the bcrypt hash to configure for password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
