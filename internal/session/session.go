// Package session inspects upstream bearer tokens.
//
// The service never verifies signatures: the upstream is the authority on
// whether a token is valid. Claims are decoded only to tell callers who a
// token belongs to and when it expires.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/net/http/httpguts"
)

const (
	bearerPrefix = "Bearer "
)

// Errors returned when reading a caller's bearer token
var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrNotJWT            = errors.New("token is not a JWT")
	ErrInvalidToken      = errors.New("token is not a valid header value")
)

// Claims are the upstream access-token claims we care about
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenInfo describes a bearer token without vouching for it
type TokenInfo struct {
	Subject   string     `json:"subject,omitempty"`
	Email     string     `json:"email,omitempty"`
	Role      string     `json:"role,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the token carries an expiry that lies before now
func (i *TokenInfo) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}

// Describe decodes the claims of a JWT-shaped token without verifying it
func Describe(token string) (*TokenInfo, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}

	info := &TokenInfo{
		Subject: claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time.UTC()
		info.ExpiresAt = &exp
	}
	return info, nil
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	// The scheme is case-insensitive (RFC 7235)
	if len(authHeader) < len(bearerPrefix) || !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := authHeader[len(bearerPrefix):]
	if strings.TrimSpace(token) == "" {
		return "", ErrEmptyToken
	}

	return token, CheckToken(token)
}

// CheckToken rejects tokens that cannot be sent as an Authorization header
func CheckToken(token string) error {
	if !httpguts.ValidHeaderFieldValue(token) {
		return ErrInvalidToken
	}
	return nil
}
