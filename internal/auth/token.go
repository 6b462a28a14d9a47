package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// Session token lifetimes.
const (
	// SessionTTL is the default bearer token lifetime.
	SessionTTL = 24 * time.Hour
	// ExtendedSessionTTL is the lifetime when the caller asks to stay
	// signed in ("remember me").
	ExtendedSessionTTL = 7 * 24 * time.Hour
)

// ErrInvalidToken indicates a missing, malformed, tampered, or expired token.
// All failure modes map to the same error to prevent probing.
var ErrInvalidToken = errors.New("invalid or expired token")

// SessionClaims are the JWT claims carried by a session token.
type SessionClaims struct {
	jwt.StandardClaims
	Email string `json:"email"`
}

// TokenIssuer issues and verifies HMAC-signed session tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
}

// NewTokenIssuer creates a TokenIssuer with the given signing secret.
func NewTokenIssuer(secret, issuer string) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Issue signs a session token for the user. The token lives 24 hours, or
// 7 days when remember is set.
func (ti *TokenIssuer) Issue(userID, email string, remember bool) (string, error) {
	ttl := SessionTTL
	if remember {
		ttl = ExtendedSessionTTL
	}

	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			Issuer:    ti.issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
		Email: email,
	}).SignedString(ti.secret)

	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return token, nil
}

// Verify parses and validates a session token, returning its claims.
func (ti *TokenIssuer) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
