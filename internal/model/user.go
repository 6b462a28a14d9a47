// Package model defines domain entities for the application.
package model

import "time"

// User represents a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize
	CreatedAt    time.Time `json:"created_at"`
}

// AuthContext holds the authenticated identity for a request.
// It is injected into the request context by the auth middleware and
// trusted unconditionally downstream.
type AuthContext struct {
	UserID string
	Email  string
}
