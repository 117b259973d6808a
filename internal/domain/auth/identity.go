// Package auth defines the authenticated-identity boundary. Token issuance
// lives outside this service; requests arrive with an opaque bearer token that
// resolves to a (user, role) pair through the session repository.
package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrSessionNotFound is returned when a token hash resolves to no session.
var ErrSessionNotFound = errors.New("session not found")

// Role is the authorization level attached to an identity.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Session binds a hashed bearer token to an identity.
type Session struct {
	TokenHash string
	UserID    string
	Role      Role
}

// Repository provides lookup of sessions by their HMAC-SHA256 token hash.
type Repository interface {
	FindByTokenHash(ctx context.Context, hash string) (*Session, error)
}
