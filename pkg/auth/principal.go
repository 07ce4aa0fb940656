package auth

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

// Principal is an authenticated user.
type Principal struct {
	ID    string   `json:"id"`
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// HasRole compares role names case-insensitively.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// HasRoles reports whether p holds every role.
func (p Principal) HasRoles(roles ...string) bool {
	for _, r := range roles {
		if !p.HasRole(r) {
			return false
		}
	}
	return true
}

// UserProvider loads principals by ID.
type UserProvider interface {
	// FindByID returns ErrUserNotFound for unknown IDs.
	FindByID(ctx context.Context, id string) (Principal, error)
}

// CredentialVerifier checks a username and password.
type CredentialVerifier interface {
	// Verify returns ErrInvalidCredentials on mismatch.
	Verify(ctx context.Context, username, password string) (Principal, error)
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
