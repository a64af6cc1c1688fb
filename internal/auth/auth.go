// Package auth resolves bearer tokens to identities and classifies them
// against the administrator allowlist. The identity provider itself is an
// external service; this package only consumes its verification endpoint.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/repliq-app/repliq/internal/store"
)

// Role is the closed set of capabilities an identity can hold.
type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

var (
	// ErrUnauthenticated means the token could not be resolved to an identity.
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	// ErrForbidden means the identity lacks administrator capability.
	ErrForbidden = errors.New("auth: administrator capability required")
)

// Identity is a verified caller: an opaque uid and verified email from the
// identity provider, plus the role derived from the allowlist.
type Identity struct {
	UID   string
	Email string
	Role  Role
}

// IsAdmin reports whether the identity may invoke admin operations.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Verifier exchanges a bearer token for a verified uid and email.
type Verifier interface {
	Verify(ctx context.Context, token string) (uid, email string, err error)
}

// Authorizer combines token verification with allowlist classification.
type Authorizer struct {
	verifier Verifier
	store    store.Store
}

func NewAuthorizer(verifier Verifier, st store.Store) *Authorizer {
	return &Authorizer{verifier: verifier, store: st}
}

// Resolve verifies the token and classifies the identity. A missing
// allowlist document means no administrators exist yet; everyone is a
// client until the bootstrap step seeds it.
func (a *Authorizer) Resolve(ctx context.Context, token string) (Identity, error) {
	uid, email, err := a.verifier.Verify(ctx, token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	role := RoleClient
	list, err := a.store.GetAllowlist(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// No allowlist yet.
	case err != nil:
		return Identity{}, fmt.Errorf("failed to load allowlist: %w", err)
	case list.Contains(email):
		role = RoleAdmin
	}

	return Identity{UID: uid, Email: email, Role: role}, nil
}
