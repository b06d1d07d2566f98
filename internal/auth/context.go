// ABOUTME: Authentication context for tracking identity through request handlers
// ABOUTME: Provides WithAuth/FromContext/Require for propagating auth info via context

package auth

import (
	"context"
	"errors"
)

// Guard errors
var (
	// ErrUnauthenticated means no bearer credential was supplied.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means a credential was supplied but is invalid or expired,
	// or the identity may not act on the resource.
	ErrForbidden = errors.New("forbidden")
)

// AuthContext holds the authenticated identity extracted from a request.
// Only the authorization guard creates one.
type AuthContext struct {
	UserID string
}

// authContextKey is the key type for storing AuthContext in context.Context.
type authContextKey struct{}

// credentialErrKey stores the guard's failure when it runs in non-rejecting mode.
type credentialErrKey struct{}

// WithAuth returns a new context with the AuthContext attached.
func WithAuth(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// FromContext retrieves the AuthContext from the context, returning nil if not present.
func FromContext(ctx context.Context) *AuthContext {
	auth, _ := ctx.Value(authContextKey{}).(*AuthContext)
	return auth
}

func withCredentialError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, credentialErrKey{}, err)
}

// Require returns the identity attached to ctx. When none is attached it returns
// the failure recorded by CredentialMiddleware, or ErrUnauthenticated.
func Require(ctx context.Context) (*AuthContext, error) {
	if auth := FromContext(ctx); auth != nil {
		return auth, nil
	}
	if err, ok := ctx.Value(credentialErrKey{}).(error); ok && err != nil {
		return nil, err
	}
	return nil, ErrUnauthenticated
}
