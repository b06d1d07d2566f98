// ABOUTME: Error taxonomy for blog operations
// ABOUTME: Transports map these sentinels to HTTP status codes or GraphQL errors

package blog

import (
	"errors"

	"github.com/2389/quill/internal/auth"
)

var (
	// ErrConflict means the username is already registered.
	ErrConflict = errors.New("user already exists")

	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password so callers cannot tell which check failed.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrNotFound means the post does not exist or its ID is malformed.
	ErrNotFound = errors.New("post not found")

	// ErrForbidden is the guard's error; ownership failures reuse it.
	ErrForbidden = auth.ErrForbidden

	// ErrInvalidInput wraps a description of the rejected field.
	ErrInvalidInput = errors.New("invalid input")
)

// Message returns the client-facing text for err. Errors outside the
// taxonomy are reported generically so store details never reach a client.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrConflict):
		return "User already exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, ErrNotFound):
		return "Post not found"
	case errors.Is(err, ErrForbidden):
		return "Forbidden"
	case errors.Is(err, auth.ErrUnauthenticated):
		return "Unauthorized"
	case errors.Is(err, ErrInvalidInput):
		return err.Error()
	default:
		return "Internal server error"
	}
}
