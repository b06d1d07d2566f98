// ABOUTME: Resolver error type carrying client-facing messages and extension codes
// ABOUTME: Internal failures are logged and reduced to a generic message

package graphql

import (
	"errors"

	"github.com/2389/quill/internal/auth"
	"github.com/2389/quill/internal/blog"
)

// resolverError satisfies graphql-go's ResolverError so the code appears
// under extensions in the response.
type resolverError struct {
	err  error
	code string
}

func (e *resolverError) Error() string { return blog.Message(e.err) }

func (e *resolverError) Unwrap() error { return e.err }

func (e *resolverError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.code}
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return "UNAUTHENTICATED"
	case errors.Is(err, blog.ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, blog.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, blog.ErrConflict),
		errors.Is(err, blog.ErrInvalidCredentials),
		errors.Is(err, blog.ErrInvalidInput):
		return "BAD_USER_INPUT"
	default:
		return "INTERNAL"
	}
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	return &resolverError{err: err, code: codeFor(err)}
}
