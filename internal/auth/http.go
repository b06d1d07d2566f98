// ABOUTME: HTTP middleware for JWT authentication on API endpoints
// ABOUTME: Extracts the bearer token from Authorization and adds the user to context

package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// extractBearerToken extracts a bearer token from the Authorization header.
// A missing header, a non-Bearer scheme and an empty token all count as no credential.
func extractBearerToken(authHeader string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// Authenticate resolves the request's credential to an AuthContext.
// It returns ErrUnauthenticated when no credential is present and
// ErrForbidden when the credential does not verify.
func Authenticate(r *http.Request, verifier TokenVerifier) (*AuthContext, error) {
	token, ok := extractBearerToken(r.Header.Get("Authorization"))
	if !ok {
		return nil, ErrUnauthenticated
	}

	userID, err := verifier.Verify(token)
	if err != nil {
		return nil, errors.Join(ErrForbidden, err)
	}

	return &AuthContext{UserID: userID}, nil
}

// writeGuardError writes the {message} body used across the REST surface.
func writeGuardError(w http.ResponseWriter, err error) {
	status, message := http.StatusUnauthorized, "Unauthorized"
	if errors.Is(err, ErrForbidden) {
		status, message = http.StatusForbidden, "Forbidden"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// RejectHook observes a request the guard rejected, e.g. to count failures.
type RejectHook func(r *http.Request, err error)

// RejectReason classifies a guard error as "unauthenticated" or "forbidden".
func RejectReason(err error) string {
	if errors.Is(err, ErrForbidden) {
		return "forbidden"
	}
	return "unauthenticated"
}

// HTTPAuthMiddleware creates an HTTP middleware that rejects requests without a
// valid token before the wrapped handler runs: 401 when no credential is sent,
// 403 when it is invalid or expired.
func HTTPAuthMiddleware(verifier TokenVerifier, logger *slog.Logger, hooks ...RejectHook) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, err := Authenticate(r, verifier)
			if err != nil {
				logger.Debug("request rejected by auth guard", "path", r.URL.Path, "reason", RejectReason(err), "error", err)
				for _, hook := range hooks {
					hook(r, err)
				}
				writeGuardError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), authCtx)))
		})
	}
}

// CredentialMiddleware resolves the credential like HTTPAuthMiddleware but never
// rejects. The identity or the failure is recorded in the context so handlers
// serving both public and protected operations (GraphQL) can call Require per operation.
func CredentialMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, err := Authenticate(r, verifier)
			ctx := r.Context()
			if err != nil {
				ctx = withCredentialError(ctx, err)
			} else {
				ctx = WithAuth(ctx, authCtx)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
