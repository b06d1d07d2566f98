// Package auth provides authentication and authorization for quill.
//
// # Tokens
//
// Users authenticate with JWTs signed with HS256 using the configured
// auth.jwt_secret. A token carries:
//
//   - sub: the user ID
//   - iat / exp: issue and expiry time (auth.token_ttl, default 1h)
//   - jti: a random token ID
//   - iss: "quill"
//
// Verification is stateless. There is no revocation: a token stays valid
// until it expires.
//
//	verifier, err := auth.NewJWTVerifier(secret, time.Hour)
//	token, err := verifier.Issue(userID)
//	userID, err := verifier.Verify(token)
//
// # Guard
//
// HTTPAuthMiddleware reads "Authorization: Bearer <token>" and rejects the
// request before any handler runs:
//
//   - no credential: 401 {"message":"Unauthorized"}
//   - invalid or expired credential: 403 {"message":"Forbidden"}
//
// On success the AuthContext is attached with WithAuth and read back with
// FromContext. CredentialMiddleware performs the same resolution without
// rejecting, for the GraphQL endpoint where register and login must stay
// reachable; resolvers call Require.
//
// # Passwords
//
// PasswordHasher wraps bcrypt. CompareDummy keeps login timing the same for
// unknown users.
package auth
