// Package blog implements quill's resource handlers: registration, login,
// post CRUD with ownership checks, and paginated comments.
//
// Both the REST and GraphQL surfaces call into a single Service, so the
// auth, ownership and pagination rules live in one place. Every operation
// except Register and Login resolves the caller with auth.Require before it
// touches the store, which means an unauthenticated or forged request never
// reaches a write.
//
// Errors are reported with the sentinels in errors.go; callers match them
// with errors.Is and map them to their own transport.
package blog
