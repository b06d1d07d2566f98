// Package graphql serves quill's GraphQL surface using graph-gophers/graphql-go.
//
// The schema lives in schema.graphql and is embedded at build time. All
// resolvers delegate to blog.Service, so auth and ownership rules match the
// REST surface exactly. The handler runs behind auth.CredentialMiddleware,
// which records the caller without rejecting; register and login work
// without a token and every other field fails with Unauthorized or
// Forbidden when the credential is missing or bad.
//
// Errors carry the same messages as the REST surface plus an extensions.code
// (UNAUTHENTICATED, FORBIDDEN, NOT_FOUND, BAD_USER_INPUT, INTERNAL).
package graphql
