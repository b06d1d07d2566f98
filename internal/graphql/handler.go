// ABOUTME: Builds the GraphQL schema and its HTTP handler
// ABOUTME: The relay handler runs behind the non-rejecting credential middleware

package graphql

import (
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"

	gql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"

	"github.com/2389/quill/internal/auth"
	"github.com/2389/quill/internal/blog"
	"github.com/2389/quill/internal/metrics"
)

//go:embed schema.graphql
var schemaSDL string

// maxDepth bounds query nesting. The schema has no cycles, so real queries stay shallow.
const maxDepth = 8

// NewSchema parses the schema against a resolver backed by svc.
func NewSchema(svc *blog.Service, logger *slog.Logger, m *metrics.Metrics) (*gql.Schema, error) {
	if logger == nil {
		logger = slog.Default()
	}
	resolver := &Resolver{
		svc:     svc,
		logger:  logger.With("component", "graphql"),
		metrics: m,
	}

	schema, err := gql.ParseSchema(schemaSDL, resolver, gql.MaxDepth(maxDepth))
	if err != nil {
		return nil, fmt.Errorf("parsing graphql schema: %w", err)
	}
	return schema, nil
}

// NewHandler returns the HTTP handler for the GraphQL endpoint.
func NewHandler(svc *blog.Service, verifier auth.TokenVerifier, logger *slog.Logger, m *metrics.Metrics) (http.Handler, error) {
	schema, err := NewSchema(svc, logger, m)
	if err != nil {
		return nil, err
	}
	return auth.CredentialMiddleware(verifier)(&relay.Handler{Schema: schema}), nil
}
