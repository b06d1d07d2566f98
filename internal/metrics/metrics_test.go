package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest("/posts", http.MethodGet, http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest("/posts", http.MethodGet, http.StatusOK, 10*time.Millisecond)
	m.ObserveRequest("/posts", http.MethodGet, http.StatusUnauthorized, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/posts", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/posts", "GET", "401")))
}

func TestAuthFailureAndGraphQL(t *testing.T) {
	m := New()

	m.AuthFailure("forbidden")
	m.GraphQLOperation("posts", nil)
	m.GraphQLOperation("posts", errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.authFailures.WithLabelValues("forbidden")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.graphqlOps.WithLabelValues("posts", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.graphqlOps.WithLabelValues("posts", "error")))
}

func TestNilMetricsIsNoOp(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("/posts", "GET", 200, time.Second)
	m.AuthFailure("unauthenticated")
	m.GraphQLOperation("posts", nil)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRequest("/login", http.MethodPost, http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "quill_http_requests_total")
	assert.Contains(t, string(body), "go_goroutines")
}
