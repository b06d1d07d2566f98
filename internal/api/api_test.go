// ABOUTME: End-to-end tests for the REST surface over an in-memory store
// ABOUTME: Exercises auth rejection, ownership, merge-patch updates and pagination

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/quill/internal/auth"
	"github.com/2389/quill/internal/blog"
	"github.com/2389/quill/internal/store"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testServer struct {
	handler http.Handler
	store   *store.MockStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	verifier, err := auth.NewJWTVerifier([]byte(testSecret), 0)
	require.NoError(t, err)

	st := store.NewMockStore()
	svc := blog.NewService(st, verifier, auth.NewPasswordHasher(bcrypt.MinCost), nil)

	r := mux.NewRouter()
	r.Use(Instrument(nil, nil))
	NewHandler(svc, nil).Register(r, auth.HTTPAuthMiddleware(verifier, nil))

	return &testServer{handler: RequestID(r), store: st}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// login registers username and returns a bearer token for it.
func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	creds := CredentialsRequest{Username: username, Password: "pw-" + username}

	rec := s.do(t, http.MethodPost, "/register", "", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/login", "", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp TokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (s *testServer) createPost(t *testing.T, token, title, content string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/posts", token, map[string]string{"title": title, "content": content})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp MessageResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.ID)
	assert.Equal(t, "Post created successfully with id "+resp.ID, resp.Message)
	return resp.ID
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp MessageResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Message
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/register", "", CredentialsRequest{Username: "alice", Password: "pw"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User registered successfully", decodeMessage(t, rec))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = s.do(t, http.MethodPost, "/register", "", CredentialsRequest{Username: "alice", Password: "other"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists", decodeMessage(t, rec))
}

func TestRegister_BadInput(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/register", "", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeMessage(t, rec))

	rec = s.do(t, http.MethodPost, "/register", "", CredentialsRequest{Username: "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_PasswordTooLong(t *testing.T) {
	s := newTestServer(t)
	creds := CredentialsRequest{Username: "alice", Password: strings.Repeat("x", 80)}

	rec := s.do(t, http.MethodPost, "/register", "", creds)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeMessage(t, rec), "at most 72 bytes")

	rec = s.do(t, http.MethodPost, "/login", "", creds)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid username or password", decodeMessage(t, rec))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "alice")

	wrong := s.do(t, http.MethodPost, "/login", "", CredentialsRequest{Username: "alice", Password: "nope"})
	unknown := s.do(t, http.MethodPost, "/login", "", CredentialsRequest{Username: "bob", Password: "nope"})

	assert.Equal(t, http.StatusBadRequest, wrong.Code)
	assert.Equal(t, http.StatusBadRequest, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	assert.Contains(t, wrong.Body.String(), "Invalid username or password")
}

func TestPosts_RequireAuth(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{"list without token", http.MethodGet, "/posts", "", http.StatusUnauthorized},
		{"create without token", http.MethodPost, "/posts", "", http.StatusUnauthorized},
		{"get with bad token", http.MethodGet, "/posts/abc", "garbage", http.StatusForbidden},
		{"delete with bad token", http.MethodDelete, "/posts/abc", "garbage", http.StatusForbidden},
		{"comments without token", http.MethodGet, "/posts/abc/comments", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.token, map[string]string{"title": "x", "content": "y"})
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}

	posts, err := s.store.ListPosts(t.Context())
	require.NoError(t, err)
	assert.Empty(t, posts, "rejected requests must not write")
}

func TestPost_RoundTrip(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice")

	id := s.createPost(t, token, "Hello", "**bold** words")

	rec := s.do(t, http.MethodGet, "/posts/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var post PostResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&post))
	assert.Equal(t, id, post.ID)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, "**bold** words", post.Content)
	assert.Contains(t, post.ContentHTML, "<strong>bold</strong>")
	require.NotNil(t, post.Author)
	assert.Equal(t, "alice", post.Author.Username)

	rec = s.do(t, http.MethodGet, "/posts", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var posts []PostResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&posts))
	require.Len(t, posts, 1)
	assert.Equal(t, id, posts[0].ID)
}

func TestGetPost_NotFound(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice")

	rec := s.do(t, http.MethodGet, "/posts/does-not-exist", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Post not found", decodeMessage(t, rec))
}

func TestUpdatePost(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice")
	bob := s.login(t, "bob")
	id := s.createPost(t, alice, "Title", "Content")

	// non-owner
	rec := s.do(t, http.MethodPut, "/posts/"+id, bob, map[string]string{"title": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden", decodeMessage(t, rec))

	// owner, title only
	rec = s.do(t, http.MethodPut, "/posts/"+id, alice, map[string]string{"title": "New Title"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Post updated successfully", decodeMessage(t, rec))

	// explicit empty content is a no-op
	rec = s.do(t, http.MethodPut, "/posts/"+id, alice, map[string]string{"content": ""})
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := s.store.GetPost(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "New Title", stored.Title)
	assert.Equal(t, "Content", stored.Content)

	rec = s.do(t, http.MethodPut, "/posts/missing", alice, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeletePost(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice")
	bob := s.login(t, "bob")
	id := s.createPost(t, alice, "Title", "Content")

	rec := s.do(t, http.MethodDelete, "/posts/"+id, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/posts/"+id, alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Post deleted successfully", decodeMessage(t, rec))

	rec = s.do(t, http.MethodDelete, "/posts/"+id, alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestComments(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice")
	bob := s.login(t, "bob")
	id := s.createPost(t, alice, "Title", "Content")

	for i := 0; i < 25; i++ {
		rec := s.do(t, http.MethodPost, "/posts/"+id+"/comments", bob, CommentRequest{Content: fmt.Sprintf("comment %d", i)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp MessageResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "Comment added successfully", resp.Message)
		assert.NotEmpty(t, resp.ID)
	}

	rec := s.do(t, http.MethodGet, "/posts/"+id+"/comments?page=2&limit=10", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page CommentsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Equal(t, int64(25), page.TotalComments)
	require.Len(t, page.Comments, 10)
	assert.Equal(t, "comment 10", page.Comments[0].Content)
	assert.Equal(t, "comment 19", page.Comments[9].Content)
	require.NotNil(t, page.Comments[0].Author)
	assert.Equal(t, "bob", page.Comments[0].Author.Username)
	assert.Equal(t, id, page.Comments[0].Post)

	// garbage parameters fall back to defaults
	rec = s.do(t, http.MethodGet, "/posts/"+id+"/comments?page=abc&limit=-4", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = CommentsResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.Len(t, page.Comments, 10)
}

func TestComments_HugePageIsEmpty(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice")
	id := s.createPost(t, alice, "Title", "Content")

	rec := s.do(t, http.MethodPost, "/posts/"+id+"/comments", alice, CommentRequest{Content: "only"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/posts/"+id+"/comments?page=2305843009213693953&limit=4", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page CommentsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Empty(t, page.Comments)
	assert.Equal(t, int64(1), page.TotalComments)
	assert.Equal(t, blog.MaxPage, page.Page)
	assert.Equal(t, 4, page.Limit)
}

func TestComments_UnknownPost(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice")

	rec := s.do(t, http.MethodPost, "/posts/missing/comments", token, CommentRequest{Content: "hi"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/posts/missing/comments", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page CommentsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Empty(t, page.Comments)
	assert.NotNil(t, page.Comments, "comments must encode as [] not null")
	assert.Zero(t, page.TotalComments)
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/register", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
