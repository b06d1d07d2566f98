// ABOUTME: REST handlers for users, posts and comments
// ABOUTME: Thin translation between JSON bodies and blog.Service calls

package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/2389/quill/internal/blog"
	"github.com/2389/quill/internal/store"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// CredentialsRequest is the body of POST /register and POST /login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the body returned by POST /login.
type TokenResponse struct {
	Token string `json:"token"`
}

// PostRequest is the body of POST /posts and PUT /posts/{id}.
// On update, a missing or empty field leaves the stored value unchanged.
type PostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// CommentRequest is the body of POST /posts/{id}/comments.
type CommentRequest struct {
	Content string `json:"content"`
}

// AuthorResponse is the populated author of a post or comment.
type AuthorResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// PostResponse is the JSON form of a post.
type PostResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Content     string          `json:"content"`
	ContentHTML string          `json:"contentHtml"`
	Author      *AuthorResponse `json:"author"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

// CommentResponse is the JSON form of a comment.
type CommentResponse struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	Post      string          `json:"post"`
	Author    *AuthorResponse `json:"author"`
	CreatedAt string          `json:"createdAt"`
}

// CommentsResponse is the body of GET /posts/{id}/comments.
type CommentsResponse struct {
	Comments      []CommentResponse `json:"comments"`
	TotalComments int64             `json:"totalComments"`
	Page          int               `json:"page"`
	Limit         int               `json:"limit"`
}

// Handler serves the REST routes.
type Handler struct {
	svc    *blog.Service
	logger *slog.Logger
}

// NewHandler creates a Handler backed by svc.
func NewHandler(svc *blog.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:    svc,
		logger: logger.With("component", "api"),
	}
}

// Register mounts the routes on r. guard wraps every /posts route.
func (h *Handler) Register(r *mux.Router, guard mux.MiddlewareFunc) {
	r.HandleFunc("/register", h.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/login", h.handleLogin).Methods(http.MethodPost)

	posts := r.PathPrefix("/posts").Subrouter()
	posts.Use(guard)
	posts.HandleFunc("", h.handleListPosts).Methods(http.MethodGet)
	posts.HandleFunc("", h.handleCreatePost).Methods(http.MethodPost)
	posts.HandleFunc("/{id}", h.handleGetPost).Methods(http.MethodGet)
	posts.HandleFunc("/{id}", h.handleUpdatePost).Methods(http.MethodPut)
	posts.HandleFunc("/{id}", h.handleDeletePost).Methods(http.MethodDelete)
	posts.HandleFunc("/{id}/comments", h.handleCreateComment).Methods(http.MethodPost)
	posts.HandleFunc("/{id}/comments", h.handleListComments).Methods(http.MethodGet)
}

// decodeBody decodes a JSON body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// handleRegister handles POST /register.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := h.svc.Register(r.Context(), req.Username, req.Password); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "User registered successfully")
}

// handleLogin handles POST /login.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	token, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

func (h *Handler) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListPosts(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		resp = append(resp, postResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.GetPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, postResponse(post))
}

func (h *Handler) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req PostRequest
	if !decodeBody(w, r, &req) {
		return
	}

	post, err := h.svc.CreatePost(r.Context(), blog.PostInput{
		Title:   deref(req.Title),
		Content: deref(req.Content),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Post created successfully with id %s", post.ID),
		ID:      post.ID,
	})
}

func (h *Handler) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var req PostRequest
	if !decodeBody(w, r, &req) {
		return
	}

	_, err := h.svc.UpdatePost(r.Context(), mux.Vars(r)["id"], blog.PostPatch{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Post updated successfully")
}

func (h *Handler) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePost(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Post deleted successfully")
}

func (h *Handler) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req CommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := h.svc.CreateComment(r.Context(), mux.Vars(r)["id"], req.Content)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{
		Message: "Comment added successfully",
		ID:      comment.ID,
	})
}

// handleListComments handles GET /posts/{id}/comments?page=&limit=.
// The post is not looked up; an unknown post yields an empty page.
func (h *Handler) handleListComments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := blog.ParsePage(q.Get("page"), q.Get("limit"))

	result, err := h.svc.ListComments(r.Context(), mux.Vars(r)["id"], page, limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	comments := make([]CommentResponse, 0, len(result.Comments))
	for _, c := range result.Comments {
		comments = append(comments, commentResponse(c))
	}
	writeJSON(w, http.StatusOK, CommentsResponse{
		Comments:      comments,
		TotalComments: result.Total,
		Page:          result.Page,
		Limit:         result.Limit,
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func authorResponse(a *store.Author) *AuthorResponse {
	if a == nil {
		return nil
	}
	return &AuthorResponse{ID: a.ID, Username: a.Username}
}

func postResponse(p *blog.Post) PostResponse {
	return PostResponse{
		ID:          p.ID,
		Title:       p.Title,
		Content:     p.Content,
		ContentHTML: p.ContentHTML,
		Author:      authorResponse(p.Author),
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

func commentResponse(c *store.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		Content:   c.Content,
		Post:      c.PostID,
		Author:    authorResponse(c.Author),
		CreatedAt: formatTime(c.CreatedAt),
	}
}
