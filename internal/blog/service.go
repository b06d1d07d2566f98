// ABOUTME: Service is the single layer behind both REST and GraphQL
// ABOUTME: Applies auth, ownership and merge-patch rules before any store write

package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/2389/quill/internal/auth"
	"github.com/2389/quill/internal/store"
)

// PasswordHasher defines what the service needs for password storage
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
	CompareDummy(password string)
}

// Post is a stored post together with its rendered content.
type Post struct {
	ID          string
	Title       string
	Content     string
	ContentHTML string
	AuthorID    string
	Author      *store.Author
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PostInput holds the fields of a new post.
type PostInput struct {
	Title   string
	Content string
}

// PostPatch is a merge-patch for a post. A nil or empty field leaves the
// stored value unchanged, so a field cannot be cleared through an update.
type PostPatch struct {
	Title   *string
	Content *string
}

// CommentPage is one page of a post's comments plus the total count.
type CommentPage struct {
	Comments []*store.Comment
	Total    int64
	Page     int
	Limit    int
}

// Service implements registration, login, posts and comments.
type Service struct {
	store     store.Store
	tokens    auth.TokenIssuer
	passwords PasswordHasher
	renderer  *Renderer
	logger    *slog.Logger
}

// NewService creates a Service. A nil hasher selects bcrypt at the default cost.
func NewService(st store.Store, tokens auth.TokenIssuer, passwords PasswordHasher, logger *slog.Logger) *Service {
	if passwords == nil {
		passwords = auth.NewPasswordHasher(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     st,
		tokens:    tokens,
		passwords: passwords,
		renderer:  NewRenderer(),
		logger:    logger.With("component", "blog"),
	}
}

// Register creates a user and returns its ID.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	if len(password) > auth.MaxPasswordLength {
		return "", fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, auth.MaxPasswordLength)
	}

	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return "", ErrConflict
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("looking up user: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return "", err
	}

	user := &store.User{Username: username, PasswordHash: hash}
	if err := s.store.CreateUser(ctx, user); err != nil {
		// the lookup above races with concurrent registrations; the unique index decides
		if errors.Is(err, store.ErrDuplicateUsername) {
			return "", ErrConflict
		}
		return "", fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", username)
	return user.ID, nil
}

// Login checks the password and issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		s.passwords.CompareDummy(password)
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("looking up user: %w", err)
	}

	if err := s.passwords.Compare(user.PasswordHash, password); err != nil {
		s.logger.Debug("login rejected", "username", username)
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}
	return token, nil
}

// ListPosts returns every post, newest first.
func (s *Service) ListPosts(ctx context.Context) ([]*Post, error) {
	if _, err := auth.Require(ctx); err != nil {
		return nil, err
	}

	stored, err := s.store.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}

	posts := make([]*Post, 0, len(stored))
	for _, p := range stored {
		post, err := s.present(p)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// GetPost returns a single post.
func (s *Service) GetPost(ctx context.Context, id string) (*Post, error) {
	if _, err := auth.Require(ctx); err != nil {
		return nil, err
	}

	p, err := s.loadPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.present(p)
}

// CreatePost stores a post owned by the caller.
func (s *Service) CreatePost(ctx context.Context, in PostInput) (*Post, error) {
	caller, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}

	p := &store.Post{
		Title:    in.Title,
		Content:  in.Content,
		AuthorID: caller.UserID,
	}
	if err := s.store.CreatePost(ctx, p); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}
	s.logger.Info("post created", "post_id", p.ID, "author_id", caller.UserID)

	// reload so the author is populated
	created, err := s.store.GetPost(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("reloading post: %w", err)
	}
	return s.present(created)
}

// UpdatePost applies patch to a post owned by the caller.
func (s *Service) UpdatePost(ctx context.Context, id string, patch PostPatch) (*Post, error) {
	p, err := s.ownedPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil && *patch.Title != "" {
		p.Title = *patch.Title
	}
	if patch.Content != nil && *patch.Content != "" {
		p.Content = *patch.Content
	}

	if err := s.store.UpdatePost(ctx, p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating post: %w", err)
	}
	s.logger.Info("post updated", "post_id", p.ID)
	return s.present(p)
}

// DeletePost removes a post owned by the caller. Its comments are left in place.
func (s *Service) DeletePost(ctx context.Context, id string) error {
	p, err := s.ownedPost(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeletePost(ctx, p.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting post: %w", err)
	}
	s.logger.Info("post deleted", "post_id", p.ID)
	return nil
}

// CreateComment adds a comment by the caller to an existing post.
func (s *Service) CreateComment(ctx context.Context, postID, content string) (*store.Comment, error) {
	caller, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	c := &store.Comment{
		Content:  content,
		AuthorID: caller.UserID,
		PostID:   p.ID,
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	if user, err := s.store.GetUser(ctx, caller.UserID); err == nil {
		c.Author = &store.Author{ID: user.ID, Username: user.Username}
	}
	return c, nil
}

// ListComments returns one page of a post's comments in creation order.
// The post is not required to exist; an unknown post has no comments.
func (s *Service) ListComments(ctx context.Context, postID string, page, limit int) (*CommentPage, error) {
	if _, err := auth.Require(ctx); err != nil {
		return nil, err
	}

	page, limit = NormalizePage(page, limit)

	comments, err := s.store.ListComments(ctx, postID, window(page, limit))
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	total, err := s.store.CountComments(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("counting comments: %w", err)
	}

	return &CommentPage{
		Comments: comments,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

func (s *Service) loadPost(ctx context.Context, id string) (*store.Post, error) {
	p, err := s.store.GetPost(ctx, strings.TrimSpace(id))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading post: %w", err)
	}
	return p, nil
}

// ownedPost loads a post and checks that the caller wrote it.
func (s *Service) ownedPost(ctx context.Context, id string) (*store.Post, error) {
	caller, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.loadPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.AuthorID != caller.UserID {
		s.logger.Warn("ownership check failed", "post_id", p.ID, "user_id", caller.UserID)
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *Service) present(p *store.Post) (*Post, error) {
	html, err := s.renderer.Render(p.Content)
	if err != nil {
		return nil, err
	}
	return &Post{
		ID:          p.ID,
		Title:       p.Title,
		Content:     p.Content,
		ContentHTML: html,
		AuthorID:    p.AuthorID,
		Author:      p.Author,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}
