// ABOUTME: Store interface and data types for quill persistence
// ABOUTME: Defines User, Post, Comment and the Store interface implemented by each backend

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
// Malformed IDs are reported the same way.
var ErrNotFound = errors.New("not found")

// ErrClosed is returned by Ping after Close
var ErrClosed = errors.New("store closed")

// ErrDuplicateUsername is returned when the unique username constraint rejects an insert
var ErrDuplicateUsername = errors.New("username already exists")

// User is a registered account
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Author is the populated projection of a User referenced by a post or comment
type Author struct {
	ID       string
	Username string
}

// Post is a blog post owned by AuthorID
type Post struct {
	ID        string
	Title     string
	Content   string
	AuthorID  string
	Author    *Author // populated on reads; nil if the user no longer exists
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment is an immutable comment on a post
type Comment struct {
	ID        string
	Content   string
	AuthorID  string
	PostID    string
	Author    *Author // populated on reads
	CreatedAt time.Time
}

// Page selects a window of results
type Page struct {
	Skip  int
	Limit int
}

// Store defines the interface for user, post and comment persistence.
// Create methods assign ID and timestamps when they are empty.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// Posts
	CreatePost(ctx context.Context, post *Post) error
	GetPost(ctx context.Context, id string) (*Post, error)
	ListPosts(ctx context.Context) ([]*Post, error)
	UpdatePost(ctx context.Context, post *Post) error
	DeletePost(ctx context.Context, id string) error

	// Comments
	CreateComment(ctx context.Context, comment *Comment) error
	ListComments(ctx context.Context, postID string, page Page) ([]*Comment, error)
	CountComments(ctx context.Context, postID string) (int64, error)

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error

	// Close releases any resources held by the store
	Close() error
}
