// ABOUTME: In-memory Store implementation for tests and the "memory" driver
// ABOUTME: Mirrors the unique-username and population behavior of the real backends

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store implementation.
type MockStore struct {
	mu        sync.RWMutex
	users     map[string]*User      // keyed by user ID
	usernames map[string]string     // username -> user ID
	posts     map[string]*Post      // keyed by post ID
	comments  map[string][]*Comment // keyed by post ID, in insertion order
	postSeq   map[string]int64      // post ID -> insertion counter, for stable ordering
	seq       int64
	closed    bool
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		users:     make(map[string]*User),
		usernames: make(map[string]string),
		posts:     make(map[string]*Post),
		comments:  make(map[string][]*Comment),
		postSeq:   make(map[string]int64),
	}
}

func (m *MockStore) author(id string) *Author {
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	return &Author{ID: u.ID, Username: u.Username}
}

// CreateUser stores a new user, enforcing unique usernames.
func (m *MockStore) CreateUser(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.usernames[user.Username]; exists {
		return ErrDuplicateUsername
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	// Make a copy to avoid external modification
	u := *user
	m.users[u.ID] = &u
	m.usernames[u.Username] = u.ID
	return nil
}

// GetUser retrieves a user by ID.
func (m *MockStore) GetUser(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *u
	return &result, nil
}

// GetUserByUsername retrieves a user by username.
func (m *MockStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.usernames[username]
	if !ok {
		return nil, ErrNotFound
	}
	result := *m.users[id]
	return &result, nil
}

// CreatePost stores a new post.
func (m *MockStore) CreatePost(ctx context.Context, post *Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	if post.UpdatedAt.IsZero() {
		post.UpdatedAt = post.CreatedAt
	}

	p := *post
	p.Author = nil
	m.posts[p.ID] = &p
	m.seq++
	m.postSeq[p.ID] = m.seq
	return nil
}

func (m *MockStore) populatedPost(p *Post) *Post {
	result := *p
	result.Author = m.author(p.AuthorID)
	return &result
}

// GetPost retrieves a post by ID with its author populated.
func (m *MockStore) GetPost(ctx context.Context, id string) (*Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.populatedPost(p), nil
}

// ListPosts returns all posts, newest first.
func (m *MockStore) ListPosts(ctx context.Context) ([]*Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	posts := make([]*Post, 0, len(m.posts))
	for _, p := range m.posts {
		posts = append(posts, m.populatedPost(p))
	}
	sort.Slice(posts, func(i, j int) bool {
		return m.postSeq[posts[i].ID] > m.postSeq[posts[j].ID]
	})
	return posts, nil
}

// UpdatePost overwrites title and content of an existing post.
func (m *MockStore) UpdatePost(ctx context.Context, post *Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.posts[post.ID]
	if !ok {
		return ErrNotFound
	}
	post.UpdatedAt = time.Now().UTC()
	existing.Title = post.Title
	existing.Content = post.Content
	existing.UpdatedAt = post.UpdatedAt
	return nil
}

// DeletePost removes a post by ID.
func (m *MockStore) DeletePost(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return ErrNotFound
	}
	delete(m.posts, id)
	delete(m.postSeq, id)
	return nil
}

// CreateComment stores a new comment.
func (m *MockStore) CreateComment(ctx context.Context, comment *Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	c := *comment
	c.Author = nil
	m.comments[c.PostID] = append(m.comments[c.PostID], &c)
	return nil
}

// ListComments returns one page of a post's comments in creation order.
func (m *MockStore) ListComments(ctx context.Context, postID string, page Page) ([]*Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.comments[postID]
	result := []*Comment{}
	if page.Skip < 0 {
		page.Skip = 0
	}
	if page.Skip >= len(all) {
		return result, nil
	}
	end := len(all)
	if page.Limit > 0 && page.Skip+page.Limit < end {
		end = page.Skip + page.Limit
	}
	for _, c := range all[page.Skip:end] {
		cc := *c
		cc.Author = m.author(c.AuthorID)
		result = append(result, &cc)
	}
	return result, nil
}

// CountComments returns the number of comments on a post.
func (m *MockStore) CountComments(ctx context.Context, postID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.comments[postID])), nil
}

// Ping always succeeds until the store is closed.
func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}
	return nil
}

// Close marks the store closed.
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}
