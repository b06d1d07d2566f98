// ABOUTME: Behavior shared by every Store backend, run against each implementation
// ABOUTME: Covers unique usernames, author population, ordering, pagination and not-found paths

package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactory returns a fresh, empty store and an ID that is well formed
// for the backend but refers to nothing.
type storeFactory func(t *testing.T) (s Store, missingID string)

func runStoreContract(t *testing.T, factory storeFactory) {
	t.Run("CreateUser_AssignsIDAndTimestamp", func(t *testing.T) {
		s, _ := factory(t)
		ctx := context.Background()

		user := &User{Username: "alice", PasswordHash: "hash"}
		require.NoError(t, s.CreateUser(ctx, user))
		assert.NotEmpty(t, user.ID)
		assert.False(t, user.CreatedAt.IsZero())

		got, err := s.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, "hash", got.PasswordHash)

		byName, err := s.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byName.ID)
	})

	t.Run("CreateUser_DuplicateUsername", func(t *testing.T) {
		s, _ := factory(t)
		ctx := context.Background()

		require.NoError(t, s.CreateUser(ctx, &User{Username: "alice", PasswordHash: "a"}))
		err := s.CreateUser(ctx, &User{Username: "alice", PasswordHash: "b"})
		assert.ErrorIs(t, err, ErrDuplicateUsername)

		// the original account is untouched
		got, err := s.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "a", got.PasswordHash)
	})

	t.Run("GetUser_NotFound", func(t *testing.T) {
		s, missingID := factory(t)
		ctx := context.Background()

		_, err := s.GetUser(ctx, missingID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("CreatePost_PopulatesAuthor", func(t *testing.T) {
		s, _ := factory(t)
		ctx := context.Background()
		author := createUser(t, s, "alice")

		post := &Post{Title: "Hello", Content: "World", AuthorID: author.ID}
		require.NoError(t, s.CreatePost(ctx, post))
		assert.NotEmpty(t, post.ID)

		got, err := s.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hello", got.Title)
		assert.Equal(t, "World", got.Content)
		assert.Equal(t, author.ID, got.AuthorID)
		require.NotNil(t, got.Author)
		assert.Equal(t, author.ID, got.Author.ID)
		assert.Equal(t, "alice", got.Author.Username)
	})

	t.Run("GetPost_NotFound", func(t *testing.T) {
		s, missingID := factory(t)
		ctx := context.Background()

		_, err := s.GetPost(ctx, missingID)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.GetPost(ctx, "not-a-valid-id")
		assert.ErrorIs(t, err, ErrNotFound, "malformed IDs report not found")
	})

	t.Run("ListPosts_NewestFirst", func(t *testing.T) {
		s, _ := factory(t)
		ctx := context.Background()
		author := createUser(t, s, "alice")

		posts, err := s.ListPosts(ctx)
		require.NoError(t, err)
		assert.Empty(t, posts)

		var ids []string
		for i := 0; i < 3; i++ {
			p := &Post{Title: fmt.Sprintf("post %d", i), Content: "c", AuthorID: author.ID}
			require.NoError(t, s.CreatePost(ctx, p))
			ids = append(ids, p.ID)
		}

		posts, err = s.ListPosts(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, ids[2], posts[0].ID)
		assert.Equal(t, ids[1], posts[1].ID)
		assert.Equal(t, ids[0], posts[2].ID)
		for _, p := range posts {
			require.NotNil(t, p.Author)
			assert.Equal(t, "alice", p.Author.Username)
		}
	})

	t.Run("UpdatePost", func(t *testing.T) {
		s, _ := factory(t)
		ctx := context.Background()
		author := createUser(t, s, "alice")

		post := &Post{Title: "Old", Content: "Old body", AuthorID: author.ID}
		require.NoError(t, s.CreatePost(ctx, post))

		post.Title = "New"
		require.NoError(t, s.UpdatePost(ctx, post))

		got, err := s.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "New", got.Title)
		assert.Equal(t, "Old body", got.Content)
		assert.Equal(t, author.ID, got.AuthorID)
		assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
	})

	t.Run("UpdatePost_NotFound", func(t *testing.T) {
		s, missingID := factory(t)
		ctx := context.Background()

		err := s.UpdatePost(ctx, &Post{ID: missingID, Title: "x", Content: "y"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DeletePost", func(t *testing.T) {
		s, _ := factory(t)
		ctx := context.Background()
		author := createUser(t, s, "alice")

		post := &Post{Title: "Bye", Content: "c", AuthorID: author.ID}
		require.NoError(t, s.CreatePost(ctx, post))
		require.NoError(t, s.DeletePost(ctx, post.ID))

		_, err := s.GetPost(ctx, post.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		err = s.DeletePost(ctx, post.ID)
		assert.ErrorIs(t, err, ErrNotFound, "second delete reports not found")
	})

	t.Run("Comments_OrderAndPagination", func(t *testing.T) {
		s, _ := factory(t)
		ctx := context.Background()
		author := createUser(t, s, "alice")
		commenter := createUser(t, s, "bob")

		post := &Post{Title: "T", Content: "C", AuthorID: author.ID}
		require.NoError(t, s.CreatePost(ctx, post))

		for i := 0; i < 25; i++ {
			c := &Comment{Content: fmt.Sprintf("comment %d", i), AuthorID: commenter.ID, PostID: post.ID}
			require.NoError(t, s.CreateComment(ctx, c))
			assert.NotEmpty(t, c.ID)
		}

		total, err := s.CountComments(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(25), total)

		first, err := s.ListComments(ctx, post.ID, Page{Skip: 0, Limit: 10})
		require.NoError(t, err)
		require.Len(t, first, 10)
		assert.Equal(t, "comment 0", first[0].Content)
		assert.Equal(t, "comment 9", first[9].Content)
		require.NotNil(t, first[0].Author)
		assert.Equal(t, "bob", first[0].Author.Username)
		assert.Equal(t, post.ID, first[0].PostID)

		last, err := s.ListComments(ctx, post.ID, Page{Skip: 20, Limit: 10})
		require.NoError(t, err)
		require.Len(t, last, 5)
		assert.Equal(t, "comment 20", last[0].Content)
		assert.Equal(t, "comment 24", last[4].Content)

		beyond, err := s.ListComments(ctx, post.ID, Page{Skip: 30, Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, beyond)
	})

	t.Run("Comments_UnknownPost", func(t *testing.T) {
		s, missingID := factory(t)
		ctx := context.Background()

		comments, err := s.ListComments(ctx, missingID, Page{Limit: 10})
		require.NoError(t, err)
		assert.NotNil(t, comments)
		assert.Empty(t, comments)

		total, err := s.CountComments(ctx, missingID)
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("Ping", func(t *testing.T) {
		s, _ := factory(t)
		assert.NoError(t, s.Ping(context.Background()))
	})
}

func createUser(t *testing.T, s Store, username string) *User {
	t.Helper()
	u := &User{Username: username, PasswordHash: "hash-" + username}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}
