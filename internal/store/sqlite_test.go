// ABOUTME: Tests for SQLite store implementation
// ABOUTME: Covers file creation, schema persistence across reopen, and the shared contract

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates an in-memory SQLite store closed at test cleanup.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	// Verify the database file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestSQLiteStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) (Store, string) {
		return newTestStore(t), "does-not-exist"
	})
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "quill.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	author := createUser(t, first, "alice")
	post := &Post{Title: "Durable", Content: "c", AuthorID: author.ID}
	require.NoError(t, first.CreatePost(ctx, post))
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Durable", got.Title)
	require.NotNil(t, got.Author)
	assert.Equal(t, "alice", got.Author.Username)

	// the unique index survives the reopen
	err = second.CreateUser(ctx, &User{Username: "alice", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestSQLiteStore_TimestampsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	author := createUser(t, store, "alice")

	post := &Post{Title: "T", Content: "C", AuthorID: author.ID}
	require.NoError(t, store.CreatePost(ctx, post))

	got, err := store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, post.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", got.CreatedAt, post.CreatedAt)
	assert.True(t, post.UpdatedAt.Equal(got.UpdatedAt))
}
