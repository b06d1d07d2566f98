// ABOUTME: Field resolvers for the Post, Comment, User and CommentPage types
// ABOUTME: Each wraps a value already loaded by blog.Service

package graphql

import (
	"time"

	gql "github.com/graph-gophers/graphql-go"

	"github.com/2389/quill/internal/blog"
	"github.com/2389/quill/internal/store"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

type userResolver struct {
	author *store.Author
}

func newUserResolver(a *store.Author) *userResolver {
	if a == nil {
		return nil
	}
	return &userResolver{author: a}
}

func (r *userResolver) ID() gql.ID       { return gql.ID(r.author.ID) }
func (r *userResolver) Username() string { return r.author.Username }

type postResolver struct {
	post *blog.Post
}

func (r *postResolver) ID() gql.ID            { return gql.ID(r.post.ID) }
func (r *postResolver) Title() string         { return r.post.Title }
func (r *postResolver) Content() string       { return r.post.Content }
func (r *postResolver) ContentHtml() string   { return r.post.ContentHTML }
func (r *postResolver) Author() *userResolver { return newUserResolver(r.post.Author) }
func (r *postResolver) CreatedAt() string     { return formatTime(r.post.CreatedAt) }
func (r *postResolver) UpdatedAt() string     { return formatTime(r.post.UpdatedAt) }

type commentResolver struct {
	comment *store.Comment
}

func (r *commentResolver) ID() gql.ID            { return gql.ID(r.comment.ID) }
func (r *commentResolver) Content() string       { return r.comment.Content }
func (r *commentResolver) PostId() gql.ID        { return gql.ID(r.comment.PostID) }
func (r *commentResolver) Author() *userResolver { return newUserResolver(r.comment.Author) }
func (r *commentResolver) CreatedAt() string     { return formatTime(r.comment.CreatedAt) }

type commentPageResolver struct {
	page *blog.CommentPage
}

func (r *commentPageResolver) Comments() []*commentResolver {
	out := make([]*commentResolver, 0, len(r.page.Comments))
	for _, c := range r.page.Comments {
		out = append(out, &commentResolver{comment: c})
	}
	return out
}

func (r *commentPageResolver) TotalComments() int32 { return int32(r.page.Total) }
func (r *commentPageResolver) Page() int32          { return int32(r.page.Page) }
func (r *commentPageResolver) Limit() int32         { return int32(r.page.Limit) }
