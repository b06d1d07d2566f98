// ABOUTME: Root resolver for Query and Mutation fields
// ABOUTME: Delegates to blog.Service and records each field in metrics

package graphql

import (
	"context"
	"log/slog"

	gql "github.com/graph-gophers/graphql-go"

	"github.com/2389/quill/internal/blog"
	"github.com/2389/quill/internal/metrics"
)

// Resolver is the root resolver for both Query and Mutation.
type Resolver struct {
	svc     *blog.Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// done records the outcome of a top-level field and converts err for the client.
func (r *Resolver) done(field string, err error) error {
	r.metrics.GraphQLOperation(field, err)
	if err != nil && codeFor(err) == "INTERNAL" {
		r.logger.Error("resolver failed", "field", field, "error", err)
	}
	return wrapError(err)
}

// Posts resolves Query.posts.
func (r *Resolver) Posts(ctx context.Context) ([]*postResolver, error) {
	posts, err := r.svc.ListPosts(ctx)
	if err != nil {
		return nil, r.done("posts", err)
	}

	out := make([]*postResolver, 0, len(posts))
	for _, p := range posts {
		out = append(out, &postResolver{post: p})
	}
	return out, r.done("posts", nil)
}

// Post resolves Query.post. A missing post is null with a NOT_FOUND error.
func (r *Resolver) Post(ctx context.Context, args struct{ ID gql.ID }) (*postResolver, error) {
	post, err := r.svc.GetPost(ctx, string(args.ID))
	if err != nil {
		return nil, r.done("post", err)
	}
	return &postResolver{post: post}, r.done("post", nil)
}

// Comments resolves Query.comments.
func (r *Resolver) Comments(ctx context.Context, args struct {
	PostID gql.ID
	Page   *int32
	Limit  *int32
}) (*commentPageResolver, error) {
	page, limit := 0, 0
	if args.Page != nil {
		page = int(*args.Page)
	}
	if args.Limit != nil {
		limit = int(*args.Limit)
	}

	result, err := r.svc.ListComments(ctx, string(args.PostID), page, limit)
	if err != nil {
		return nil, r.done("comments", err)
	}
	return &commentPageResolver{page: result}, r.done("comments", nil)
}

type credentialsArgs struct {
	Username string
	Password string
}

// Register resolves Mutation.register.
func (r *Resolver) Register(ctx context.Context, args credentialsArgs) (string, error) {
	if _, err := r.svc.Register(ctx, args.Username, args.Password); err != nil {
		return "", r.done("register", err)
	}
	return "User registered successfully", r.done("register", nil)
}

// Login resolves Mutation.login and returns the bearer token.
func (r *Resolver) Login(ctx context.Context, args credentialsArgs) (string, error) {
	token, err := r.svc.Login(ctx, args.Username, args.Password)
	if err != nil {
		return "", r.done("login", err)
	}
	return token, r.done("login", nil)
}

// CreatePost resolves Mutation.createPost.
func (r *Resolver) CreatePost(ctx context.Context, args struct {
	Title   string
	Content string
}) (*postResolver, error) {
	post, err := r.svc.CreatePost(ctx, blog.PostInput{Title: args.Title, Content: args.Content})
	if err != nil {
		return nil, r.done("createPost", err)
	}
	return &postResolver{post: post}, r.done("createPost", nil)
}

// UpdatePost resolves Mutation.updatePost.
func (r *Resolver) UpdatePost(ctx context.Context, args struct {
	ID      gql.ID
	Title   *string
	Content *string
}) (*postResolver, error) {
	post, err := r.svc.UpdatePost(ctx, string(args.ID), blog.PostPatch{Title: args.Title, Content: args.Content})
	if err != nil {
		return nil, r.done("updatePost", err)
	}
	return &postResolver{post: post}, r.done("updatePost", nil)
}

// DeletePost resolves Mutation.deletePost.
func (r *Resolver) DeletePost(ctx context.Context, args struct{ ID gql.ID }) (string, error) {
	if err := r.svc.DeletePost(ctx, string(args.ID)); err != nil {
		return "", r.done("deletePost", err)
	}
	return "Post deleted successfully", r.done("deletePost", nil)
}

// CreateComment resolves Mutation.createComment.
func (r *Resolver) CreateComment(ctx context.Context, args struct {
	PostID  gql.ID
	Content string
}) (*commentResolver, error) {
	comment, err := r.svc.CreateComment(ctx, string(args.PostID), args.Content)
	if err != nil {
		return nil, r.done("createComment", err)
	}
	return &commentResolver{comment: comment}, r.done("createComment", nil)
}
