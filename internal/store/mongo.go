// ABOUTME: MongoDB implementation of the Store interface using the official driver
// ABOUTME: Creates unique/text/reference indexes and populates authors with $lookup

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names match the ones an existing mongoose deployment would use.
const (
	usersCollection    = "users"
	postsCollection    = "blogposts"
	commentsCollection = "comments"
)

// MongoConfig configures a MongoStore
type MongoConfig struct {
	URI      string
	Database string
	// Timeout bounds every operation issued through the client.
	Timeout time.Duration
	Logger  *slog.Logger
}

// MongoStore implements the Store interface using MongoDB
type MongoStore struct {
	client   *mongo.Client
	users    *mongo.Collection
	posts    *mongo.Collection
	comments *mongo.Collection
	logger   *slog.Logger
}

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Password  string             `bson:"password"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type authorDoc struct {
	ID       primitive.ObjectID `bson:"_id"`
	Username string             `bson:"username"`
}

type postDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Title      string             `bson:"title"`
	Content    string             `bson:"content"`
	Author     primitive.ObjectID `bson:"author"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
	AuthorDocs []authorDoc        `bson:"authorDocs,omitempty"`
}

type commentDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Content    string             `bson:"content"`
	Author     primitive.ObjectID `bson:"author"`
	Post       primitive.ObjectID `bson:"post"`
	CreatedAt  time.Time          `bson:"createdAt"`
	AuthorDocs []authorDoc        `bson:"authorDocs,omitempty"`
}

// NewMongoStore connects to MongoDB, verifies the connection and ensures indexes.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store", "driver", "mongo")

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.Timeout > 0 {
		opts.SetTimeout(cfg.Timeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &MongoStore{
		client:   client,
		users:    db.Collection(usersCollection),
		posts:    db.Collection(postsCollection),
		comments: db.Collection(commentsCollection),
		logger:   logger,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("creating indexes: %w", err)
	}

	logger.Info("mongo store initialized", "database", cfg.Database)
	return s, nil
}

// ensureIndexes declares the unique username index, the post text index and
// the comment post reference index.
func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users.username: %w", err)
	}

	if _, err := s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "title", Value: "text"}, {Key: "content", Value: "text"}},
	}); err != nil {
		return fmt.Errorf("blogposts text: %w", err)
	}

	if _, err := s.comments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "post", Value: 1}},
	}); err != nil {
		return fmt.Errorf("comments.post: %w", err)
	}

	return nil
}

// Ping checks that the primary is reachable
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (s *MongoStore) Close() error {
	s.logger.Info("closing mongo store")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// parseID converts a hex ID; malformed IDs are reported as ErrNotFound.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

// lookupAuthor joins the referenced user, keeping only id and username.
func lookupAuthor() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "author"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "authorDocs"},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "authorDocs.password", Value: 0},
			{Key: "authorDocs.createdAt", Value: 0},
		}}},
	}
}

func toAuthor(docs []authorDoc) *Author {
	if len(docs) == 0 {
		return nil
	}
	return &Author{ID: docs[0].ID.Hex(), Username: docs[0].Username}
}

func (d *userDoc) toUser() *User {
	return &User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt,
	}
}

func (d *postDoc) toPost() *Post {
	return &Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		AuthorID:  d.Author.Hex(),
		Author:    toAuthor(d.AuthorDocs),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (d *commentDoc) toComment() *Comment {
	return &Comment{
		ID:        d.ID.Hex(),
		Content:   d.Content,
		AuthorID:  d.Author.Hex(),
		PostID:    d.Post.Hex(),
		Author:    toAuthor(d.AuthorDocs),
		CreatedAt: d.CreatedAt,
	}
}

// CreateUser inserts a user. The unique index turns concurrent duplicate
// registrations into ErrDuplicateUsername.
func (s *MongoStore) CreateUser(ctx context.Context, user *User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	doc := userDoc{
		Username:  user.Username,
		Password:  user.PasswordHash,
		CreatedAt: user.CreatedAt,
	}

	res, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	user.ID = res.InsertedID.(primitive.ObjectID).Hex()
	s.logger.Debug("created user", "id", user.ID)
	return nil
}

// GetUser retrieves a user by ID
func (s *MongoStore) GetUser(ctx context.Context, id string) (*User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, bson.D{{Key: "_id", Value: oid}})
}

// GetUserByUsername retrieves a user by username
func (s *MongoStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.findUser(ctx, bson.D{{Key: "username", Value: username}})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.D) (*User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return doc.toUser(), nil
}

// CreatePost inserts a post
func (s *MongoStore) CreatePost(ctx context.Context, post *Post) error {
	authorID, err := primitive.ObjectIDFromHex(post.AuthorID)
	if err != nil {
		return fmt.Errorf("invalid author id %q: %w", post.AuthorID, err)
	}

	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	if post.UpdatedAt.IsZero() {
		post.UpdatedAt = post.CreatedAt
	}

	res, err := s.posts.InsertOne(ctx, postDoc{
		Title:     post.Title,
		Content:   post.Content,
		Author:    authorID,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("inserting post: %w", err)
	}

	post.ID = res.InsertedID.(primitive.ObjectID).Hex()
	s.logger.Debug("created post", "id", post.ID, "author", post.AuthorID)
	return nil
}

// GetPost retrieves a post with its author populated
func (s *MongoStore) GetPost(ctx context.Context, id string) (*Post, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	pipeline := append(mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: oid}}}},
	}, lookupAuthor()...)

	posts, err := s.aggregatePosts(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, ErrNotFound
	}
	return posts[0], nil
}

// ListPosts returns all posts, newest first, with authors populated
func (s *MongoStore) ListPosts(ctx context.Context) ([]*Post, error) {
	pipeline := append(mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
	}, lookupAuthor()...)
	return s.aggregatePosts(ctx, pipeline)
}

func (s *MongoStore) aggregatePosts(ctx context.Context, pipeline mongo.Pipeline) ([]*Post, error) {
	cursor, err := s.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []postDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding posts: %w", err)
	}

	posts := make([]*Post, 0, len(docs))
	for i := range docs {
		posts = append(posts, docs[i].toPost())
	}
	return posts, nil
}

// UpdatePost overwrites title and content of an existing post
func (s *MongoStore) UpdatePost(ctx context.Context, post *Post) error {
	oid, err := parseID(post.ID)
	if err != nil {
		return err
	}

	post.UpdatedAt = time.Now().UTC()
	res, err := s.posts.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "title", Value: post.Title},
			{Key: "content", Value: post.Content},
			{Key: "updatedAt", Value: post.UpdatedAt},
		}}},
	)
	if err != nil {
		return fmt.Errorf("updating post: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost removes a post by ID
func (s *MongoStore) DeletePost(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := s.posts.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateComment inserts a comment
func (s *MongoStore) CreateComment(ctx context.Context, comment *Comment) error {
	postID, err := parseID(comment.PostID)
	if err != nil {
		return err
	}
	authorID, err := primitive.ObjectIDFromHex(comment.AuthorID)
	if err != nil {
		return fmt.Errorf("invalid author id %q: %w", comment.AuthorID, err)
	}

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	res, err := s.comments.InsertOne(ctx, commentDoc{
		Content:   comment.Content,
		Author:    authorID,
		Post:      postID,
		CreatedAt: comment.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}

	comment.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

// ListComments returns one page of a post's comments in creation order
func (s *MongoStore) ListComments(ctx context.Context, postID string, page Page) ([]*Comment, error) {
	oid, err := parseID(postID)
	if err != nil {
		return []*Comment{}, nil
	}

	if page.Skip < 0 {
		page.Skip = 0
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "post", Value: oid}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		{{Key: "$skip", Value: int64(page.Skip)}},
	}
	if page.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(page.Limit)}})
	}
	pipeline = append(pipeline, lookupAuthor()...)

	cursor, err := s.comments.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []commentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding comments: %w", err)
	}

	comments := make([]*Comment, 0, len(docs))
	for i := range docs {
		comments = append(comments, docs[i].toComment())
	}
	return comments, nil
}

// CountComments returns the number of comments on a post
func (s *MongoStore) CountComments(ctx context.Context, postID string) (int64, error) {
	oid, err := parseID(postID)
	if err != nil {
		return 0, nil
	}

	n, err := s.comments.CountDocuments(ctx, bson.D{{Key: "post", Value: oid}})
	if err != nil {
		return 0, fmt.Errorf("counting comments: %w", err)
	}
	return n, nil
}
