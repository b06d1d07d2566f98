// Package store provides persistence for quill users, posts and comments.
//
// # Backends
//
// Three implementations satisfy the Store interface:
//
//   - MongoStore: the primary backend, using the official MongoDB driver.
//     Documents live in the users, blogposts and comments collections and
//     reference each other by ObjectID.
//   - SQLiteStore: an embedded single-node backend (modernc.org/sqlite) for
//     deployments without a MongoDB server.
//   - MockStore: an in-memory implementation used by tests and by the
//     "memory" driver.
//
// # Indexes
//
// MongoStore declares on startup:
//
//	users:     { username: 1 } unique
//	blogposts: { title: "text", content: "text" }
//	comments:  { post: 1 }
//
// SQLiteStore creates the equivalent tables and indexes with its schema.
//
// # Population
//
// Reads of posts and comments resolve the author reference into an Author
// holding only ID and Username. The password hash never leaves the users
// table through a post or comment read. If the referenced user is gone the
// Author field is nil.
//
// # Error Handling
//
//   - ErrNotFound: requested entity does not exist, or the ID is malformed
//   - ErrDuplicateUsername: the unique username constraint rejected an insert
//   - ErrClosed: MockStore was closed
//
// All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewMockStore() for unit tests of packages that depend on Store.
// Use NewSQLiteStore(":memory:") for integration tests with real SQLite.
// MongoStore tests run only when QUILL_TEST_MONGO_URI points at a server.
package store
