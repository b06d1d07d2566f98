// Package api serves quill's REST surface on a gorilla/mux router.
//
// Routes:
//
//	POST   /register              create an account
//	POST   /login                 exchange credentials for a bearer token
//	GET    /posts                 list posts, newest first
//	POST   /posts                 create a post
//	GET    /posts/{id}            fetch a post
//	PUT    /posts/{id}            merge-patch a post (owner only)
//	DELETE /posts/{id}            delete a post (owner only)
//	POST   /posts/{id}/comments   comment on a post
//	GET    /posts/{id}/comments   page through comments (?page=&limit=)
//
// Every /posts route sits behind auth.HTTPAuthMiddleware. Errors are
// returned as {"message": "..."} with the status chosen by statusFor.
package api
