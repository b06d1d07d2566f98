// Package server assembles quill's HTTP surface and runs it.
//
// New opens the configured store (mongo, sqlite or memory), builds the
// token verifier and the blog service, then mounts everything on a single
// gorilla/mux router:
//
//	GET  /health          liveness, always 200 while serving
//	GET  /health/ready    200 when the store answers a ping, else 503
//	GET  /metrics         Prometheus exposition (metrics.enabled)
//	POST /graphql         GraphQL endpoint (graphql.enabled, default on)
//	     /register /login /posts/...   REST routes from package api
//
// Every request gets an X-Request-ID and passes through the logging and
// metrics middleware. Unknown routes answer 404 with a JSON message.
//
// Run listens on server.http_addr, or joins the tailnet via tsnet when
// tailscale.enabled is set, and blocks until its context is canceled.
// Shutdown drains in-flight requests, leaves the tailnet and closes the
// store.
package server
