// Package config handles configuration loading for quill.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path given with --config
//  2. Path from QUILL_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/quill/quill.yaml (or ~/.config/quill/quill.yaml)
//
// Files ending in .toml are parsed as TOML; everything else as YAML. A missing
// file is allowed, in which case defaults and environment variables are used.
//
// # Environment Variables
//
// Values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${QUILL_JWT_SECRET}"
//
// The following variables override file values directly:
//
//	PORT              server.http_addr becomes ":$PORT"
//	QUILL_HTTP_ADDR   server.http_addr
//	MONGODB_URI       database.uri
//	QUILL_DB_DRIVER   database.driver
//	QUILL_DB_PATH     database.path
//	QUILL_JWT_SECRET  auth.jwt_secret
//
// # Configuration Sections
//
//	server:
//	  http_addr: ":3000"
//
//	database:
//	  driver: "mongo"          # mongo | sqlite | memory
//	  uri: "mongodb://localhost:27017"
//	  name: "blog"
//	  path: "./quill.db"       # sqlite only
//	  timeout: "10s"
//
//	auth:
//	  jwt_secret: "${QUILL_JWT_SECRET}"   # required, >= 32 bytes
//	  token_ttl: "1h"
//
//	graphql:
//	  enabled: true
//	  path: "/graphql"
//
//	logging:
//	  level: "info"            # debug | info | warn | error
//	  format: "text"           # text | json
//
//	metrics:
//	  enabled: false
//	  path: "/metrics"
//
// There is no default signing secret; Load fails if none is configured.
package config
