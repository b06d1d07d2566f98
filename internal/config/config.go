// ABOUTME: Configuration loading and parsing for quill
// ABOUTME: Supports YAML or TOML files with environment variable expansion and overrides

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// MinSecretLength is the minimum accepted length of auth.jwt_secret in bytes.
const MinSecretLength = 32

// Database drivers
const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Defaults applied when a value is not configured
const (
	DefaultHTTPAddr     = ":3000"
	DefaultMongoURI     = "mongodb://localhost:27017"
	DefaultDatabaseName = "blog"
	DefaultDBTimeout    = 10 * time.Second
	DefaultTokenTTL     = time.Hour
	DefaultGraphQLPath  = "/graphql"
	DefaultMetricsPath  = "/metrics"
)

// Config represents the complete quill configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale" toml:"tailscale"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth"`
	GraphQL   GraphQLConfig   `yaml:"graphql" toml:"graphql"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" toml:"metrics"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Hostname  string `yaml:"hostname" toml:"hostname"`
	AuthKey   string `yaml:"auth_key" toml:"auth_key"`
	StateDir  string `yaml:"state_dir" toml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral" toml:"ephemeral"`
	HTTPS     bool   `yaml:"https" toml:"https"` // serve :443 with tailnet certs instead of :80
}

// DatabaseConfig selects and configures the document store backend
type DatabaseConfig struct {
	Driver string `yaml:"driver" toml:"driver"` // mongo | sqlite | memory
	URI    string `yaml:"uri" toml:"uri"`       // mongo connection string
	Name   string `yaml:"name" toml:"name"`     // mongo database name
	Path   string `yaml:"path" toml:"path"`     // sqlite file path

	Timeout    time.Duration `yaml:"-" toml:"-"`
	TimeoutRaw string        `yaml:"timeout" toml:"timeout"`
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" toml:"jwt_secret"`

	TokenTTL    time.Duration `yaml:"-" toml:"-"`
	TokenTTLRaw string        `yaml:"token_ttl" toml:"token_ttl"`
}

// GraphQLConfig controls the GraphQL endpoint
type GraphQLConfig struct {
	Enabled *bool  `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// IsEnabled reports whether the GraphQL endpoint should be mounted. Defaults to true.
func (g GraphQLConfig) IsEnabled() bool {
	return g.Enabled == nil || *g.Enabled
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// A missing file is not an error: defaults plus environment overrides are used,
// so the server can run from environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, expandEnvVars(string(data)), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// fall through to env-only configuration
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func decode(path, content string, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.Decode(content, cfg)
		return err
	}
	return yaml.Unmarshal([]byte(content), cfg)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyEnvOverrides lets well-known environment variables win over file values.
// PORT keeps compatibility with container platforms that inject it.
func applyEnvOverrides(cfg *Config) {
	if addr := os.Getenv("QUILL_HTTP_ADDR"); addr != "" {
		cfg.Server.HTTPAddr = addr
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.HTTPAddr = ":" + port
	}
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		cfg.Database.URI = uri
	}
	if driver := os.Getenv("QUILL_DB_DRIVER"); driver != "" {
		cfg.Database.Driver = driver
	}
	if path := os.Getenv("QUILL_DB_PATH"); path != "" {
		cfg.Database.Path = path
	}
	if secret := os.Getenv("QUILL_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverMongo
	}
	if cfg.Database.Driver == DriverMongo {
		if cfg.Database.URI == "" {
			cfg.Database.URI = DefaultMongoURI
		}
		if cfg.Database.Name == "" {
			cfg.Database.Name = DefaultDatabaseName
		}
	}
	if cfg.GraphQL.Path == "" {
		cfg.GraphQL.Path = DefaultGraphQLPath
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required (or set QUILL_JWT_SECRET)")
	}
	if len(c.Auth.JWTSecret) < MinSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", MinSecretLength)
	}

	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return errors.New("server.http_addr is required (or enable tailscale)")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return errors.New("tailscale.hostname is required when tailscale is enabled")
	}

	switch c.Database.Driver {
	case DriverMongo:
		if c.Database.URI == "" {
			return errors.New("database.uri is required for the mongo driver")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path is required for the sqlite driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver %q is not one of mongo, sqlite, memory", c.Database.Driver)
	}

	if !strings.HasPrefix(c.GraphQL.Path, "/") {
		return fmt.Errorf("graphql.path %q must start with /", c.GraphQL.Path)
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	cfg.Database.Timeout = DefaultDBTimeout
	if cfg.Database.TimeoutRaw != "" {
		cfg.Database.Timeout, err = time.ParseDuration(cfg.Database.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing database.timeout %q: %w", cfg.Database.TimeoutRaw, err)
		}
	}

	cfg.Auth.TokenTTL = DefaultTokenTTL
	if cfg.Auth.TokenTTLRaw != "" {
		cfg.Auth.TokenTTL, err = time.ParseDuration(cfg.Auth.TokenTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing auth.token_ttl %q: %w", cfg.Auth.TokenTTLRaw, err)
		}
		if cfg.Auth.TokenTTL <= 0 {
			return fmt.Errorf("auth.token_ttl must be positive, got %s", cfg.Auth.TokenTTLRaw)
		}
	}

	return nil
}
