// ABOUTME: Interactive config file generation for quill init
// ABOUTME: Prompts for settings and writes a YAML config with a fresh JWT secret

package main

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2389/quill/internal/config"
)

// initOptions are the answers collected by runInit.
type initOptions struct {
	HTTPAddr  string
	Driver    string
	MongoURI  string
	MongoName string
	DBPath    string
	JWTSecret string
	TokenTTL  string

	TailscaleEnabled  bool
	TailscaleHostname string
	TailscaleAuthKey  string
	TailscaleHTTPS    bool

	LogLevel  string
	LogFormat string
	Metrics   bool
}

func newInitCmd(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a new config file interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.InOrStdin(), cmd.OutOrStdout(), configPath())
		},
	}
}

// generateSecret returns 32 random bytes, hex encoded.
func generateSecret() (string, error) {
	b := make([]byte, config.MinSecretLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating JWT secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func runInit(in io.Reader, out io.Writer, defaultConfigPath string) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "quill configuration setup")
	fmt.Fprintln(out, "=========================")
	fmt.Fprintln(out)

	outputFile := prompt(reader, out, "Config file path", defaultConfigPath)

	if _, err := os.Stat(outputFile); err == nil {
		if !yes(prompt(reader, out, "File exists. Overwrite?", "no")) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	secret, err := generateSecret()
	if err != nil {
		return err
	}
	opts := initOptions{JWTSecret: secret}

	fmt.Fprintln(out, "\n--- Server Configuration ---")
	opts.HTTPAddr = prompt(reader, out, "HTTP address", config.DefaultHTTPAddr)

	fmt.Fprintln(out, "\n--- Database Configuration ---")
	opts.Driver = prompt(reader, out, "Database driver (mongo/sqlite/memory)", config.DriverMongo)
	switch opts.Driver {
	case config.DriverMongo:
		opts.MongoURI = prompt(reader, out, "MongoDB URI", config.DefaultMongoURI)
		opts.MongoName = prompt(reader, out, "Database name", config.DefaultDatabaseName)
	case config.DriverSQLite:
		opts.DBPath = prompt(reader, out, "SQLite database path", filepath.Join(getDataPath(), "quill.db"))
	case config.DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", opts.Driver)
	}

	fmt.Fprintln(out, "\n--- Auth Configuration ---")
	opts.TokenTTL = prompt(reader, out, "Token lifetime", config.DefaultTokenTTL.String())

	fmt.Fprintln(out, "\n--- Tailscale Configuration ---")
	opts.TailscaleEnabled = yes(prompt(reader, out, "Enable Tailscale?", "no"))
	if opts.TailscaleEnabled {
		opts.TailscaleHostname = prompt(reader, out, "Tailscale hostname", "quill")
		opts.TailscaleAuthKey = prompt(reader, out, "Tailscale auth key (leave empty to use TS_AUTHKEY)", "")
		opts.TailscaleHTTPS = yes(prompt(reader, out, "Serve HTTPS with tailnet certs?", "no"))
	}

	fmt.Fprintln(out, "\n--- Logging Configuration ---")
	opts.LogLevel = prompt(reader, out, "Log level (debug/info/warn/error)", "info")
	opts.LogFormat = prompt(reader, out, "Log format (text/json)", "text")
	opts.Metrics = yes(prompt(reader, out, "Enable Prometheus metrics?", "no"))

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	// the file holds the signing secret
	if err := os.WriteFile(outputFile, []byte(renderConfig(opts)), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	if opts.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.DBPath), 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	fmt.Fprintf(out, "\nConfig written to %s\n", outputFile)
	fmt.Fprintln(out, "\nTo start the server:")
	fmt.Fprintf(out, "  quill serve --config %s\n", outputFile)

	return nil
}

// renderConfig produces the YAML config file for opts.
func renderConfig(opts initOptions) string {
	var cfg strings.Builder
	cfg.WriteString("# quill configuration\n")
	cfg.WriteString("# Generated by quill init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: %q\n", opts.HTTPAddr))
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  driver: %q\n", opts.Driver))
	if opts.MongoURI != "" {
		cfg.WriteString(fmt.Sprintf("  uri: %q\n", opts.MongoURI))
	}
	if opts.MongoName != "" {
		cfg.WriteString(fmt.Sprintf("  name: %q\n", opts.MongoName))
	}
	if opts.DBPath != "" {
		cfg.WriteString(fmt.Sprintf("  path: %q\n", opts.DBPath))
	}
	cfg.WriteString("  timeout: \"10s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("auth:\n")
	cfg.WriteString(fmt.Sprintf("  jwt_secret: %q\n", opts.JWTSecret))
	cfg.WriteString(fmt.Sprintf("  token_ttl: %q\n", opts.TokenTTL))
	cfg.WriteString("\n")

	cfg.WriteString("tailscale:\n")
	cfg.WriteString(fmt.Sprintf("  enabled: %t\n", opts.TailscaleEnabled))
	if opts.TailscaleEnabled {
		cfg.WriteString(fmt.Sprintf("  hostname: %q\n", opts.TailscaleHostname))
		if opts.TailscaleAuthKey != "" {
			cfg.WriteString(fmt.Sprintf("  auth_key: %q\n", opts.TailscaleAuthKey))
		}
		cfg.WriteString(fmt.Sprintf("  https: %t\n", opts.TailscaleHTTPS))
	}
	cfg.WriteString("\n")

	cfg.WriteString("graphql:\n")
	cfg.WriteString("  enabled: true\n")
	cfg.WriteString(fmt.Sprintf("  path: %q\n", config.DefaultGraphQLPath))
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", opts.LogLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", opts.LogFormat))
	cfg.WriteString("\n")

	cfg.WriteString("metrics:\n")
	cfg.WriteString(fmt.Sprintf("  enabled: %t\n", opts.Metrics))
	cfg.WriteString(fmt.Sprintf("  path: %q\n", config.DefaultMetricsPath))

	return cfg.String()
}

func yes(answer string) bool {
	a := strings.ToLower(answer)
	return a == "yes" || a == "y"
}

func prompt(reader *bufio.Reader, out io.Writer, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		// On EOF or error, return default
		fmt.Fprintln(out)
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
