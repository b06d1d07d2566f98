package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/quill/internal/config"
)

func TestGetConfigPath(t *testing.T) {
	t.Setenv("QUILL_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	assert.Equal(t, "/xdg/quill/quill.yaml", getConfigPath(""))

	t.Setenv("QUILL_CONFIG", "/etc/quill.toml")
	assert.Equal(t, "/etc/quill.toml", getConfigPath(""))

	assert.Equal(t, "/flag.yaml", getConfigPath("/flag.yaml"))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "quill dev\n", out.String())
}

func TestUnknownCommand(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"bogus"})

	assert.Error(t, root.Execute())
}

func TestSetupLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "warn"}, &buf)

	logger.Info("hidden")
	logger.With("component", "store").WithGroup("req").Warn("slow query", "ms", 250)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "slow query")
	assert.Contains(t, out, "component=store")
	assert.Contains(t, out, "req.ms=250")
}

func TestSetupLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)

	logger.Debug("hello", "user", "alice")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "alice", line["user"])
	assert.Equal(t, slog.LevelDebug.String(), line["level"])
}

func TestRunInit_SQLite(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "conf", "quill.yaml")
	dbPath := filepath.Join(dir, "data", "quill.db")

	answers := strings.Join([]string{
		"",       // config path (default)
		"",       // http addr
		"sqlite", // driver
		dbPath,   // sqlite path
		"2h",     // token ttl
		"",       // tailscale
		"debug",  // log level
		"json",   // log format
		"y",      // metrics
	}, "\n") + "\n"

	var out bytes.Buffer
	require.NoError(t, runInit(strings.NewReader(answers), &out, configPath))
	assert.Contains(t, out.String(), "Config written to "+configPath)

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	assert.DirExists(t, filepath.Dir(dbPath))

	t.Setenv("QUILL_JWT_SECRET", "")
	t.Setenv("QUILL_DB_DRIVER", "")
	t.Setenv("QUILL_DB_PATH", "")
	t.Setenv("PORT", "")
	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, config.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, dbPath, cfg.Database.Path)
	assert.Len(t, cfg.Auth.JWTSecret, 2*config.MinSecretLength)
	assert.Equal(t, "2h0m0s", cfg.Auth.TokenTTL.String())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.GraphQL.IsEnabled())
}

func TestRunInit_DefaultsOnEOF(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "quill.yaml")

	require.NoError(t, runInit(strings.NewReader(""), &bytes.Buffer{}, configPath))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `driver: "mongo"`)
	assert.Contains(t, string(data), `uri: "mongodb://localhost:27017"`)
}

func TestRunInit_RefusesOverwrite(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "quill.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("keep"), 0600))

	var out bytes.Buffer
	require.NoError(t, runInit(strings.NewReader("\nno\n"), &out, configPath))
	assert.Contains(t, out.String(), "Aborted.")

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestGenerateSecret_Unique(t *testing.T) {
	a, err := generateSecret()
	require.NoError(t, err)
	b, err := generateSecret()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHealthURL(t *testing.T) {
	assert.Equal(t, "http://localhost:3000/health", healthURL(":3000", "/health"))
	assert.Equal(t, "http://localhost:3000/health", healthURL("0.0.0.0:3000", "/health"))
	assert.Equal(t, "http://10.0.0.5:8080/health/ready", healthURL("10.0.0.5:8080", "/health/ready"))
}

func TestRunHealth(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	}))
	defer healthy.Close()

	var out bytes.Buffer
	require.NoError(t, runHealth(context.Background(), &out, healthy.URL+"/health"))
	assert.Equal(t, "healthy\n", out.String())

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
	}))
	defer down.Close()

	err := runHealth(context.Background(), &out, down.URL+"/health/ready")
	assert.ErrorContains(t, err, "status 503")
}
