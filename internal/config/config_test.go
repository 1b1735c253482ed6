package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"taxonid/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	t.Setenv("TAXONID_SEARCH_API_KEY", "env-key")
	t.Setenv("TAXONID_DATABASE_DSN", "")
	t.Setenv(config.ConfigPathEnv, "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "taxonid")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Database.Driver != config.DriverSQLite {
		t.Fatalf("unexpected driver: %q", cfg.Database.Driver)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "taxonid.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Search.APIKey != "env-key" {
		t.Fatalf("expected search key from env, got %q", cfg.Search.APIKey)
	}
	if cfg.RemoteSearchEnabled() {
		t.Fatal("remote search should be disabled without a base url")
	}
	if cfg.StatsTTL().Seconds() != 60 {
		t.Fatalf("unexpected stats ttl: %v", cfg.StatsTTL())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.LockDir(), cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "taxonid.toml")

	type payload struct {
		Database struct {
			Driver string `toml:"driver"`
			DSN    string `toml:"dsn"`
		} `toml:"database"`
		Search struct {
			BaseURL string `toml:"base_url"`
			PerPage int    `toml:"per_page"`
		} `toml:"search"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Database.Driver = "PostgreSQL"
	custom.Database.DSN = "postgres://taxonid@localhost/taxonid"
	custom.Search.BaseURL = "https://search.example.com/api/"
	custom.Search.PerPage = 50
	custom.Logging.Format = "JSON"
	custom.Logging.Level = "Debug"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		t.Fatalf("expected postgres driver, got %q", cfg.Database.Driver)
	}
	if cfg.DatabasePath() != "" {
		t.Fatalf("postgres should have no sqlite path, got %q", cfg.DatabasePath())
	}
	if cfg.Search.BaseURL != "https://search.example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Search.BaseURL)
	}
	if cfg.Search.PerPage != 50 {
		t.Fatalf("expected per_page 50, got %d", cfg.Search.PerPage)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"postgres without dsn", func(c *config.Config) { c.Database.Driver = config.DriverPostgres }, "database.dsn"},
		{"unknown driver", func(c *config.Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"per page too large", func(c *config.Config) { c.Search.PerPage = 1000 }, "search.per_page"},
		{"timeout", func(c *config.Config) { c.Search.TimeoutSeconds = -1 }, "search.timeout_seconds"},
		{"relative base url", func(c *config.Config) { c.Search.BaseURL = "search.local" }, "search.base_url"},
		{"negative ttl", func(c *config.Config) { c.Cache.StatsTTLSeconds = -5 }, "cache.stats_ttl_seconds"},
		{"log level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestEnvDSNFillsEmptyDatabaseDSN(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "taxonid.toml")
	if err := os.WriteFile(configPath, []byte("[database]\ndriver = \"postgres\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TAXONID_DATABASE_DSN", "postgres://env@localhost/taxonid")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Database.DSN != "postgres://env@localhost/taxonid" {
		t.Fatalf("expected dsn from env, got %q", cfg.Database.DSN)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	t.Setenv("TAXONID_DATABASE_DSN", "")
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Database.Driver != config.DriverSQLite {
		t.Fatalf("unexpected sample driver %q", cfg.Database.Driver)
	}
}

func TestLoadHonoursConfigPathEnv(t *testing.T) {
	t.Setenv("TAXONID_DATABASE_DSN", "")
	t.Setenv("TAXONID_SEARCH_API_KEY", "")
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "env.toml")
	if err := os.WriteFile(path, []byte("[logging]\nlevel = \"debug\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(config.ConfigPathEnv, path)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v, want %q", resolved, exists, path)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadReportsParsePosition(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("[logging]\nlevel = \n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "parse config") || !strings.Contains(err.Error(), "line ") {
		t.Fatalf("expected parse error with position, got %v", err)
	}
}
