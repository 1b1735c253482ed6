package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Database selects the persistence backend.
type Database struct {
	// Driver is "sqlite" or "postgres".
	Driver string `toml:"driver"`
	// DSN is the postgres connection string, or an explicit sqlite file path.
	DSN string `toml:"dsn"`
}

// Search contains configuration for the remote taxon search service.
type Search struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	PerPage        int    `toml:"per_page"`
}

// Cache contains configuration for in-memory statistics caching.
type Cache struct {
	StatsTTLSeconds int `toml:"stats_ttl_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics contains configuration for the Prometheus textfile export.
type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Config encapsulates all configuration values for taxonid.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Database: sqlite or postgres storage
//   - Search: remote taxon search backend
//   - Cache: statistics cache lifetime
//   - Logging: log format and level
//   - Metrics: textfile export location
type Config struct {
	Paths    Paths    `toml:"paths"`
	Database Database `toml:"database"`
	Search   Search   `toml:"search"`
	Cache    Cache    `toml:"cache"`
	Logging  Logging  `toml:"logging"`
	Metrics  Metrics  `toml:"metrics"`
}

// ConfigPathEnv overrides the default configuration location when no
// explicit path is given.
const ConfigPathEnv = "TAXONID_CONFIG"

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the configuration at path, or the first existing candidate when
// path is empty, and returns the normalized config, the path it settled on and
// whether that file existed. A missing file yields defaults.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return fmt.Errorf("parse config %s (line %d, column %d): %w", path, row, col, err)
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// resolveConfigPath checks an explicit path, then $TAXONID_CONFIG, then the
// user config directory, then ./taxonid.toml. With no explicit path and no
// existing candidate it reports the first candidate as the path to create.
func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) != "" {
		return statCandidate(path)
	}

	candidates := []string{os.Getenv(ConfigPathEnv), defaultConfigPath, "taxonid.toml"}
	var first string
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}
		resolved, exists, err := statCandidate(candidate)
		if err != nil {
			return "", false, err
		}
		if exists {
			return resolved, true, nil
		}
		if first == "" {
			first = resolved
		}
	}
	return first, false, nil
}

func statCandidate(path string) (string, bool, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return expanded, false, nil
	case err != nil:
		return "", false, fmt.Errorf("stat config: %w", err)
	case info.IsDir():
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

// EnsureDirectories creates the data, lock and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.LockDir(), c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the sqlite file path. For postgres it returns "".
func (c *Config) DatabasePath() string {
	if c.Database.Driver != DriverSQLite {
		return ""
	}
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return filepath.Join(c.Paths.DataDir, "taxonid.db")
}

// LockDir is where per-observation lock files live.
func (c *Config) LockDir() string {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.DataDir, "locks")
}

// SearchTimeout returns the search request timeout.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Search.TimeoutSeconds) * time.Second
}

// StatsTTL returns how long grade statistics stay cached.
func (c *Config) StatsTTL() time.Duration {
	return time.Duration(c.Cache.StatsTTLSeconds) * time.Second
}

// RemoteSearchEnabled reports whether a search base URL is configured.
func (c *Config) RemoteSearchEnabled() bool {
	return strings.TrimSpace(c.Search.BaseURL) != ""
}

// ExpandPath resolves "~" and relative paths to an absolute, cleaned path.
// Empty stays empty.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return "", nil
	}
	if pathValue == "~" || strings.HasPrefix(pathValue, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		pathValue = filepath.Join(home, strings.TrimPrefix(pathValue[1:], "/"))
	}
	absolute, err := filepath.Abs(pathValue)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
