package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverSQLite:
		return nil
	case DriverPostgres:
		if c.Database.DSN == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = defaultConfigPath
			}
			return fmt.Errorf("database.dsn is required for postgres. Set TAXONID_DATABASE_DSN env var or edit %s (create with 'taxonid config init')", defaultPath)
		}
		return nil
	default:
		return fmt.Errorf("database.driver %q must be %q or %q", c.Database.Driver, DriverSQLite, DriverPostgres)
	}
}

func (c *Config) validateSearch() error {
	if c.Search.TimeoutSeconds <= 0 {
		return errors.New("search.timeout_seconds must be positive")
	}
	if c.Search.PerPage <= 0 || c.Search.PerPage > maxSearchPerPage {
		return fmt.Errorf("search.per_page must be between 1 and %d", maxSearchPerPage)
	}
	if c.Search.BaseURL == "" {
		return nil
	}
	parsed, err := url.Parse(c.Search.BaseURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("search.base_url %q must be an absolute http(s) URL", c.Search.BaseURL)
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.StatsTTLSeconds < 0 {
		return errors.New("cache.stats_ttl_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}
