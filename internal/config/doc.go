// Package config reads the taxonid TOML file.
//
// Load fills defaults, expands "~" in paths and falls back to
// TAXONID_DATABASE_DSN and TAXONID_SEARCH_API_KEY when the file leaves them
// empty. The database driver is canonicalized to "sqlite" or "postgres"
// before validation, so callers can switch on it directly.
package config
