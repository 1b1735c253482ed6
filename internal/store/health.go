package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"taxonid/internal/config"
)

// CheckHealth returns diagnostic information about the database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{
		Driver:          s.driver,
		Location:        s.location,
		ExpectedVersion: schemaVersion,
	}

	if s.driver == config.DriverSQLite {
		if s.location == "" {
			return health, errors.New("sqlite database path is unknown")
		}
		info, err := os.Stat(s.location)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return health, nil
			}
			return health, fmt.Errorf("stat database: %w", err)
		}
		if info.IsDir() {
			return health, fmt.Errorf("database path %q is a directory", s.location)
		}
	}

	if err := s.db.PingContext(ctx); err != nil {
		health.Error = err.Error()
		return health, nil
	}
	health.DatabaseExists = true

	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&health.SchemaVersion); err != nil {
		health.Error = fmt.Sprintf("read schema version: %v", err)
		return health, nil
	}

	counts := []struct {
		table string
		dest  *int
	}{
		{"taxa", &health.Taxa},
		{"observations", &health.Observations},
		{"identifications", &health.Identifications},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+c.table).Scan(c.dest); err != nil {
			health.Error = fmt.Sprintf("count %s: %v", c.table, err)
			return health, nil
		}
	}
	return health, nil
}
