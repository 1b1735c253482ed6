package config

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	defaultConfigPath      = "~/.config/taxonid/config.toml"
	defaultDataDir         = "~/.local/share/taxonid"
	defaultLogDir          = "~/.local/share/taxonid/logs"
	defaultDatabaseDriver  = DriverSQLite
	defaultSearchTimeout   = 10
	defaultSearchPerPage   = 20
	maxSearchPerPage       = 200
	defaultStatsTTLSeconds = 60
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Database: Database{
			Driver: defaultDatabaseDriver,
		},
		Search: Search{
			TimeoutSeconds: defaultSearchTimeout,
			PerPage:        defaultSearchPerPage,
		},
		Cache: Cache{
			StatsTTLSeconds: defaultStatsTTLSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
