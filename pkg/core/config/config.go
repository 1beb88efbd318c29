package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config file path
const EnvConfigPath = "ITEMDB_CONFIG"

// ErrNoConfigFile is returned by LoadFromEnv when no config file exists
var ErrNoConfigFile = errors.New("no config file found")

// Config holds the complete application configuration
type Config struct {
	General  GeneralConfig  `toml:"general" yaml:"general"`
	Database DatabaseConfig `toml:"database" yaml:"database"`
	Log      LogConfig      `toml:"log" yaml:"log"`
	Metrics  MetricsConfig  `toml:"metrics" yaml:"metrics"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name        string `toml:"name" yaml:"name"`
	Environment string `toml:"environment" yaml:"environment"`
}

// DatabaseConfig selects and addresses the database
type DatabaseConfig struct {
	// Driver is one of sqlite3, pgx, postgres, mysql
	Driver string `toml:"driver" yaml:"driver"`

	// DSN is the connection string for pgx, postgres and mysql.
	// MySQL DSNs need parseTime=true.
	DSN string `toml:"dsn" yaml:"dsn"`

	// Path is the SQLite database file
	Path string `toml:"path" yaml:"path"`

	ConnectTimeout Duration `toml:"connect_timeout" yaml:"connect_timeout"`

	// SkipMigrate disables table creation on startup
	SkipMigrate bool `toml:"skip_migrate" yaml:"skip_migrate"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// MetricsConfig holds metrics settings
type MetricsConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is present
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML or YAML file, chosen by extension
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Apply defaults
	cfg.applyDefaults()

	// Expand environment variables in connection settings
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from the ITEMDB_CONFIG environment variable
// or the first default location that exists
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		// Try default locations
		defaultPaths := []string{
			"./configs/config.toml",
			"./config.toml",
			"./config.yaml",
			filepath.Join(os.Getenv("HOME"), ".config/itemdb/config.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return nil, fmt.Errorf("%w, set %s or create configs/config.toml", ErrNoConfigFile, EnvConfigPath)
	}

	return Load(path)
}

// LoadOrDefault loads path when given, otherwise the environment or default
// locations, and falls back to Default when no file exists
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}

	cfg, err := LoadFromEnv()
	if errors.Is(err, ErrNoConfigFile) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks the database driver
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3":
	case "pgx", "postgres", "mysql":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported database.driver: %s", c.Database.Driver)
	}
	return nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "itemdb"
	}
	if c.General.Environment == "" {
		c.General.Environment = "development"
	}

	// Database
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite3"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./itemdb.db"
	}
	if c.Database.ConnectTimeout.Duration == 0 {
		c.Database.ConnectTimeout.Duration = 5 * time.Second
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// expandEnvVars expands environment variables in configuration values
func (c *Config) expandEnvVars() {
	c.Database.DSN = os.ExpandEnv(c.Database.DSN)
	c.Database.Path = os.ExpandEnv(c.Database.Path)
}
