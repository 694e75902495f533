package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	// Driver is "postgres" (default) or "sqlite".
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	// Path is the SQLite database file.
	Path string `yaml:"path"`
}

type AuthConfig struct {
	// APIKey grants coach access through the X-API-Key header.
	APIKey string `yaml:"api_key"`
	// Coaches lists Tailscale login names that get coach access.
	Coaches []string `yaml:"coaches"`
	// Viewers are read-only tokens scoped to programs and branches.
	Viewers []ViewerToken `yaml:"viewers"`
}

// ViewerToken is a read-only access token. Empty Programs or Branches mean
// no restriction on that level.
type ViewerToken struct {
	Token    string   `yaml:"token"`
	Programs []string `yaml:"programs"`
	Branches []string `yaml:"branches"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix FREEPLAN_ and underscore-separated paths:
//
//	FREEPLAN_SERVER_HOST, FREEPLAN_SERVER_PORT,
//	FREEPLAN_DB_DRIVER, FREEPLAN_DB_PATH,
//	FREEPLAN_DB_HOST, FREEPLAN_DB_PORT, FREEPLAN_DB_NAME,
//	FREEPLAN_DB_USER, FREEPLAN_DB_PASSWORD, FREEPLAN_DB_SSLMODE,
//	FREEPLAN_AUTH_API_KEY, FREEPLAN_AUTH_COACHES (comma-separated),
//	FREEPLAN_TAILSCALE_ENABLED, FREEPLAN_TAILSCALE_HOSTNAME, FREEPLAN_TAILSCALE_STATE_DIR
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FREEPLAN_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FREEPLAN_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FREEPLAN_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("FREEPLAN_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("FREEPLAN_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FREEPLAN_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FREEPLAN_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("FREEPLAN_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FREEPLAN_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FREEPLAN_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("FREEPLAN_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("FREEPLAN_AUTH_COACHES"); v != "" {
		cfg.Auth.Coaches = nil
		for _, login := range strings.Split(v, ",") {
			if login = strings.TrimSpace(login); login != "" {
				cfg.Auth.Coaches = append(cfg.Auth.Coaches, login)
			}
		}
	}
	if v := os.Getenv("FREEPLAN_TAILSCALE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = enabled
		}
	}
	if v := os.Getenv("FREEPLAN_TAILSCALE_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("FREEPLAN_TAILSCALE_STATE_DIR"); v != "" {
		cfg.Tailscale.StateDir = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverPostgres
	}
	if cfg.Tailscale.Enabled && cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "freeplan"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if c.Auth.APIKey == "" && len(c.Auth.Coaches) == 0 {
		return fmt.Errorf("auth.api_key or auth.coaches is required")
	}
	seen := make(map[string]bool, len(c.Auth.Viewers))
	for i, v := range c.Auth.Viewers {
		if v.Token == "" {
			return fmt.Errorf("auth.viewers[%d].token is required", i)
		}
		if v.Token == c.Auth.APIKey || seen[v.Token] {
			return fmt.Errorf("auth.viewers[%d].token is not unique", i)
		}
		seen[v.Token] = true
	}
	return nil
}
