package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Auth     AuthConfig     `json:"auth"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Port the server listens on.
	Port string `json:"port"`
	// Mode is the gin mode: debug, release or test.
	Mode string `json:"mode"`
}

// DatabaseConfig selects the backing store.
type DatabaseConfig struct {
	// URL is a postgres DSN. When empty, SQLitePath is used instead.
	URL string `json:"url"`
	// SQLitePath is the sqlite file location.
	SQLitePath string `json:"sqlite_path"`
}

// AuthConfig holds secrets and the admin bootstrap account.
type AuthConfig struct {
	// JWTSecret signs admin session tokens.
	JWTSecret string `json:"jwt_secret"`
	// ExportSecret signs read-only export API keys.
	ExportSecret string `json:"export_secret"`
	// AdminUsername/AdminPassword seed the first admin account when the
	// users table is empty.
	AdminUsername string `json:"admin_username"`
	AdminPassword string `json:"admin_password"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level"`
}

// SetDefaults applies sane defaults, falling back to the plain environment
// variables earlier deployments used.
func (c *Config) SetDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = os.Getenv("PORT")
	}
	if c.Server.Port == "" {
		c.Server.Port = "8000"
	}
	if c.Database.URL == "" {
		c.Database.URL = os.Getenv("DATABASE_URL")
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = os.Getenv("DATA_PATH")
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "shiftgrid.db"
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if c.Auth.ExportSecret == "" {
		c.Auth.ExportSecret = os.Getenv("EXPORT_MASTER_SECRET")
	}
	if c.Auth.AdminUsername == "" {
		c.Auth.AdminUsername = "admin"
	}
	if c.Auth.AdminPassword == "" {
		c.Auth.AdminPassword = "admin123"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("unknown server mode %s", c.Server.Mode)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %s", c.Logging.Level)
	}
	return nil
}

// Load reads configuration from an optional yaml/json file, then applies
// SG_-prefixed environment overrides (SG_SERVER__PORT, SG_AUTH__JWT_SECRET, …).
// An empty path skips the file and loads from the environment alone.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("SG_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "sg_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
