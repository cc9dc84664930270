// Package config loads service configuration: built-in defaults, then an
// optional YAML file, then configs/.env, then the process environment.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	// DevJWTSecret is only accepted outside release mode
	DevJWTSecret = "default_super_secret_key"

	defaultEnvFile = "configs/.env"
)

// Config is the complete service configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	NATS     NATSConfig     `yaml:"nats"`
	Log      LogConfig      `yaml:"log"`
	// Storage selects the repository backend: postgres or memory
	Storage string `yaml:"storage"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	// Mode is the gin mode: debug, release or test
	Mode           string   `yaml:"mode"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	// URL takes precedence over the individual fields when set
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type NATSConfig struct {
	// URL enables event publication when non-empty
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a Config suitable for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Mode:           "debug",
			AllowedOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://127.0.0.1:5174"},
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			Name:     "lpo_tracker",
			SSLMode:  "disable",
		},
		Auth: AuthConfig{
			JWTSecret: DevJWTSecret,
			TokenTTL:  time.Hour,
		},
		NATS: NATSConfig{
			SubjectPrefix: "procurement",
		},
		Log:     LogConfig{Level: "info"},
		Storage: StoragePostgres,
	}
}

// Load builds the configuration. path may be empty to skip the YAML file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(defaultEnvFile); err != nil {
		slog.Debug("no env file loaded", "path", defaultEnvFile)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// applyEnv overlays environment variables onto c.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set("PORT", &c.Server.Port)
	set("GIN_MODE", &c.Server.Mode)
	set("DATABASE_URL", &c.Database.URL)
	set("DB_HOST", &c.Database.Host)
	set("DB_PORT", &c.Database.Port)
	set("DB_USER", &c.Database.User)
	set("DB_PASSWORD", &c.Database.Password)
	set("DB_NAME", &c.Database.Name)
	set("DB_SSLMODE", &c.Database.SSLMode)
	set("JWT_SECRET", &c.Auth.JWTSecret)
	set("NATS_URL", &c.NATS.URL)
	set("STORAGE", &c.Storage)
	set("LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.AllowedOrigins = origins
	}

	if v, ok := lookup("TOKEN_TTL"); ok && v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL %q: %w", v, err)
		}
		c.Auth.TokenTTL = ttl
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("server.port must be a number between 1 and 65535, got %q", c.Server.Port)
	}

	switch c.Storage {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("storage must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Server.Mode == "release" && c.Auth.JWTSecret == DevJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in release mode")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	return nil
}

// DSN returns the postgres connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

// SlogLevel maps the configured level name to a slog level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
