/*
Package config loads the server configuration from a YAML file.

A missing file is not an error: the server runs on defaults so that
`go run ./cmd/server` works out of the box. Every default can be overridden
by the file, and the listen address and database path can additionally be
overridden by command-line flags in main.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// Database is the SQLite database path; ":memory:" for ephemeral runs.
	Database string `yaml:"database"`

	// JWTSecret signs session tokens. The default exists for development
	// only; production deployments must set their own.
	JWTSecret string `yaml:"jwt_secret"`

	// TokenTTL bounds session lifetime (Go duration string in YAML,
	// e.g. "168h").
	TokenTTL Duration `yaml:"token_ttl"`

	// CORSOrigins are the allowed browser origins.
	CORSOrigins []string `yaml:"cors_origins"`

	// ReminderCron schedules the daily status-reminder job
	// (standard 5-field cron spec). Empty disables the job.
	ReminderCron string `yaml:"reminder_cron"`

	// AdminName/AdminEmail/AdminPassword seed the first admin account when
	// the database is empty.
	AdminName     string `yaml:"admin_name"`
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

// Duration wraps time.Duration so YAML can carry it as a string.
type Duration time.Duration

// UnmarshalYAML parses Go duration syntax ("15m", "168h").
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the development configuration.
func Default() *Config {
	return &Config{
		Listen:        ":8080",
		Database:      "presence.db",
		JWTSecret:     "dev-secret-change-me",
		TokenTTL:      Duration(7 * 24 * time.Hour),
		CORSOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		ReminderCron:  "",
		AdminName:     "Admin",
		AdminEmail:    "admin@example.com",
		AdminPassword: "admin123",
	}
}

// Load reads the config file at path, applying defaults for anything the
// file leaves unset. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Listen == "" {
		return errors.New("listen address must not be empty")
	}
	if c.Database == "" {
		return errors.New("database path must not be empty")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt_secret must not be empty")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}
	return nil
}
