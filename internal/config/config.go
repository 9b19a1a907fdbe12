// ABOUTME: Configuration loading and parsing for gatekeeper
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete gatekeeper configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Directory DirectoryConfig `yaml:"directory"`
	Session   SessionConfig   `yaml:"session"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the HTTP listen address
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DirectoryConfig selects and configures the identity directory backend.
// An empty DatabasePath selects the in-memory mock directory.
type DirectoryConfig struct {
	DatabasePath string `yaml:"database_path"`
	SeedDefaults bool   `yaml:"seed_defaults"`

	MockLatency    time.Duration `yaml:"-"`
	MockLatencyRaw string        `yaml:"mock_latency"`
}

// SessionConfig holds session persistence configuration
type SessionConfig struct {
	FilePath string `yaml:"file_path"`

	RememberTTL    time.Duration `yaml:"-"`
	RememberTTLRaw string        `yaml:"remember_ttl"`
}

// AuthConfig holds token issuance configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	if c.Session.FilePath == "" {
		return fmt.Errorf("session.file_path is required")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Session.RememberTTLRaw != "" {
		cfg.Session.RememberTTL, err = time.ParseDuration(cfg.Session.RememberTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing remember_ttl %q: %w", cfg.Session.RememberTTLRaw, err)
		}
	}

	if cfg.Directory.MockLatencyRaw != "" {
		cfg.Directory.MockLatency, err = time.ParseDuration(cfg.Directory.MockLatencyRaw)
		if err != nil {
			return fmt.Errorf("parsing mock_latency %q: %w", cfg.Directory.MockLatencyRaw, err)
		}
	}

	return nil
}
