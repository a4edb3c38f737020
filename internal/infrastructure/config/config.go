package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service configuration.
type Config struct {
	Server    ServerConfig
	Gateway   GatewayConfig
	Session   SessionConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000" yaml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" yaml:"host"`
}

// GatewayConfig holds external collaborator addresses.
type GatewayConfig struct {
	PersistenceURL string `envconfig:"PERSISTENCE_URL" default:"http://localhost:9000" yaml:"persistence_url"`
	GenerateURL    string `envconfig:"GENERATE_URL" default:"http://localhost:9100" yaml:"generate_url"`
}

// SessionConfig holds workspace session behavior.
type SessionConfig struct {
	UserID        string        `envconfig:"USER_ID" default:"local" yaml:"user_id"`
	CacheCapacity int           `envconfig:"CACHE_CAPACITY" default:"20" yaml:"cache_capacity"`
	SaveDebounce  time.Duration `envconfig:"SAVE_DEBOUNCE" default:"2s" yaml:"save_debounce"`
	StateDir      string        `envconfig:"STATE_DIR" default:"/tmp/procheck-sessiond" yaml:"state_dir"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadFile loads configuration from environment variables, then applies
// overrides from a YAML file. File values win over environment values.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Gateway: GatewayConfig{
			PersistenceURL: "http://localhost:9000",
			GenerateURL:    "http://localhost:9100",
		},
		Session: SessionConfig{
			UserID:        "local",
			CacheCapacity: 20,
			SaveDebounce:  2 * time.Second,
			StateDir:      "/tmp/procheck-sessiond",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
