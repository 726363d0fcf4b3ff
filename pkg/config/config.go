// Package config provides configuration management for UserDeck
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// ServerConfig holds the REST backend listen settings
type ServerConfig struct {
	Host            string        `yaml:"host" json:"host" mapstructure:"host" validate:"required"`
	Port            int           `yaml:"port" json:"port" mapstructure:"port" validate:"required,gt=0,lte=65535"`
	CORSOrigins     []string      `yaml:"cors_origins,omitempty" json:"cors_origins,omitempty" mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty" json:"shutdown_timeout,omitempty" mapstructure:"shutdown_timeout"`
}

// Address returns the host:port the server binds to
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds the sqlite settings
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path" mapstructure:"path" validate:"required"`
}

// AuthConfig holds token issuing settings
type AuthConfig struct {
	Secret    string        `yaml:"secret" json:"secret" mapstructure:"secret" validate:"required"`
	TokenTTL  time.Duration `yaml:"token_ttl" json:"token_ttl" mapstructure:"token_ttl" validate:"required"`
	TokenType string        `yaml:"token_type,omitempty" json:"token_type,omitempty" mapstructure:"token_type"`
}

// ClientConfig holds the API client settings
type ClientConfig struct {
	BaseURL         string        `yaml:"base_url" json:"base_url" mapstructure:"base_url" validate:"required,url"`
	Timeout         time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" mapstructure:"timeout"`
	CredentialsFile string        `yaml:"credentials_file,omitempty" json:"credentials_file,omitempty" mapstructure:"credentials_file"`
}

// Config is the root UserDeck configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server" mapstructure:"server"`
	Database DatabaseConfig `yaml:"database" json:"database" mapstructure:"database"`
	Auth     AuthConfig     `yaml:"auth" json:"auth" mapstructure:"auth"`
	Client   ClientConfig   `yaml:"client" json:"client" mapstructure:"client"`
	LogLevel string         `yaml:"log_level,omitempty" json:"log_level,omitempty" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a configuration with development defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "app.db",
		},
		Auth: AuthConfig{
			Secret:    "dev-secret-change-in-production",
			TokenTTL:  30 * time.Minute,
			TokenType: "bearer",
		},
		Client: ClientConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 10 * time.Second,
		},
		LogLevel: "info",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// FromFile loads configuration from a JSON or YAML file on top of the
// defaults, selecting the format by extension.
func FromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	switch filepath.Ext(path) {
	case ".json":
		v.SetConfigType("json")
	case ".yaml", ".yml":
		v.SetConfigType("yaml")
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToYAMLFile saves the configuration to a YAML file
func (c *Config) ToYAMLFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Watch re-reads the file whenever it changes and hands every valid new
// configuration to onChange. Invalid intermediate states are skipped.
func Watch(path string, onChange func(*Config)) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		next := DefaultConfig()
		if err := v.Unmarshal(next); err != nil {
			return
		}
		if err := next.Validate(); err != nil {
			return
		}
		onChange(next)
	})
	v.WatchConfig()
	return nil
}
