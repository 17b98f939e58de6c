// Package config provides configuration loading and management for
// deepresearch.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete deepresearch configuration.
type Config struct {
	Model     ModelConfig     `yaml:"model"`
	Research  ResearchConfig  `yaml:"research"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	NATS      NATSConfig      `yaml:"nats"`
}

// ModelConfig configures the completion service.
type ModelConfig struct {
	// ID is the model identifier sent with every request.
	ID string `yaml:"id"`
	// Endpoint is the completion service base URL.
	Endpoint string `yaml:"endpoint"`
	// APIKeyEnv names the environment variable holding the bearer credential.
	APIKeyEnv string `yaml:"api_key_env"`
	// Timeout is the wall-clock budget per completion call.
	Timeout time.Duration `yaml:"timeout"`
	// Referer and Title are attribution metadata headers (OpenRouter).
	Referer string `yaml:"referer"`
	Title   string `yaml:"title"`
}

// ResearchConfig configures pipeline defaults.
type ResearchConfig struct {
	// Depth is the default research depth (normal, advanced, extreme).
	Depth string `yaml:"depth"`
	// Iterations is the default perspective coverage.
	Iterations int `yaml:"iterations"`
	// Constraints is free text appended verbatim to every prompt.
	Constraints string `yaml:"constraints"`
}

// TelemetryConfig configures the run log.
type TelemetryConfig struct {
	// LogCapacity bounds the number of retained log entries.
	LogCapacity int `yaml:"log_capacity"`
}

// NATSConfig configures the optional telemetry mirror.
type NATSConfig struct {
	// URL is the NATS server URL (empty = mirroring disabled).
	URL string `yaml:"url"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			ID:        "gpt-4o-mini",
			Endpoint:  "https://api.openai.com/v1",
			APIKeyEnv: "OPENAI_API_KEY",
			Timeout:   180 * time.Second,
		},
		Research: ResearchConfig{
			Depth:      "normal",
			Iterations: 3,
		},
		Telemetry: TelemetryConfig{
			LogCapacity: 500,
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Model.ID == "" {
		return fmt.Errorf("model.id is required")
	}
	if c.Model.Endpoint == "" {
		return fmt.Errorf("model.endpoint is required")
	}
	if c.Model.Timeout <= 0 {
		return fmt.Errorf("model.timeout must be positive")
	}
	if c.Research.Iterations < 1 {
		return fmt.Errorf("research.iterations must be at least 1")
	}
	switch c.Research.Depth {
	case "normal", "advanced", "extreme":
	default:
		return fmt.Errorf("research.depth must be normal, advanced or extreme, got %q", c.Research.Depth)
	}
	if c.Telemetry.LogCapacity < 1 {
		return fmt.Errorf("telemetry.log_capacity must be at least 1")
	}
	return nil
}

// APIKey resolves the bearer credential from the configured environment
// variable.
func (c *Config) APIKey() string {
	if c.Model.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Model.APIKeyEnv)
}

// LoadFromFile loads configuration from a YAML file, expanding ${VAR}
// environment references before parsing.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}
