// Package config provides loading and parsing of triage.yaml configuration
// files. The configuration selects the memory backend, the memory root
// directory, the constraint rule files and the logging mode.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Backend names for Config.Memory.Backend.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config represents a triage.yaml configuration file.
type Config struct {
	Memory  MemoryConfig  `yaml:"memory"`
	Redis   *RedisConfig  `yaml:"redis,omitempty"`
	Rules   RulesConfig   `yaml:"rules,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// MemoryConfig selects and parameterizes the partition backend.
type MemoryConfig struct {
	// Backend is "file" (default) or "redis".
	Backend string `yaml:"backend,omitempty"`

	// Root is the memory root directory for the file backend.
	// Default: ./context_mem
	Root string `yaml:"root,omitempty"`
}

// RedisConfig parameterizes the redis backend.
type RedisConfig struct {
	// URL is the Redis connection string. Default: redis://localhost:6379
	URL string `yaml:"url,omitempty"`

	// KeyPrefix namespaces every key. Default: "triage".
	KeyPrefix string `yaml:"key_prefix,omitempty"`
}

// RulesConfig points at the constraint rule files.
type RulesConfig struct {
	// Relationships is the path to the relationship constraint rules.
	Relationships string `yaml:"relationships,omitempty"`

	// Connections is the path to the connection constraint rules.
	Connections string `yaml:"connections,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is a zap level name: debug, info, warn, error. Default: info.
	Level string `yaml:"level,omitempty"`

	// Development switches to the human-readable console encoder.
	Development bool `yaml:"development,omitempty"`
}

// GetBackend returns the configured backend name or the default.
func (m MemoryConfig) GetBackend() string {
	if m.Backend == "" {
		return BackendFile
	}
	return m.Backend
}

// GetRoot returns the configured memory root or the default.
func (m MemoryConfig) GetRoot() string {
	if m.Root == "" {
		return "./context_mem"
	}
	return m.Root
}

// GetLevel returns the configured log level or the default.
func (l LoggingConfig) GetLevel() string {
	if l.Level == "" {
		return "info"
	}
	return l.Level
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	switch c.Memory.GetBackend() {
	case BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown memory backend %q", c.Memory.Backend)
	}
	if c.Memory.GetBackend() == BackendRedis && c.Redis == nil {
		return fmt.Errorf("memory backend is %q but no redis section is configured", BackendRedis)
	}
	return nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{}
}

// Load reads and parses a triage.yaml file from the given path. If the path
// is a directory, it looks for triage.yaml or triage.yml in that directory.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		yamlPath := filepath.Join(path, "triage.yaml")
		if _, err := os.Stat(yamlPath); err == nil {
			configPath = yamlPath
		} else {
			ymlPath := filepath.Join(path, "triage.yml")
			if _, err := os.Stat(ymlPath); err != nil {
				return nil, fmt.Errorf("no triage.yaml or triage.yml found in %s", path)
			}
			configPath = ymlPath
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadOrDefault loads the configuration from path, falling back to defaults
// when the path is empty or does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}
