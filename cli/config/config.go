// Package config handles CLI configuration loading and management.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration.
type Config struct {
	DefaultApp string               `yaml:"default_app"`
	User       string               `yaml:"user,omitempty"`
	Apps       map[string]AppConfig `yaml:"apps"`
}

// AppConfig holds configuration for one Dify application.
type AppConfig struct {
	APIKeyRef string `yaml:"api_key_ref"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// DefaultConfigPath returns the default configuration file path for the current platform.
// - macOS/Linux: ~/.dify/config.yaml
// - Windows: %USERPROFILE%\.dify\config.yaml
func DefaultConfigPath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		// Fallback to current directory
		return "config.yaml"
	}

	return filepath.Join(homeDir, ".dify", "config.yaml")
}

// LoadConfig loads configuration from the specified path.
// If the file doesn't exist, returns an empty config without error.
// Returns an error only if the file exists but cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Apps: make(map[string]AppConfig),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing config file is not an error
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Ensure Apps map is initialized
	if cfg.Apps == nil {
		cfg.Apps = make(map[string]AppConfig)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path, creating the
// directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// GetApp returns the app config for the given name.
// Returns nil if the app is not configured.
func (c *Config) GetApp(name string) *AppConfig {
	if c.Apps == nil {
		return nil
	}
	if ac, ok := c.Apps[name]; ok {
		return &ac
	}
	return nil
}
