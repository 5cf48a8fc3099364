package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
)

// Config stores CLI configuration
type Config struct {
	// DefaultArchive is used when --archive is not given
	DefaultArchive string `json:"default_archive"`
	// DownloadDir is where products are written
	DownloadDir string `json:"download_dir"`
	// MaxParallel bounds concurrent product downloads
	MaxParallel int `json:"max_parallel"`
	// Servers overrides archive base URLs, e.g. to point at a mirror
	// or a local tapsim instance
	Servers map[string]string `json:"servers,omitempty"`
}

// GetConfigPath returns the configuration file path (~/.voquery/config.json)
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".voquery", "config.json"), nil
}

// defaults fills unset fields
func (c *Config) defaults() {
	if c.DefaultArchive == "" {
		c.DefaultArchive = "euclid"
	}
	if c.DownloadDir == "" {
		c.DownloadDir = "downloads"
	}
	if c.MaxParallel <= 0 {
		c.MaxParallel = 4
	}
}

// Load loads configuration from file, falling back to defaults
func Load() (*Config, error) {
	configFile, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		cfg.defaults()
		return cfg, nil
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := sonic.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.defaults()
	return cfg, nil
}

// Save saves configuration to file
func (c *Config) Save() error {
	configFile, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := sonic.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ServerFor returns the base URL override for an archive, if any
func (c *Config) ServerFor(archive string) string {
	if c.Servers == nil {
		return ""
	}
	return c.Servers[archive]
}
