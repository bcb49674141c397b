package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigHelpers provides convenient access to global configuration
type ConfigHelpers struct {
	config *GlobalConfig
}

// NewConfigHelpers creates a new config helpers instance
func NewConfigHelpers(config *GlobalConfig) *ConfigHelpers {
	return &ConfigHelpers{config: config}
}

// Workers returns the number of concurrent workers, at least one
func (c *ConfigHelpers) Workers() int {
	if c.config.Workers < 1 {
		return 1
	}
	return c.config.Workers
}

// CacheDir returns the absolute path to the cache directory
func (c *ConfigHelpers) CacheDir() (string, error) {
	return filepath.Abs(c.config.CacheDir)
}

// LogLevel returns the configured log level
func (c *ConfigHelpers) LogLevel() string {
	return c.config.Logging.Level
}

// IsDebugMode returns true if debug logging is enabled
func (c *ConfigHelpers) IsDebugMode() bool {
	return c.config.Logging.Level == "debug"
}

// GetConfig returns the underlying global config (for advanced usage)
func (c *ConfigHelpers) GetConfig() *GlobalConfig {
	return c.config
}

// CreateCacheDir ensures the cache directory exists
func (c *ConfigHelpers) CreateCacheDir() (string, error) {
	cacheDir, err := c.CacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving cache directory: %w", err)
	}
	return cacheDir, createDirIfNotExists(cacheDir)
}

// Helper function to create directories
func createDirIfNotExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
