package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/open-edge-platform/os-package-search/internal/config/validate"
	"github.com/open-edge-platform/os-package-search/internal/target"
	"github.com/open-edge-platform/os-package-search/internal/utils/slice"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the file looked up in the configuration search path.
const ConfigFileName = "os-package-search.yml"

// Known index formats; empty means detect from the file name.
var indexFormats = []string{"", "conda", "deb", "rpm", "yaml"}

// IndexSource is one entry of the indexes list. Exactly one of Path and
// URL is set.
type IndexSource struct {
	Path      string `yaml:"path,omitempty"`
	URL       string `yaml:"url,omitempty"`
	Format    string `yaml:"format,omitempty"`
	Signature string `yaml:"signature,omitempty"`
}

// IsRemote reports whether the index has to be downloaded first.
func (s IndexSource) IsRemote() bool {
	return s.URL != ""
}

// SearchConfig holds defaults for search flags.
type SearchConfig struct {
	IgnoreCase   bool `yaml:"ignoreCase"`
	ShowRequires bool `yaml:"showRequires"`
}

// SecurityConfig controls index signature checks.
type SecurityConfig struct {
	Keyring          string `yaml:"keyring"`
	RequireSignature bool   `yaml:"requireSignature"`
}

// LoggingConfig holds the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// GlobalConfig is the tool configuration.
type GlobalConfig struct {
	Workers  int               `yaml:"workers"`
	CacheDir string            `yaml:"cacheDir"`
	Indexes  []IndexSource     `yaml:"indexes"`
	Target   target.Descriptor `yaml:"target"`
	Search   SearchConfig      `yaml:"search"`
	Security SecurityConfig    `yaml:"security"`
	Logging  LoggingConfig     `yaml:"logging"`
}

// DefaultGlobalConfig returns the configuration used when no file exists.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Workers:  4,
		CacheDir: "./cache",
		Logging:  LoggingConfig{Level: "info"},
	}
}

// searchPaths lists the directories searched for ConfigFileName; replaced
// in tests.
var searchPaths = func() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "os-package-search"))
	}
	return append(paths, "/etc/os-package-search")
}

// FindConfigFile returns the first configuration file on the search path,
// or "" when there is none.
func FindConfigFile() string {
	for _, dir := range searchPaths() {
		p := filepath.Join(dir, ConfigFileName)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// LoadGlobalConfig reads the configuration at path. An empty path searches
// the default locations and falls back to DefaultGlobalConfig. Relative
// paths inside the file are resolved against the file's directory.
func LoadGlobalConfig(path string) (*GlobalConfig, error) {
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return DefaultGlobalConfig(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := parseGlobalConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

func parseGlobalConfig(data []byte) (*GlobalConfig, error) {
	if err := validate.ValidateConfigYAML(data); err != nil {
		return nil, err
	}
	cfg := DefaultGlobalConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *GlobalConfig) resolvePaths(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.CacheDir = abs(c.CacheDir)
	c.Security.Keyring = abs(c.Security.Keyring)
	for i := range c.Indexes {
		c.Indexes[i].Path = abs(c.Indexes[i].Path)
		if !strings.Contains(c.Indexes[i].Signature, "://") {
			c.Indexes[i].Signature = abs(c.Indexes[i].Signature)
		}
	}
}

// Validate checks values the schema cannot express and is also used for
// configurations built in code.
func (c *GlobalConfig) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	for i, idx := range c.Indexes {
		if (idx.Path == "") == (idx.URL == "") {
			return fmt.Errorf("indexes[%d]: exactly one of path and url must be set", i)
		}
		if !slice.Contains(indexFormats, idx.Format) {
			return fmt.Errorf("indexes[%d]: unknown format %q", i, idx.Format)
		}
	}
	if c.Security.RequireSignature && c.Security.Keyring == "" {
		return fmt.Errorf("security.requireSignature needs security.keyring")
	}
	return nil
}
