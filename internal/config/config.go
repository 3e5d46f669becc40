package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Defaults shared with directories produced by earlier runs. Changing any of
// them renames or rewrites every managed file.
const (
	DefaultSourceURL   = "https://my-json-server.typicode.com/amitbikram/file-api/db"
	DefaultTimeout     = 30 * time.Second
	DefaultExtension   = ".txt"
	DefaultSeparator   = "_"
	DefaultPlaceholder = "Empty"
)

// Config represents the complete tokensync configuration
type Config struct {
	Source SourceConfig `yaml:"source"`
	Naming NamingConfig `yaml:"naming"`
	Sync   SyncConfig   `yaml:"sync"`
}

// SourceConfig configures the remote token endpoint
type SourceConfig struct {
	URL string `yaml:"url"`
	// Timeout bounds a single fetch. Zero, whether unset or written as 0s,
	// selects DefaultTimeout; there is no way to disable the client timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// NamingConfig configures how target file names and contents are built
type NamingConfig struct {
	Extension   string `yaml:"extension"`
	Separator   string `yaml:"separator"`
	Placeholder string `yaml:"placeholder"`
}

// SyncConfig configures update behavior
type SyncConfig struct {
	// Prune deletes local files that match no target. A nil value means true.
	Prune *bool `yaml:"prune"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.expandEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// expandEnv expands environment variables in all string fields
func (c *Config) expandEnv() {
	c.Source.URL = os.ExpandEnv(c.Source.URL)
	c.Naming.Extension = os.ExpandEnv(c.Naming.Extension)
	c.Naming.Separator = os.ExpandEnv(c.Naming.Separator)
	c.Naming.Placeholder = os.ExpandEnv(c.Naming.Placeholder)
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Source.URL == "" {
		c.Source.URL = DefaultSourceURL
	}
	// An explicit 0 is treated like an unset timeout.
	if c.Source.Timeout == 0 {
		c.Source.Timeout = DefaultTimeout
	}
	if c.Naming.Extension == "" {
		c.Naming.Extension = DefaultExtension
	}
	if c.Naming.Separator == "" {
		c.Naming.Separator = DefaultSeparator
	}
	if c.Naming.Placeholder == "" {
		c.Naming.Placeholder = DefaultPlaceholder
	}
	if c.Sync.Prune == nil {
		prune := true
		c.Sync.Prune = &prune
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Source.URL == "" {
		return fmt.Errorf("source.url is required")
	}
	if !strings.HasPrefix(c.Source.URL, "http://") && !strings.HasPrefix(c.Source.URL, "https://") {
		return fmt.Errorf("source.url must use http or https: %s", c.Source.URL)
	}
	if c.Source.Timeout < 0 {
		return fmt.Errorf("source.timeout must not be negative: %s", c.Source.Timeout)
	}

	if !strings.HasPrefix(c.Naming.Extension, ".") {
		return fmt.Errorf("naming.extension must start with a period: %q", c.Naming.Extension)
	}
	if strings.ContainsAny(c.Naming.Extension, `/\`) {
		return fmt.Errorf("naming.extension must not contain a path separator: %q", c.Naming.Extension)
	}

	// The separator is one of the two field delimiters used for fuzzy matching.
	if utf8.RuneCountInString(c.Naming.Separator) != 1 {
		return fmt.Errorf("naming.separator must be exactly one character: %q", c.Naming.Separator)
	}
	switch c.Naming.Separator {
	case ".", "/", `\`:
		return fmt.Errorf("naming.separator must not be %q", c.Naming.Separator)
	}

	if c.Naming.Placeholder == "" {
		return fmt.Errorf("naming.placeholder is required")
	}

	return nil
}

// PruneEnabled reports whether unmatched local files are deleted on update
func (c *Config) PruneEnabled() bool {
	return c.Sync.Prune == nil || *c.Sync.Prune
}
