// Package config loads the mendxml TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/muzzletov/mendxml"
)

// EnvVar names the environment variable that points at a config file.
const EnvVar = "MENDXML_CONFIG"

// Config holds the complete tool configuration
type Config struct {
	General GeneralConfig `toml:"general"`
	Parse   ParseConfig   `toml:"parse"`
	Render  RenderConfig  `toml:"render"`
	Batch   BatchConfig   `toml:"batch"`
	Fetch   FetchConfig   `toml:"fetch"`
}

// GeneralConfig holds logging settings
type GeneralConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// ParseConfig holds parser settings. A negative MaxDepth disables the
// nesting bound.
type ParseConfig struct {
	StrictClose bool `toml:"strict_close"`
	MaxDepth    int  `toml:"max_depth"`
}

// RenderConfig holds serializer settings
type RenderConfig struct {
	Indent string `toml:"indent"`
}

// BatchConfig holds settings for cleaning a whole directory tree
type BatchConfig struct {
	Src      string   `toml:"src"`
	Dst      string   `toml:"dst"`
	Pattern  string   `toml:"pattern"`
	Workers  int      `toml:"workers"`
	Manifest string   `toml:"manifest"`
	Check    bool     `toml:"check"`
	Force    bool     `toml:"force"`
	Timeout  Duration `toml:"timeout"`
}

// FetchConfig holds settings for remote documents
type FetchConfig struct {
	UserAgent string   `toml:"user_agent"`
	Timeout   Duration `toml:"timeout"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	return &cfg, nil
}

// LoadFromEnv loads the file named by MENDXML_CONFIG, then the default
// locations. Without any file the defaults are returned.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		defaultPaths := []string{
			"./mendxml.toml",
			"./configs/mendxml.toml",
		}
		if home, err := os.UserHomeDir(); err == nil {
			defaultPaths = append(defaultPaths, filepath.Join(home, ".config/mendxml/config.toml"))
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return Default(), nil
	}

	return Load(path)
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "console"
	}

	if c.Parse.MaxDepth == 0 {
		c.Parse.MaxDepth = mendxml.DefaultMaxDepth
	}

	if c.Render.Indent == "" {
		c.Render.Indent = "    "
	}

	if c.Batch.Src == "" {
		c.Batch.Src = "./data"
	}
	if c.Batch.Dst == "" {
		c.Batch.Dst = "./clean"
	}
	if c.Batch.Pattern == "" {
		c.Batch.Pattern = "*.xml"
	}
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = 4
	}
	if c.Batch.Manifest == "" {
		c.Batch.Manifest = filepath.Join(c.Batch.Dst, ".mendxml.db")
	}

	if c.Fetch.Timeout.Duration == 0 {
		c.Fetch.Timeout.Duration = 30 * time.Second
	}
}

// expandEnvVars expands environment variables in path values
func (c *Config) expandEnvVars() {
	c.Batch.Src = os.ExpandEnv(c.Batch.Src)
	c.Batch.Dst = os.ExpandEnv(c.Batch.Dst)
	c.Batch.Manifest = os.ExpandEnv(c.Batch.Manifest)
}
