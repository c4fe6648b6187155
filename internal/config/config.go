// Package config handles domspect configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level domspect configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Probe   ProbeConfig   `yaml:"probe"`
	Cache   CacheConfig   `yaml:"cache"`
	Control ControlConfig `yaml:"control"`
	Sinks   []SinkConfig  `yaml:"sinks"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote      string        `yaml:"remote"`
	Headless    *bool         `yaml:"headless"`
	NavTimeout  time.Duration `yaml:"nav_timeout"`
	MemoryLimit int64         `yaml:"memory_limit"`
}

// ProbeConfig controls event pacing.
type ProbeConfig struct {
	HoverWindow  time.Duration `yaml:"hover_window"`
	MoveInterval time.Duration `yaml:"move_interval"`
	// OutGrace is how long a departed popup stays open so the pointer
	// can reach it.
	OutGrace time.Duration `yaml:"out_grace"`
}

// CacheConfig controls style snapshot caching.
type CacheConfig struct {
	TTL          time.Duration `yaml:"ttl"`
	CleanupEvery time.Duration `yaml:"cleanup_every"`
}

// ControlConfig configures the HTTP/MCP control surface.
type ControlConfig struct {
	Listen string `yaml:"listen"`
	// TokenHash is a bcrypt hash of the bearer token. Empty disables auth.
	TokenHash string `yaml:"token_hash"`
	MCP       bool   `yaml:"mcp"`
}

// SinkConfig defines an output backend for pinned inspections.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | webhook | sqlite | report
	URL  string `yaml:"url"`  // for webhook
	Path string `yaml:"path"` // for sqlite and report
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns a config with every default applied.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills zero values in place.
func (c *Config) ApplyDefaults() {
	if c.Browser.NavTimeout <= 0 {
		c.Browser.NavTimeout = 30 * time.Second
	}
	if c.Browser.MemoryLimit <= 0 {
		c.Browser.MemoryLimit = 1 << 30
	}
	if c.Probe.HoverWindow <= 0 {
		c.Probe.HoverWindow = 100 * time.Millisecond
	}
	if c.Probe.MoveInterval <= 0 {
		c.Probe.MoveInterval = 16 * time.Millisecond
	}
	if c.Probe.OutGrace <= 0 {
		c.Probe.OutGrace = 100 * time.Millisecond
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 30 * time.Second
	}
	if c.Cache.CleanupEvery <= 0 {
		c.Cache.CleanupEvery = time.Minute
	}
	if c.Control.Listen == "" {
		c.Control.Listen = "127.0.0.1:8123"
	}
	if len(c.Sinks) == 0 {
		c.Sinks = []SinkConfig{{Type: "stdout"}}
	}
}

// HeadlessEnabled reports the effective headless setting (default true).
func (c *BrowserConfig) HeadlessEnabled() bool {
	if c.Headless == nil {
		return true
	}
	return *c.Headless
}
