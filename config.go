package domspect

import (
	"github.com/hazyhaar/domspect/internal/config"
)

// Config is the top-level domspect configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// ProbeConfig controls event pacing.
type ProbeConfig = config.ProbeConfig

// CacheConfig controls style snapshot caching.
type CacheConfig = config.CacheConfig

// ControlConfig configures the HTTP/MCP control surface.
type ControlConfig = config.ControlConfig

// SinkConfig defines an output backend.
type SinkConfig = config.SinkConfig

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return config.Default()
}
