package logsearch

import (
	"github.com/hazyhaar/logsearch/logsearch/internal/config"
)

// Config is the top-level logsearch configuration.
type Config = config.Config

type (
	BrowserConfig  = config.BrowserConfig
	TargetConfig   = config.TargetConfig
	SelectorConfig = config.SelectorConfig
	MarkerConfig   = config.MarkerConfig
	PagingConfig   = config.PagingConfig
	TimingConfig   = config.TimingConfig
	SearchConfig   = config.SearchConfig
	SinkConfig     = config.SinkConfig
	HTTPConfig     = config.HTTPConfig
)

// DefaultConfig returns a configuration aimed at NetSuite script execution
// logs.
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfigFile reads a YAML configuration file over the defaults.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}
