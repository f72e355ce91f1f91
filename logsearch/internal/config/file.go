// Package config loads the logsearch YAML configuration. Every field has a
// default aimed at NetSuite script execution logs, so an empty file (or no
// file at all) is a working configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level logsearch configuration.
type Config struct {
	Browser   BrowserConfig  `yaml:"browser"`
	Target    TargetConfig   `yaml:"target"`
	Selectors SelectorConfig `yaml:"selectors"`
	Marker    MarkerConfig   `yaml:"marker"`
	Paging    PagingConfig   `yaml:"paging"`
	Timing    TimingConfig   `yaml:"timing"`
	Search    SearchConfig   `yaml:"search"`
	Sinks     []SinkConfig   `yaml:"sinks"`
	HTTP      HTTPConfig     `yaml:"http"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`        // DevTools URL of an existing browser
	UserDataDir      string        `yaml:"user_data_dir"` // profile holding the NetSuite session
	Stealth          string        `yaml:"stealth"`       // headless | headful
	XvfbDisplay      string        `yaml:"xvfb_display"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	NavTimeout       time.Duration `yaml:"nav_timeout"`
}

// TargetConfig names the page to search.
type TargetConfig struct {
	URL    string `yaml:"url"`
	Attach bool   `yaml:"attach"` // reuse an open tab on the same host instead of navigating
}

// SelectorConfig locates the host page's parts.
type SelectorConfig struct {
	Containers      []string `yaml:"containers"`
	RangeControl    string   `yaml:"range_control"`
	RangeAttribute  string   `yaml:"range_attribute"`
	DropdownTrigger string   `yaml:"dropdown_trigger"`
	DropdownPanel   string   `yaml:"dropdown_panel"`
	DropdownOption  string   `yaml:"dropdown_option"`
	Content         string   `yaml:"content"`
}

// MarkerConfig styles the highlight element.
type MarkerConfig struct {
	Class string `yaml:"class"`
	Style string `yaml:"style"`
}

// PagingConfig controls the traversal.
type PagingConfig struct {
	PageSize    int    `yaml:"page_size"` // 0 derives it from the range descriptor
	LabelFormat string `yaml:"label_format"`
	MaxPages    int    `yaml:"max_pages"`
	Rewind      bool   `yaml:"rewind"`
	Restore     bool   `yaml:"restore"`
}

// TimingConfig bounds every wait in the page-change protocol.
type TimingConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval"`
	OpenAttempts    int           `yaml:"open_attempts"`
	SettleDelay     time.Duration `yaml:"settle_delay"`
	ContentInterval time.Duration `yaml:"content_interval"`
	ContentAttempts int           `yaml:"content_attempts"`
	Retries         int           `yaml:"retries"` // -1 disables retrying
}

// SearchConfig tunes matching and page detection.
type SearchConfig struct {
	SnippetLimit      int      `yaml:"snippet_limit"`
	LogPageIndicators []string `yaml:"log_page_indicators"`
}

// SinkConfig defines an output backend.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | webhook
	URL  string `yaml:"url"`  // for webhook
}

// HTTPConfig is the dispatch API listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	c := &Config{
		Paging: PagingConfig{Rewind: true, Restore: true},
		Timing: TimingConfig{Retries: 1},
	}
	c.applyDefaults()
	return c
}

// LoadFile reads a YAML configuration file. Keys absent from the file keep
// their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration data.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.NavTimeout <= 0 {
		c.Browser.NavTimeout = 60 * time.Second
	}

	s := &c.Selectors
	if len(s.Containers) == 0 {
		s.Containers = []string{
			`table[id*="log"] tr td`,
			`#div__bodytab tbody tr td`,
			`[id*="custpage"] td`,
			`.uir-field-wrapper .uir-field`,
			`table tr td`,
			`.uir-field`,
		}
	}
	if s.RangeControl == "" {
		s.RangeControl = `input[name="inpt_scriptnoterange"]`
	}
	if s.RangeAttribute == "" {
		s.RangeAttribute = "title"
	}
	if s.DropdownTrigger == "" {
		s.DropdownTrigger = s.RangeControl
	}
	if s.DropdownPanel == "" {
		s.DropdownPanel = ".dropdownDiv"
	}
	if s.DropdownOption == "" {
		s.DropdownOption = `div[id^="nl"]`
	}
	if s.Content == "" {
		s.Content = `table[id*="log"] tr td, #div__bodytab tbody tr td`
	}

	if c.Marker.Class == "" {
		c.Marker.Class = "ns-search-highlight"
	}
	if c.Marker.Style == "" {
		c.Marker.Style = "background-color: #ffff99; font-weight: bold"
	}

	if c.Paging.LabelFormat == "" {
		c.Paging.LabelFormat = "%d to %d of %d"
	}
	if c.Paging.MaxPages <= 0 {
		c.Paging.MaxPages = 500
	}

	t := &c.Timing
	if t.PollInterval <= 0 {
		t.PollInterval = 200 * time.Millisecond
	}
	if t.OpenAttempts <= 0 {
		t.OpenAttempts = 10
	}
	if t.SettleDelay <= 0 {
		t.SettleDelay = 1500 * time.Millisecond
	}
	if t.ContentInterval <= 0 {
		t.ContentInterval = 500 * time.Millisecond
	}
	if t.ContentAttempts <= 0 {
		t.ContentAttempts = 20
	}

	if c.Search.SnippetLimit <= 0 {
		c.Search.SnippetLimit = 200
	}
	if len(c.Search.LogPageIndicators) == 0 {
		c.Search.LogPageIndicators = []string{
			"script execution log",
			"execution log",
			"debug log",
			"script log",
			"system notes",
		}
	}

	for i := range c.Sinks {
		if c.Sinks[i].Type == "" {
			c.Sinks[i].Type = "stdout"
		}
	}
}

func (c *Config) validate() error {
	switch c.Browser.Stealth {
	case "headless", "headful":
	default:
		return fmt.Errorf("config: browser.stealth %q: want headless or headful", c.Browser.Stealth)
	}
	if c.Paging.PageSize < 0 {
		return fmt.Errorf("config: paging.page_size must not be negative")
	}
	for i, s := range c.Sinks {
		switch s.Type {
		case "stdout":
		case "webhook":
			if s.URL == "" {
				return fmt.Errorf("config: sinks[%d]: webhook needs a url", i)
			}
		default:
			return fmt.Errorf("config: sinks[%d]: unknown type %q", i, s.Type)
		}
	}
	return nil
}
