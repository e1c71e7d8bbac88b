// CLAUDE:SUMMARY YAML configuration for an annotator run (page, viewport, locator tuning, frame cadence, storage backend, browser, HTTP).
package annotator

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/annotator/dom"
	"github.com/hazyhaar/annotator/locator"
	"github.com/hazyhaar/annotator/session"
)

// Config is the file-level configuration of an annotator run.
type Config struct {
	PageURL        string         `yaml:"page_url"`
	Viewport       ViewportConfig `yaml:"viewport"`
	Locator        LocatorConfig  `yaml:"locator"`
	FrameInterval  time.Duration  `yaml:"frame_interval"`
	ConfirmTimeout time.Duration  `yaml:"confirm_timeout"`
	Storage        session.Config `yaml:"storage"`
	// SyncInterval is how often a SQLite session is polled for writes by
	// other processes.
	SyncInterval time.Duration `yaml:"sync_interval"`
	History      HistoryConfig `yaml:"history"`
	Browser      BrowserConfig `yaml:"browser"`
	HTTP         HTTPConfig    `yaml:"http"`
}

// HistoryConfig enables the mutation journal. An empty Path disables it.
type HistoryConfig struct {
	Path      string        `yaml:"path"`
	Retention time.Duration `yaml:"retention"`
}

// ViewportConfig is the browser window size in CSS px.
type ViewportConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Size converts to dom.Size.
func (v ViewportConfig) Size() dom.Size {
	return dom.Size{Width: float64(v.Width), Height: float64(v.Height)}
}

// LocatorConfig tunes selector generation.
type LocatorConfig struct {
	InternalPrefix string `yaml:"internal_prefix"`
	MaxDepth       int    `yaml:"max_depth"`
	MaxClasses     int    `yaml:"max_classes"`
}

// Resolver converts to locator.Config.
func (l LocatorConfig) Resolver() locator.Config {
	return locator.Config{InternalPrefix: l.InternalPrefix, MaxDepth: l.MaxDepth, MaxClasses: l.MaxClasses}
}

// BrowserConfig selects the live page driver.
type BrowserConfig struct {
	Driver   string        `yaml:"driver"` // rod | playwright | memdom
	Remote   string        `yaml:"remote"` // CDP websocket of an existing Chrome (rod)
	Engine   string        `yaml:"engine"` // chromium | firefox | webkit (playwright)
	Headless *bool         `yaml:"headless"`
	Stealth  bool          `yaml:"stealth"`
	Timeout  time.Duration `yaml:"timeout"`
}

// IsHeadless defaults to true.
func (b BrowserConfig) IsHeadless() bool { return b.Headless == nil || *b.Headless }

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

func (c *Config) applyDefaults() {
	if c.Viewport.Width <= 0 {
		c.Viewport.Width = 1280
	}
	if c.Viewport.Height <= 0 {
		c.Viewport.Height = 800
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = time.Second / 60
	}
	if c.ConfirmTimeout <= 0 {
		c.ConfirmTimeout = DefaultConfirmTimeout
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.SyncInterval <= 0 {
		c.SyncInterval = time.Second
	}
	if c.History.Retention <= 0 {
		c.History.Retention = 90 * 24 * time.Hour
	}
	if c.Browser.Driver == "" {
		c.Browser.Driver = "rod"
	}
	if c.Browser.Timeout <= 0 {
		c.Browser.Timeout = 30 * time.Second
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = "127.0.0.1:8787"
	}
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadConfigFile reads a YAML config file and applies defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("annotator: read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("annotator: parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}
