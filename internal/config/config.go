// Package config loads the fwdash YAML configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coal/fwdash/internal/render"
)

// Config is the complete client configuration.
type Config struct {
	Server   string        `yaml:"server"`
	Timeout  time.Duration `yaml:"timeout"`
	Theme    render.Theme  `yaml:"theme"`
	AuditLog string        `yaml:"audit_log"`

	Intervals  Intervals  `yaml:"intervals"`
	Logs       Logs       `yaml:"logs"`
	Graph      Graph      `yaml:"graph"`
	Traffic    Traffic    `yaml:"traffic"`
	TopTalkers TopTalkers `yaml:"top_talkers"`
	Alerts     Alerts     `yaml:"alerts"`
	GeoIP      GeoIP      `yaml:"geoip"`
	Mirror     Mirror     `yaml:"mirror"`
}

// Intervals are the poll periods per widget. Zero means refreshed on
// demand only.
type Intervals struct {
	Stats      time.Duration `yaml:"stats"`
	Traffic    time.Duration `yaml:"traffic"`
	TopTalkers time.Duration `yaml:"top_talkers"`
	Logs       time.Duration `yaml:"logs"`
	Alerts     time.Duration `yaml:"alerts"`
	Graph      time.Duration `yaml:"graph"`
}

type Logs struct {
	PageSize int `yaml:"page_size"`
}

type Graph struct {
	Limit int `yaml:"limit"`
}

type Traffic struct {
	Minutes int `yaml:"minutes"`
}

type TopTalkers struct {
	Limit int `yaml:"limit"`
}

type Alerts struct {
	Limit int `yaml:"limit"`
}

type GeoIP struct {
	CountryDB string `yaml:"country_db"`
}

type Mirror struct {
	Listen string `yaml:"listen"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:  "http://127.0.0.1:5000",
		Timeout: 5 * time.Second,
		Theme:   render.ThemeDark,
		Intervals: Intervals{
			Stats:      4 * time.Second,
			Traffic:    6 * time.Second,
			TopTalkers: 8 * time.Second,
			Logs:       6 * time.Second,
		},
		Logs:  Logs{PageSize: 50},
		Graph: Graph{Limit: 60},
	}
}

// LoadFromFile loads a configuration from a YAML file. Fields missing from
// the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML bytes over the defaults.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return c, nil
}

// Validate checks the configuration and fills zero values that have a
// default.
func (c *Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("server is required")
	}
	u, err := url.Parse(c.Server)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server %q must be an absolute URL", c.Server)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server %q: unsupported scheme %q", c.Server, u.Scheme)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}

	switch c.Theme {
	case "":
		c.Theme = render.ThemeDark
	case render.ThemeDark, render.ThemeLight:
	default:
		return fmt.Errorf("invalid theme %q (want dark or light)", c.Theme)
	}

	intervals := map[string]time.Duration{
		"stats":       c.Intervals.Stats,
		"traffic":     c.Intervals.Traffic,
		"top_talkers": c.Intervals.TopTalkers,
		"logs":        c.Intervals.Logs,
		"alerts":      c.Intervals.Alerts,
		"graph":       c.Intervals.Graph,
	}
	for name, d := range intervals {
		if d < 0 {
			return fmt.Errorf("intervals.%s must not be negative", name)
		}
		if d > 0 && d < 500*time.Millisecond {
			return fmt.Errorf("intervals.%s: %s is below the 500ms minimum", name, d)
		}
	}

	if c.Logs.PageSize < 0 || c.Logs.PageSize > 1000 {
		return fmt.Errorf("logs.page_size %d out of range 1..1000", c.Logs.PageSize)
	}
	if c.Logs.PageSize == 0 {
		c.Logs.PageSize = 50
	}
	if c.Graph.Limit < 0 {
		return fmt.Errorf("graph.limit must not be negative")
	}
	if c.Graph.Limit == 0 {
		c.Graph.Limit = 60
	}
	for name, n := range map[string]int{
		"traffic.minutes":   c.Traffic.Minutes,
		"top_talkers.limit": c.TopTalkers.Limit,
		"alerts.limit":      c.Alerts.Limit,
	} {
		if n < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}
