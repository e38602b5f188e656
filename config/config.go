// Package config provides configuration loading and management for ontosync.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Config represents the complete ontosync configuration.
type Config struct {
	Pairs   []PairConfig  `yaml:"pairs"`
	Watch   WatchConfig   `yaml:"watch"`
	NATS    NATSConfig    `yaml:"nats"`
	Metrics MetricsConfig `yaml:"metrics"`
	Lint    LintConfig    `yaml:"lint"`
}

// PairConfig names one Turtle/RDF-XML serialization pair. TTL may be a
// doublestar glob; each match pairs with an OWL path derived by extension
// swap unless OWL is set explicitly.
type PairConfig struct {
	// TTL is the Turtle file path or glob pattern.
	TTL string `yaml:"ttl"`
	// OWL is the RDF/XML file path (default: TTL path with .owl extension).
	OWL string `yaml:"owl"`
	// Marker overrides the sync marker path for this pair.
	Marker string `yaml:"marker"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is how long to wait for further changes before re-syncing.
	Debounce time.Duration `yaml:"debounce"`
}

// NATSConfig configures optional sync event publication.
type NATSConfig struct {
	// URL is the NATS server URL (empty = publishing disabled).
	URL string `yaml:"url"`
	// Subject is the subject sync events are published to.
	Subject string `yaml:"subject"`
}

// MetricsConfig configures the Prometheus endpoint served in watch mode.
type MetricsConfig struct {
	// Addr is the listen address for /metrics (empty = disabled).
	Addr string `yaml:"addr"`
}

// LintConfig configures the quality linter.
type LintConfig struct {
	// RequireMetadata demands ontology-level label/comment/versionInfo.
	RequireMetadata *bool `yaml:"require_metadata"`
	// CheckNaming enforces class/property naming conventions.
	CheckNaming *bool `yaml:"check_naming"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	// Each flag needs its own pointer: yaml.v3 writes through existing
	// pointers when unmarshalling over the defaults.
	requireMetadata, checkNaming := true, true
	return &Config{
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		NATS: NATSConfig{
			URL:     "",
			Subject: "ontology.sync.event",
		},
		Lint: LintConfig{
			RequireMetadata: &requireMetadata,
			CheckNaming:     &checkNaming,
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if c.NATS.URL != "" && c.NATS.Subject == "" {
		return fmt.Errorf("nats.subject is required when nats.url is set")
	}
	for i, p := range c.Pairs {
		if p.TTL == "" {
			return fmt.Errorf("pairs[%d].ttl is required", i)
		}
		if p.OWL != "" && isGlob(p.TTL) {
			return fmt.Errorf("pairs[%d]: explicit owl path cannot be combined with a ttl glob", i)
		}
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if len(other.Pairs) > 0 {
		c.Pairs = other.Pairs
	}

	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}

	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}

	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}

	if other.Lint.RequireMetadata != nil {
		c.Lint.RequireMetadata = other.Lint.RequireMetadata
	}
	if other.Lint.CheckNaming != nil {
		c.Lint.CheckNaming = other.Lint.CheckNaming
	}
}

// Pair is a resolved serialization pair.
type Pair struct {
	TTL    string
	OWL    string
	Marker string
}

// ResolvePairs expands glob entries against root and derives OWL and marker
// paths for each resolved pair.
func (c *Config) ResolvePairs(root string) ([]Pair, error) {
	var out []Pair
	for i, p := range c.Pairs {
		if !isGlob(p.TTL) {
			out = append(out, resolvePair(root, p.TTL, p.OWL, p.Marker))
			continue
		}
		pattern := p.TTL
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(root, pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("pairs[%d]: bad glob %q: %w", i, p.TTL, err)
		}
		for _, m := range matches {
			out = append(out, resolvePair(root, m, "", ""))
		}
	}
	return out, nil
}

func resolvePair(root, ttl, owl, marker string) Pair {
	if !filepath.IsAbs(ttl) {
		ttl = filepath.Join(root, ttl)
	}
	if owl == "" {
		owl = strings.TrimSuffix(ttl, filepath.Ext(ttl)) + ".owl"
	} else if !filepath.IsAbs(owl) {
		owl = filepath.Join(root, owl)
	}
	if marker != "" && !filepath.IsAbs(marker) {
		marker = filepath.Join(root, marker)
	}
	return Pair{TTL: ttl, OWL: owl, Marker: marker}
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
