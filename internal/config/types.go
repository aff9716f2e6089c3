// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for sitesnap.
// It supports loading from YAML files with environment variable overrides.
type Config struct {
	// Site is the base URL of the live site, without trailing slash.
	Site        string            `yaml:"site"`
	Pages       PagesConfig       `yaml:"pages"`
	Crawl       CrawlConfig       `yaml:"crawl"`
	Retry       RetryConfig       `yaml:"retry"`
	Consistency ConsistencyConfig `yaml:"consistency"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`

	// Force ignores the committed marker and always crawls.
	Force bool `yaml:"force"`

	// Root is the workspace directory relative paths resolve against.
	Root string `yaml:"-"`
}

// PagesConfig selects which pages are captured. In YAML it accepts either a
// mapping or a bare boolean (`pages: false` captures the entry pages and
// stylesheet only).
type PagesConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Entry       []string `yaml:"entry"`
	Ignore      []string `yaml:"ignore"`
	SitemapSeed bool     `yaml:"sitemap_seed"`
}

// CrawlConfig bounds how hard the source site is hit.
type CrawlConfig struct {
	Concurrency int      `yaml:"concurrency"`
	RateLimit   float64  `yaml:"rate_limit"`
	Timeout     Duration `yaml:"timeout"`
	UserAgent   string   `yaml:"user_agent"`
}

// RetryConfig holds both retry tiers.
type RetryConfig struct {
	ResourceRetries int      `yaml:"resource_retries"`
	ResourceDelay   Duration `yaml:"resource_delay"`
	SiteRetries     int      `yaml:"site_retries"`
	SiteDelay       Duration `yaml:"site_delay"`
}

// ConsistencyConfig holds the timestamp comparison window.
type ConsistencyConfig struct {
	Tolerance Duration `yaml:"tolerance"`
}

// OutputConfig describes the mirror tree and the files written beside it.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	Layout      string `yaml:"layout"`
	Marker      string `yaml:"marker"`
	Sitemap     bool   `yaml:"sitemap"`
	MetricsFile string `yaml:"metrics_file"`
	Manifest    string `yaml:"manifest"`
	MetadataDir string `yaml:"metadata_dir"`
}

// LoggingConfig selects log level and encoding.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// Layout names for OutputConfig.Layout.
const (
	LayoutDirectory = "directory"
	LayoutFile      = "file"
)

// DefaultConfig returns a configuration with sensible defaults.
// Retry counts and delays follow the values the snapshot job has always used.
func DefaultConfig() *Config {
	return &Config{
		Pages: PagesConfig{
			Enabled: true,
			Entry:   []string{"/"},
		},
		Crawl: CrawlConfig{
			Concurrency: 8,
			RateLimit:   10,
			Timeout:     DurationFrom(30 * time.Second),
			UserAgent:   "sitesnap/dev",
		},
		Retry: RetryConfig{
			ResourceRetries: 3,
			ResourceDelay:   DurationFrom(10 * time.Second),
			SiteRetries:     3,
		},
		Consistency: ConsistencyConfig{
			Tolerance: DurationFrom(time.Second),
		},
		Output: OutputConfig{
			Dir:     "public",
			Layout:  LayoutDirectory,
			Marker:  ".timestamp",
			Sitemap: true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
		Root: ".",
	}
}

// SiteCooldown returns the site-tier cooldown, twice the resource delay unless
// configured explicitly.
func (r RetryConfig) SiteCooldown() time.Duration {
	if r.SiteDelay.Duration > 0 {
		return r.SiteDelay.Duration
	}
	return 2 * r.ResourceDelay.Duration
}

// UnmarshalYAML accepts `pages: true|false` as well as a full mapping.
func (p *PagesConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var enabled bool
		if err := node.Decode(&enabled); err != nil {
			return err
		}
		p.Enabled = enabled
		return nil
	}

	type plain PagesConfig
	raw := plain(*p)
	raw.Enabled = true
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*p = PagesConfig(raw)
	return nil
}
