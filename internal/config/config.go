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

// Package config provides configuration management for sitesnap.
// It supports loading configuration from YAML files, a .env file and
// environment variables, with environment values taking precedence over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sirseerhq/sitesnap/internal/extract"
)

// DefaultFileNames are searched, in order, in the workspace root when no
// explicit config path is given. webflowgit.yml is the name older workflows use.
var DefaultFileNames = []string{
	"sitesnap.yml",
	"sitesnap.yaml",
	"webflowgit.yml",
}

// LoadConfig loads configuration from the specified path or default locations.
// If configPath is empty, it searches the workspace root for DefaultFileNames.
// Environment variables override values from the config file.
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	if root := os.Getenv("GITHUB_WORKSPACE"); root != "" {
		cfg.Root = root
	}

	// A missing .env is the common case.
	if err := godotenv.Load(filepath.Join(cfg.Root, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		for _, name := range DefaultFileNames {
			candidate := filepath.Join(cfg.Root, name)
			if _, err := os.Stat(candidate); err == nil {
				if err := loadConfigFile(candidate, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", candidate, err)
				}
				break
			}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.normalize()

	return cfg, nil
}

// loadConfigFile reads and parses a YAML configuration file.
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) error {
	if site := os.Getenv("SITESNAP_SITE"); site != "" {
		cfg.Site = site
	}
	if cfg.Site == "" {
		cfg.Site = siteFromRepository(os.Getenv("GITHUB_REPOSITORY"))
	}

	if dir := os.Getenv("SITESNAP_OUTPUT_DIR"); dir != "" {
		cfg.Output.Dir = dir
	}
	if level := os.Getenv("SITESNAP_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if concurrency := os.Getenv("SITESNAP_CONCURRENCY"); concurrency != "" {
		n, err := parsePositiveInt(concurrency)
		if err != nil {
			return fmt.Errorf("SITESNAP_CONCURRENCY: %w", err)
		}
		cfg.Crawl.Concurrency = n
	}

	// Workflow inputs arrive as INPUT_<NAME>.
	if force := os.Getenv("INPUT_FORCE"); force != "" {
		cfg.Force = ParseBool(force)
	}

	return nil
}

// siteFromRepository derives a default site from a repository named after
// its domain, e.g. "acme/www.acme.com" -> "https://www.acme.com".
func siteFromRepository(repository string) string {
	_, name, ok := strings.Cut(repository, "/")
	if !ok || !strings.Contains(name, ".") {
		return ""
	}
	return "https://" + name
}

func (c *Config) normalize() {
	c.Site = strings.TrimRight(strings.TrimSpace(c.Site), "/")

	entries := make([]string, 0, len(c.Pages.Entry))
	for _, e := range c.Pages.Entry {
		entries = append(entries, extract.CleanPath(e))
	}
	if len(entries) == 0 {
		entries = []string{"/"}
	}
	c.Pages.Entry = entries

	if c.Retry.SiteDelay.Duration <= 0 {
		c.Retry.SiteDelay = DurationFrom(c.Retry.SiteCooldown())
	}
	if c.Output.MetadataDir == "" {
		c.Output.MetadataDir = filepath.Dir(c.Output.Marker)
	}
}

// Resolve returns p joined to the workspace root unless it is absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// IgnoreMatcher compiles the ignore globs. `*` stays within one path segment,
// `**` crosses segments.
func (c *Config) IgnoreMatcher() (func(string) bool, error) {
	globs := make([]glob.Glob, 0, len(c.Pages.Ignore))
	for _, pattern := range c.Pages.Ignore {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}

	return func(p string) bool {
		for _, g := range globs {
			if g.Match(p) {
				return true
			}
		}
		return false
	}, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Site == "" {
		return fmt.Errorf("site is not configured")
	}
	u, err := url.Parse(c.Site)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("site must be an absolute http(s) URL, got: %q", c.Site)
	}
	if c.Crawl.Concurrency <= 0 {
		return fmt.Errorf("crawl concurrency must be positive, got: %d", c.Crawl.Concurrency)
	}
	if c.Crawl.RateLimit < 0 {
		return fmt.Errorf("crawl rate limit cannot be negative, got: %v", c.Crawl.RateLimit)
	}
	if c.Retry.ResourceRetries < 0 || c.Retry.SiteRetries < 0 {
		return fmt.Errorf("retry counts cannot be negative")
	}
	if c.Consistency.Tolerance.Duration < 0 {
		return fmt.Errorf("consistency tolerance cannot be negative")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if c.Output.Marker == "" {
		return fmt.Errorf("marker file cannot be empty")
	}
	if c.Output.Layout != LayoutDirectory && c.Output.Layout != LayoutFile {
		return fmt.Errorf("output layout must be %q or %q, got: %q", LayoutDirectory, LayoutFile, c.Output.Layout)
	}
	if _, err := c.IgnoreMatcher(); err != nil {
		return err
	}
	return nil
}

// ParseBool parses the usual truthy spellings; anything else is false.
func ParseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}

// parsePositiveInt parses a string as a positive integer.
func parsePositiveInt(s string) (int, error) {
	var i int
	_, err := fmt.Sscanf(s, "%d", &i)
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}
