// Package site handles project discovery and configuration.
package site

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the project configuration file name.
const ConfigFile = "pagewright.yaml"

// MetaFile is the optional variables file at the input root. Its top-level
// scalar entries become variables visible to every page.
const MetaFile = "META.yaml"

// Config holds the pagewright project configuration.
type Config struct {
	// Input is the directory scanned for .page files.
	Input string `yaml:"input"`

	// Output is the directory rendered HTML is written to.
	Output string `yaml:"output"`

	// Strict turns per-page failures into a failed build.
	Strict bool `yaml:"strict"`

	// Jobs caps how many pages render concurrently. Zero or negative means
	// one goroutine per page.
	Jobs int `yaml:"jobs"`

	// Define sets variables visible to every page, overriding META.yaml.
	Define map[string]string `yaml:"define"`

	Exec  ExecConfig  `yaml:"exec"`
	Serve ServeConfig `yaml:"serve"`
	Cache CacheConfig `yaml:"cache"`
	Hooks HooksConfig `yaml:"hooks"`

	// Root is the directory the configuration was loaded from.
	Root string `yaml:"-"`
}

// ExecConfig controls the !SHELL_CMD directive. Commands are disabled unless
// enabled here, and only allowlisted program names may run.
type ExecConfig struct {
	Enabled bool     `yaml:"enabled"`
	Allow   []string `yaml:"allow"`

	// TimeoutSeconds bounds each command. Defaults to 30.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Timeout returns the per-command timeout.
func (e ExecConfig) Timeout() time.Duration {
	if e.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// Allows reports whether name is an allowlisted program.
func (e ExecConfig) Allows(name string) bool {
	for _, a := range e.Allow {
		if a == name {
			return true
		}
	}
	return false
}

// ServeConfig controls the development server.
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// CacheConfig controls the incremental build cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// HooksConfig configures the webhook notified after builds.
type HooksConfig struct {
	URL       string `yaml:"url"`
	OnSuccess bool   `yaml:"on_success"`
	OnFailure bool   `yaml:"on_failure"`
}

// Default returns the configuration used when no pagewright.yaml exists.
func Default() *Config {
	return &Config{
		Input:  "site",
		Output: "public",
		Serve:  ServeConfig{Addr: "127.0.0.1:8080"},
		Cache:  CacheConfig{Enabled: true, Path: filepath.Join(".pagewright", "cache.db")},
		Hooks:  HooksConfig{OnSuccess: true, OnFailure: true},
	}
}

// Load reads pagewright.yaml from dir. A missing file yields the defaults
// with Root set to dir.
func Load(dir string) (*Config, error) {
	cfg := Default()
	cfg.Root = dir

	data, err := os.ReadFile(filepath.Join(dir, ConfigFile))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ConfigFile, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ConfigFile, err)
	}
	return cfg, nil
}

// FindRoot searches upward from dir for a directory containing
// pagewright.yaml.
func FindRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigFile)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found (run 'pagewright init' to create a project)", ConfigFile)
		}
		dir = parent
	}
}

// InputDir returns the input directory resolved against the project root.
func (c *Config) InputDir() string {
	return c.resolve(c.Input)
}

// OutputDir returns the output directory resolved against the project root.
func (c *Config) OutputDir() string {
	return c.resolve(c.Output)
}

// CachePath returns the cache database path resolved against the project root.
func (c *Config) CachePath() string {
	return c.resolve(c.Cache.Path)
}

// LockDir returns the directory holding operation lock files.
func (c *Config) LockDir() string {
	return c.resolve(filepath.Join(".pagewright", "locks"))
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Root == "" {
		return p
	}
	return filepath.Join(c.Root, p)
}
