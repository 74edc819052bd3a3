// Package server exposes the compile-and-run engine over HTTP.
package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the configuration file the server looks for.
const ConfigFileName = "minic.toml"

// Config represents a minic.toml server configuration.
type Config struct {
	Server Listen      `toml:"server"`
	Static StaticFiles `toml:"static"`
	Cache  Cache       `toml:"cache"`

	// Dir is the directory containing the minic.toml file (set at load time).
	Dir string `toml:"-"`
}

// Listen configures the HTTP listener. TimeoutMillis is a pointer so that an
// explicit 0 (run without a time limit) survives defaulting.
type Listen struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed-origins"`
	TimeoutMillis  *int64   `toml:"timeout-millis"`
}

// StaticFiles configures static file hosting for the playground frontend.
type StaticFiles struct {
	Dir string `toml:"dir"`
}

// Cache configures the compile result cache.
type Cache struct {
	Path    string `toml:"path"`
	Enabled bool   `toml:"enabled"`
}

// DefaultConfig returns the configuration used when no minic.toml exists.
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8080"
	}
	if c.Server.TimeoutMillis == nil {
		millis := int64(5000)
		c.Server.TimeoutMillis = &millis
	}
	if c.Static.Dir == "" {
		c.Static.Dir = "static"
	}
}

// Load parses a minic.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	c.applyDefaults()

	return &c, nil
}

// FindAndLoad walks up from startDir to find a minic.toml file, then loads
// and returns the configuration. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Timeout returns the execution time budget per request. Zero means no
// limit.
func (c *Config) Timeout() time.Duration {
	if c.Server.TimeoutMillis == nil {
		return 0
	}
	return time.Duration(*c.Server.TimeoutMillis) * time.Millisecond
}

// StaticDirPath returns the absolute path of the static file directory.
func (c *Config) StaticDirPath() string {
	if filepath.IsAbs(c.Static.Dir) || c.Dir == "" {
		return c.Static.Dir
	}
	return filepath.Join(c.Dir, c.Static.Dir)
}

// CachePath returns the absolute path of the cache database, or "" when
// caching is disabled.
func (c *Config) CachePath() string {
	if !c.Cache.Enabled {
		return ""
	}
	if c.Cache.Path == "" || filepath.IsAbs(c.Cache.Path) || c.Dir == "" {
		return c.Cache.Path
	}
	return filepath.Join(c.Dir, c.Cache.Path)
}
