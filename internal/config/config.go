package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultRemoteURL = "https://github.com/github/gitignore.git"
	DefaultBranch    = "main"
	DefaultMaxAge    = "24h"
	DefaultExtension = ".gitignore"
)

type Config struct {
	Schema      int    `json:"schema"`
	CacheDir    string `json:"cache_dir,omitempty"`
	RemoteURL   string `json:"remote_url"`
	Branch      string `json:"branch"`
	MaxAge      string `json:"max_age"`
	CheckRemote bool   `json:"check_remote"`
	Extension   string `json:"extension"`
	LogLevel    string `json:"log_level,omitempty"`
	LastUpdate  int64  `json:"last_update"`
	FirstRun    bool   `json:"first_run"`

	// path is where the config was read from, and where Save writes to.
	path string
}

const CurrentConfigSchema = 1

func DefaultConfig() *Config {
	return &Config{
		Schema:      CurrentConfigSchema,
		RemoteURL:   DefaultRemoteURL,
		Branch:      DefaultBranch,
		MaxAge:      DefaultMaxAge,
		CheckRemote: true,
		Extension:   DefaultExtension,
		LogLevel:    "warn",
		FirstRun:    true,
	}
}

func Load(configPath string) (*Config, error) {
	paths := getConfigPaths(configPath)

	for _, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}

		cfg := DefaultConfig()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}

		cfg.path = path
		cfg.fillDefaults()
		cfg.expandPaths()
		return cfg, nil
	}

	cfg := DefaultConfig()
	if len(paths) > 0 {
		cfg.path = paths[0]
	}
	return cfg, nil
}

// Save writes the config back to the file it was loaded from, or to the first
// lookup location when none existed.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		paths := getConfigPaths("")
		if len(paths) == 0 {
			return fmt.Errorf("no config location available")
		}
		path = paths[0]
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return err
	}
	c.path = path
	return nil
}

// Path returns the file this config is bound to.
func (c *Config) Path() string {
	return c.path
}

func getConfigPaths(explicit string) []string {
	home, _ := os.UserHomeDir()

	var paths []string

	if explicit != "" {
		paths = append(paths, explicit)
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" && home != "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	if xdgConfig != "" {
		paths = append(paths, filepath.Join(xdgConfig, "ignoreit", "config.json"))
	}

	return paths
}

func (c *Config) fillDefaults() {
	defaults := DefaultConfig()
	if c.Schema == 0 {
		c.Schema = defaults.Schema
	}
	if c.RemoteURL == "" {
		c.RemoteURL = defaults.RemoteURL
	}
	if c.Branch == "" {
		c.Branch = defaults.Branch
	}
	if c.MaxAge == "" {
		c.MaxAge = defaults.MaxAge
	}
	if c.Extension == "" {
		c.Extension = defaults.Extension
	}
}

func (c *Config) expandPaths() {
	home, _ := os.UserHomeDir()

	if len(c.CacheDir) > 0 && c.CacheDir[0] == '~' {
		c.CacheDir = filepath.Join(home, c.CacheDir[1:])
	}
}

// MaxAgeDuration parses MaxAge, falling back to 24 hours when unset or invalid.
func (c *Config) MaxAgeDuration() time.Duration {
	d, err := time.ParseDuration(c.MaxAge)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// CacheRoot returns the configured cache root, or "" to use the platform default.
func (c *Config) CacheRoot() string {
	return c.CacheDir
}

// MarkSynced records a successful sync at t.
func (c *Config) MarkSynced(t time.Time) {
	c.LastUpdate = t.UnixMilli()
	c.FirstRun = false
}
