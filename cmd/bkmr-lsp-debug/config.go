package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// fileConfig is the optional TOML configuration. Command-line flags
// override anything set here.
//
//	server = "/usr/local/bin/bkmr"
//	database = "~/.config/bkmr/bkmr.db"
//	logLevel = "debug"
//	noInterpolation = false
//	requestTimeout = "5s"
type fileConfig struct {
	Server          string `toml:"server"`
	Database        string `toml:"database"`
	LogLevel        string `toml:"logLevel"`
	NoInterpolation bool   `toml:"noInterpolation"`
	RequestTimeout  string `toml:"requestTimeout"`
}

// defaultConfigPath is consulted when --config is not given. A missing
// file there is not an error.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "bkmr-lsp-debug", "config.toml")
}

// loadConfig reads the TOML config. When explicit is empty the default
// location is tried and absence is tolerated.
func loadConfig(explicit string) (*fileConfig, error) {
	path := explicit
	optional := false

	if path == "" {
		path = defaultConfigPath()
		optional = true
	}

	var cfg fileConfig

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && (path == "" || errors.Is(err, fs.ErrNotExist)) {
			return &cfg, nil
		}

		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &cfg, nil
}

// requestTimeout parses the configured timeout, falling back to zero
// (library default) when unset.
func (c *fileConfig) requestTimeout() (time.Duration, error) {
	if c.RequestTimeout == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("requestTimeout: %w", err)
	}

	return d, nil
}
