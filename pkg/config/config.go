// Package config loads snapback's configuration: defaults, overlaid by an
// optional TOML file in the XDG config directory. Command-line flags take
// precedence over both and are applied by the CLI layer.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/snapback/pkg/errors"
)

// Hash algorithm names accepted for content comparison.
const (
	HashBytes = "bytes"
	HashXXH3  = "xxh3"
)

// DefaultWorkers is the worker pool size used when neither the config file
// nor the command line overrides it.
const DefaultWorkers = 8

// Config holds the tunable settings of a backup run.
type Config struct {
	// Workers is the number of concurrent work-item executors.
	Workers int `toml:"workers"`

	// Hash selects the content comparison strategy: "bytes" for a
	// streaming byte-for-byte compare, "xxh3" for a full-content
	// digest compare.
	Hash string `toml:"hash"`

	// KeepDays removes committed snapshots older than this many days
	// after a successful run. Zero disables retention.
	KeepDays int `toml:"keep_days"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Workers:  DefaultWorkers,
		Hash:     HashBytes,
		KeepDays: 0,
	}
}

// Path returns the location of the user config file.
func Path() string {
	return filepath.Join(xdg.ConfigHome, "snapback", "snapback.toml")
}

// Load returns the defaults overlaid with the user config file, if one
// exists. A missing file is not an error; an unreadable or invalid one is.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom is Load with an explicit file location, used by tests.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read config file %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, errors.ErrConfigLoad, "failed to parse config file %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return errors.Newf(errors.ErrInvalidInput, "workers must be at least 1, got %d", c.Workers)
	}
	if c.Hash != HashBytes && c.Hash != HashXXH3 {
		return errors.Newf(errors.ErrInvalidInput, "unknown hash algorithm %q (want %q or %q)", c.Hash, HashBytes, HashXXH3)
	}
	if c.KeepDays < 0 {
		return errors.Newf(errors.ErrInvalidInput, "keep_days cannot be negative, got %d", c.KeepDays)
	}
	return nil
}
