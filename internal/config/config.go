// Package config loads the optional statwalk configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the optional statwalk configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Filter   FilterConfig   `toml:"filter"`

	// Unknown lists keys in the file that matched no field.
	Unknown []string `toml:"-"`
}

// DefaultsConfig holds persistent flag defaults. Nil means "not set".
type DefaultsConfig struct {
	Workers   *int    `toml:"workers"`
	Scorer    *string `toml:"scorer"`
	Recursive *bool   `toml:"recursive"`
	Verify    *bool   `toml:"verify"`
	BWLimit   *string `toml:"bwlimit"`
}

// FilterConfig holds rules consulted after those given on the command line
// and after the filter file.
type FilterConfig struct {
	Exclude []string `toml:"exclude"`
	Include []string `toml:"include"`
	File    *string  `toml:"file"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "statwalk", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	cfg, err := LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	return cfg, err
}

// LoadFile reads the config file at path. A missing file is an error.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		cfg.Unknown = append(cfg.Unknown, key.String())
	}
	if w := cfg.Defaults.Workers; w != nil && *w < 0 {
		return Config{}, fmt.Errorf("config %s: defaults.workers must not be negative", path)
	}
	return cfg, nil
}
