// Package config loads patterncalc settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"nickandperla.net/patterncalc/internal/geom"
	"nickandperla.net/patterncalc/internal/locale"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "patterncalc.toml"

// Config is the full set of settings.
type Config struct {
	Eval    EvalConfig    `toml:"eval"`
	Pattern PatternConfig `toml:"pattern"`
	Locale  LocaleConfig  `toml:"locale"`
	Store   StoreConfig   `toml:"store"`
	Log     LogConfig     `toml:"log"`
}

// EvalConfig controls formula evaluation.
type EvalConfig struct {
	// Pedantic turns warning() calls and degenerate geometry into errors.
	Pedantic bool `toml:"pedantic"`
	// SpecialSigils are name prefixes that may be referenced before they
	// exist.
	SpecialSigils []string `toml:"special_sigils"`
}

// PatternConfig describes the pattern document.
type PatternConfig struct {
	Unit string `toml:"unit"`
}

// LocaleConfig controls formula display.
type LocaleConfig struct {
	Tag         string `toml:"tag"`
	OSSeparator bool   `toml:"os_separator"`
}

// StoreConfig locates the document database.
type StoreConfig struct {
	Path string `toml:"path"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // auto, console or json
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Eval:    EvalConfig{SpecialSigils: []string{"@"}},
		Pattern: PatternConfig{Unit: "cm"},
		Locale:  LocaleConfig{Tag: "en-US", OSSeparator: true},
		Store:   StoreConfig{Path: "pattern.db"},
		Log:     LogConfig{Level: "info", Format: "auto"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	if _, err := geom.ParseUnit(c.Pattern.Unit); err != nil {
		return fmt.Errorf("pattern.unit: %w", err)
	}
	if _, err := locale.ForTag(c.Locale.Tag); err != nil {
		return fmt.Errorf("locale.tag: %w", err)
	}
	switch c.Log.Format {
	case "", "auto", "console", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if c.Store.Path == "" {
		return errors.New("store.path: must not be empty")
	}
	return nil
}

// Unit returns the parsed pattern unit.
func (c *Config) Unit() geom.Unit {
	u, err := geom.ParseUnit(c.Pattern.Unit)
	if err != nil {
		return geom.Cm
	}
	return u
}
