// Package config provides monsterlab's typed settings.
//
// Settings come from three layers, later ones overriding earlier ones:
//
//  1. Built-in defaults (Default)
//  2. A TOML file (monsterlab.toml)
//  3. MONSTERLAB_* environment variables
//
// Keys use camelCase within sections, so MONSTERLAB_HISTORY_MAX_ENTRIES
// overrides maxEntries in the [history] section.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/monsterlab/internal/config/loader"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "MONSTERLAB_"

// DefaultFile is the config file looked up when none is given.
const DefaultFile = "monsterlab.toml"

// Config holds every setting.
type Config struct {
	Canvas     CanvasConfig     `toml:"canvas"`
	Brush      BrushConfig      `toml:"brush"`
	History    HistoryConfig    `toml:"history"`
	Dictionary DictionaryConfig `toml:"dictionary"`
	Assets     AssetsConfig     `toml:"assets"`
	Export     ExportConfig     `toml:"export"`
	Logging    LoggingConfig    `toml:"logging"`
	Metrics    MetricsConfig    `toml:"metrics"`
}

// CanvasConfig sizes the drawing surface.
type CanvasConfig struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Background string `toml:"background"`
}

// BrushConfig is the initial free-drawing brush.
type BrushConfig struct {
	Color string `toml:"color"`
	Width int    `toml:"width"`
}

// HistoryConfig bounds the undo history.
type HistoryConfig struct {
	// MaxEntries caps retained snapshots. Zero keeps everything.
	MaxEntries int `toml:"maxEntries"`
}

// DictionaryConfig configures the adjective check.
type DictionaryConfig struct {
	Endpoint string   `toml:"endpoint"`
	Timeout  Duration `toml:"timeout"`
	// Offline skips the dictionary and accepts every word.
	Offline bool `toml:"offline"`
}

// AssetsConfig locates the parts inventory.
type AssetsConfig struct {
	Dir      string   `toml:"dir"`
	Watch    bool     `toml:"watch"`
	Debounce Duration `toml:"debounce"`
}

// ExportConfig controls screenshot output.
type ExportConfig struct {
	Dir      string `toml:"dir"`
	FileName string `toml:"fileName"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled"`
	Addr      string `toml:"addr"`
	Namespace string `toml:"namespace"`
}

// Duration is a time.Duration written as a string such as "5s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{Width: 600, Height: 500, Background: "#f0f0f0"},
		Brush:  BrushConfig{Color: "#000000", Width: 5},
		Dictionary: DictionaryConfig{
			Endpoint: "https://api.dictionaryapi.dev/api/v2/entries/en",
			Timeout:  Duration(5 * time.Second),
		},
		Assets:  AssetsConfig{Dir: "assets", Watch: true, Debounce: Duration(200 * time.Millisecond)},
		Export:  ExportConfig{Dir: ".", FileName: "monster-notes.png"},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9090", Namespace: "monsterlab"},
	}
}

// Load reads path (missing is fine) and the process environment on top of
// the defaults, then validates the result.
func Load(path string) (*Config, error) {
	return LoadFrom(loader.NewTOMLLoader(path), loader.NewEnvLoader(EnvPrefix))
}

// LoadFrom merges the given sources in order over the defaults.
func LoadFrom(sources ...loader.Loader) (*Config, error) {
	merged := make(map[string]any)
	for _, src := range sources {
		m, err := src.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, m)
	}

	cfg := Default()
	if len(merged) > 0 {
		data, err := toml.Marshal(merged)
		if err != nil {
			return nil, fmt.Errorf("encoding merged config: %w", err)
		}
		dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, strict.String())
			}
			return nil, fmt.Errorf("decoding config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal encodes cfg as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
