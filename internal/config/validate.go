package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dshills/monsterlab/internal/canvas"
)

// Errors returned by configuration loading.
var (
	// ErrValidationFailed indicates a setting has an unusable value.
	ErrValidationFailed = errors.New("validation failed")

	// ErrUnknownSetting indicates a key no section defines.
	ErrUnknownSetting = errors.New("unknown setting")
)

// ValidationError describes one invalid setting.
type ValidationError struct {
	Path    string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Path, e.Message, e.Value)
}

// Is reports ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Validate checks every section and joins all failures.
func (c *Config) Validate() error {
	var errs []error
	fail := func(path, msg string, v any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v})
	}

	if c.Canvas.Width <= 0 {
		fail("canvas.width", "must be positive", c.Canvas.Width)
	}
	if c.Canvas.Height <= 0 {
		fail("canvas.height", "must be positive", c.Canvas.Height)
	}
	if _, err := canvas.ParseColor(c.Canvas.Background); err != nil {
		fail("canvas.background", "must be #rgb or #rrggbb", c.Canvas.Background)
	}
	if _, err := canvas.ParseColor(c.Brush.Color); err != nil {
		fail("brush.color", "must be #rgb or #rrggbb", c.Brush.Color)
	}
	if c.Brush.Width <= 0 {
		fail("brush.width", "must be positive", c.Brush.Width)
	}
	if c.History.MaxEntries < 0 {
		fail("history.maxEntries", "must not be negative", c.History.MaxEntries)
	}
	if !c.Dictionary.Offline && c.Dictionary.Endpoint == "" {
		fail("dictionary.endpoint", "required unless offline", c.Dictionary.Endpoint)
	}
	if c.Dictionary.Timeout < 0 {
		fail("dictionary.timeout", "must not be negative", c.Dictionary.Timeout.Std())
	}
	if c.Assets.Dir == "" {
		fail("assets.dir", "required", c.Assets.Dir)
	}
	if c.Export.FileName == "" {
		fail("export.fileName", "required", c.Export.FileName)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		fail("logging.level", "must be debug, info, warn or error", c.Logging.Level)
	}
	if !slices.Contains([]string{"console", "json"}, c.Logging.Format) {
		fail("logging.format", "must be console or json", c.Logging.Format)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		fail("metrics.addr", "required when metrics are enabled", c.Metrics.Addr)
	}

	return errors.Join(errs...)
}
