package report

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultFileName is the export name used when it is free.
const DefaultFileName = "monster-notes.png"

// Exporter writes composites as PNG files.
type Exporter struct {
	dir    string
	name   string
	now    func() time.Time
	logger *zap.Logger
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithFileName overrides DefaultFileName.
func WithFileName(name string) ExporterOption {
	return func(e *Exporter) {
		if name != "" {
			e.name = name
		}
	}
}

// WithClock sets the time source for timestamped names.
func WithClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the exporter logger.
func WithLogger(l *zap.Logger) ExporterOption {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExporter creates an exporter writing into dir.
func NewExporter(dir string, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		dir:    dir,
		name:   DefaultFileName,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes img and returns the file path. When the default name is
// taken a timestamped name is used instead, with a counter appended if
// that is taken too. Existing files are never overwritten.
func (e *Exporter) Export(img image.Image) (string, error) {
	if img == nil {
		return "", errors.New("export: nil image")
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("export dir: %w", err)
	}

	path, f, err := e.create()
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	e.logger.Info("snapshot exported", zap.String("path", path))
	return path, nil
}

// maxNameAttempts bounds the counter suffixes tried for one timestamp.
const maxNameAttempts = 100

// create opens the first free name for a new export.
func (e *Exporter) create() (string, *os.File, error) {
	path := filepath.Join(e.dir, e.name)
	f, err := createNew(path)
	if !errors.Is(err, fs.ErrExist) {
		return path, f, err
	}

	ext := filepath.Ext(e.name)
	stamped := strings.TrimSuffix(e.name, ext) + "-" + e.now().Format("20060102-150405")
	for i := 1; i <= maxNameAttempts; i++ {
		name := stamped + ext
		if i > 1 {
			name = fmt.Sprintf("%s-%d%s", stamped, i, ext)
		}
		path = filepath.Join(e.dir, name)
		f, err = createNew(path)
		if !errors.Is(err, fs.ErrExist) {
			return path, f, err
		}
	}
	return "", nil, fmt.Errorf("no free name for %s: %w", stamped+ext, fs.ErrExist)
}

func createNew(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}
