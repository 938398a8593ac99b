// Package inventory loads the catalogue of monster parts players drag onto
// the canvas.
//
// Parts live under an asset directory, one sub-directory per category:
//
//	assets/
//	  manifest.yaml   (optional)
//	  bodies/blob.png
//	  eyes/cyclops.png
//
// When manifest.yaml is present it lists the parts and their display names;
// otherwise every PNG in a category directory is a part.
package inventory

import (
	"errors"
	"fmt"
	"image"
	_ "image/png" // part images are PNG
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Categories in tab order.
var Categories = []string{"bodies", "eyes", "mouths", "accessories"}

// ManifestFile is the optional catalogue file at the asset root.
const ManifestFile = "manifest.yaml"

// EmptyMessage is shown for categories with no parts.
const EmptyMessage = "No parts discovered yet."

// Common inventory errors.
var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrPartNotFound    = errors.New("part not found")
)

// Part is one draggable asset.
type Part struct {
	Name     string `yaml:"name"`
	File     string `yaml:"file"`
	Category string `yaml:"-"`
}

// Asset returns the slash-separated reference stored on canvas objects.
func (p Part) Asset() string {
	return path.Join(p.Category, p.File)
}

// manifest is the on-disk catalogue format.
type manifest struct {
	Parts map[string][]Part `yaml:"parts"`
}

// Inventory is a loaded catalogue. It is safe for concurrent use.
type Inventory struct {
	mu     sync.RWMutex
	fsys   fs.FS
	parts  map[string][]Part
	images map[string]image.Image
	logger *zap.Logger
}

// Option configures an Inventory.
type Option func(*Inventory)

// WithLogger sets the inventory logger.
func WithLogger(l *zap.Logger) Option {
	return func(inv *Inventory) {
		if l != nil {
			inv.logger = l
		}
	}
}

// Load reads the catalogue from dir.
func Load(dir string, opts ...Option) (*Inventory, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("asset dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset dir %s: not a directory", dir)
	}
	return LoadFS(os.DirFS(dir), opts...)
}

// LoadFS reads the catalogue from fsys.
func LoadFS(fsys fs.FS, opts ...Option) (*Inventory, error) {
	inv := &Inventory{
		fsys:   fsys,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	if err := inv.Reload(); err != nil {
		return nil, err
	}
	return inv, nil
}

// Reload re-reads the catalogue and drops cached images.
func (inv *Inventory) Reload() error {
	parts, err := readCatalogue(inv.fsys)
	if err != nil {
		return err
	}

	inv.mu.Lock()
	inv.parts = parts
	inv.images = make(map[string]image.Image)
	inv.mu.Unlock()

	total := 0
	for _, ps := range parts {
		total += len(ps)
	}
	inv.logger.Info("inventory loaded", zap.Int("parts", total))
	return nil
}

func readCatalogue(fsys fs.FS) (map[string][]Part, error) {
	parts := make(map[string][]Part, len(Categories))

	data, err := fs.ReadFile(fsys, ManifestFile)
	switch {
	case err == nil:
		var m manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", ManifestFile, err)
		}
		for cat, ps := range m.Parts {
			if !slices.Contains(Categories, cat) {
				return nil, fmt.Errorf("%s: %w %q", ManifestFile, ErrUnknownCategory, cat)
			}
			for _, p := range ps {
				if p.File == "" {
					return nil, fmt.Errorf("%s: part %q in %s has no file", ManifestFile, p.Name, cat)
				}
				p.Category = cat
				if p.Name == "" {
					p.Name = displayName(p.File)
				}
				parts[cat] = append(parts[cat], p)
			}
		}
		return parts, nil
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading %s: %w", ManifestFile, err)
	}

	for _, cat := range Categories {
		entries, err := fs.ReadDir(fsys, cat)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", cat, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(path.Ext(e.Name()), ".png") {
				continue
			}
			parts[cat] = append(parts[cat], Part{
				Name:     displayName(e.Name()),
				File:     e.Name(),
				Category: cat,
			})
		}
	}
	return parts, nil
}

func displayName(file string) string {
	name := strings.TrimSuffix(path.Base(file), path.Ext(file))
	return strings.ReplaceAll(strings.ReplaceAll(name, "_", " "), "-", " ")
}

// Parts returns the parts of a category in catalogue order.
func (inv *Inventory) Parts(category string) ([]Part, error) {
	if !slices.Contains(Categories, category) {
		return nil, fmt.Errorf("%w %q", ErrUnknownCategory, category)
	}
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return slices.Clone(inv.parts[category]), nil
}

// Part returns the part at index i of a category.
func (inv *Inventory) Part(category string, i int) (Part, error) {
	parts, err := inv.Parts(category)
	if err != nil {
		return Part{}, err
	}
	if i < 0 || i >= len(parts) {
		return Part{}, fmt.Errorf("%w: %s #%d", ErrPartNotFound, category, i)
	}
	return parts[i], nil
}

// Image decodes and caches the PNG for an asset reference.
func (inv *Inventory) Image(asset string) (image.Image, error) {
	inv.mu.RLock()
	img, ok := inv.images[asset]
	inv.mu.RUnlock()
	if ok {
		return img, nil
	}

	f, err := inv.fsys.Open(asset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, asset)
	}
	defer f.Close()

	img, _, err = image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", asset, err)
	}

	inv.mu.Lock()
	inv.images[asset] = img
	inv.mu.Unlock()
	return img, nil
}
