package canvas

import (
	"fmt"
	"strings"
)

// Kind identifies the type of a canvas object.
type Kind string

const (
	// KindImage is a part placed from the inventory.
	KindImage Kind = "image"
	// KindPath is a free-hand brush stroke.
	KindPath Kind = "path"
)

// Point is a position on the canvas in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Brush is the free-hand drawing tool.
type Brush struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

// Object is one element of the drawing.
type Object struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	// Image parts.
	Category string  `json:"category,omitempty"`
	Asset    string  `json:"asset,omitempty"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	Size     float64 `json:"size,omitempty"` // displayed width

	// Brush strokes.
	Points []Point `json:"points,omitempty"`
	Color  string  `json:"color,omitempty"`
	Width  float64 `json:"width,omitempty"`
}

// Clone returns a deep copy of the object.
func (o Object) Clone() Object {
	if o.Points != nil {
		pts := make([]Point, len(o.Points))
		copy(pts, o.Points)
		o.Points = pts
	}
	return o
}

// Validate checks that the object is well formed.
func (o Object) Validate() error {
	switch o.Kind {
	case KindImage:
		if o.Asset == "" {
			return fmt.Errorf("%w: image without asset", ErrInvalidObject)
		}
		if o.Size <= 0 {
			return fmt.Errorf("%w: image size %v", ErrInvalidObject, o.Size)
		}
	case KindPath:
		if len(o.Points) == 0 {
			return fmt.Errorf("%w: empty stroke", ErrInvalidObject)
		}
		if o.Width <= 0 {
			return fmt.Errorf("%w: stroke width %v", ErrInvalidObject, o.Width)
		}
		if _, err := ParseColor(o.Color); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidObject, err)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidObject, o.Kind)
	}
	return nil
}

// PartSize returns the display width a part of the given category is placed
// at. Bodies are large, facial features small.
func PartSize(category string) float64 {
	switch strings.ToLower(category) {
	case "bodies":
		return 300
	case "eyes", "mouths":
		return 100
	default:
		return 150
	}
}
