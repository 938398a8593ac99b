package canvas

import "errors"

// Common canvas errors.
var (
	// ErrObjectNotFound is returned when an object ID is not on the canvas.
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidObject is returned for malformed objects.
	ErrInvalidObject = errors.New("invalid object")

	// ErrCorruptSnapshot is reported when a snapshot cannot be decoded.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")

	// ErrInvalidColor is returned for colours that are not #rrggbb or #rgb.
	ErrInvalidColor = errors.New("invalid color")
)
