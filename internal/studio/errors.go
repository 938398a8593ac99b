package studio

import (
	"errors"
	"fmt"
)

// Session errors.
var (
	// ErrComponentNotAvailable indicates an optional component was not configured.
	ErrComponentNotAvailable = errors.New("component not available")

	// ErrNotDrawing indicates a stroke was drawn outside draw mode.
	ErrNotDrawing = errors.New("draw mode is off")

	// ErrEmptyCanvas indicates there is nothing to delete.
	ErrEmptyCanvas = errors.New("canvas is empty")
)

// OperationError records which session operation failed and on what.
type OperationError struct {
	Op     string // Operation name (e.g., "add", "undo", "export")
	Target string // Target of the operation (e.g., part asset, object id)
	Err    error  // Underlying error
}

func newOpError(op, target string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Op: op, Target: target, Err: err}
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
