package history

import (
	"errors"
	"fmt"
)

// Common errors for history operations.
var (
	// ErrRestoreInProgress is returned by Undo and Redo while a previous
	// restore has not completed.
	ErrRestoreInProgress = errors.New("restore in progress")

	// ErrRestoreFailed matches every RestoreError.
	ErrRestoreFailed = errors.New("restore failed")

	// ErrNoAdapter is returned when the store was built without an adapter.
	ErrNoAdapter = errors.New("history has no adapter")
)

// RestoreError reports an adapter failure while moving the cursor from one
// step to another. The cursor is left at From.
type RestoreError struct {
	From int
	To   int
	Err  error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("restore step %d -> %d: %v", e.From, e.To, e.Err)
}

func (e *RestoreError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrRestoreFailed.
func (e *RestoreError) Is(target error) bool {
	return target == ErrRestoreFailed
}
