// Package history provides linear undo/redo for the drawing canvas.
//
// The history keeps an ordered sequence of complete canvas snapshots and a
// cursor (the step) pointing at the snapshot the canvas currently shows.
// Snapshots are opaque to this package; they are produced and consumed by an
// Adapter, normally the canvas itself.
//
// # Capturing
//
// Every edit on the canvas is followed by a Capture. If the cursor is not at
// the end of the sequence, the redo branch is discarded before the new
// snapshot is appended:
//
//	store := history.New(canvas)
//	store.Capture() // initial empty canvas
//	// ... user adds a part ...
//	store.Capture()
//
// # Undo and Redo
//
// Undo and Redo move the cursor and ask the adapter to restore the snapshot at
// the new position. Restoring may complete asynchronously. While a restore is
// pending the store is in StateRestoring:
//
//   - Capture is a silent no-op, so change events the restore emits are not
//     recorded as new edits.
//   - Undo and Redo are rejected with ErrRestoreInProgress.
//
// The returned channel yields the restore outcome exactly once:
//
//	done, err := store.Undo()
//	if err != nil {
//	    return err // ErrRestoreInProgress
//	}
//	if err := <-done; err != nil {
//	    // *RestoreError; the cursor was rolled back
//	}
//
// # Affordances
//
// Listeners registered with OnChange receive a Status after every change,
// carrying CanUndo and CanRedo for enabling the undo/redo controls.
package history
