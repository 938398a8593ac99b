//go:generate mockgen -destination mock_history/mock_history.go github.com/dshills/monsterlab/internal/history Adapter
package history

// Adapter is the drawing surface the store records and restores.
type Adapter interface {
	// Serialize returns a complete representation of the current surface.
	Serialize() (Snapshot, error)

	// Restore replaces the surface with snap. It may return before the
	// surface is updated, but must call done exactly once when it is
	// (or with an error when the snapshot could not be applied).
	Restore(snap Snapshot, done func(error))
}
