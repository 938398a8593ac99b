package history

// State is the store's restore state.
type State int

const (
	// StateIdle accepts captures, undo and redo.
	StateIdle State = iota
	// StateRestoring means an adapter restore is pending.
	StateRestoring
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRestoring:
		return "restoring"
	default:
		return "unknown"
	}
}

// Status is a point-in-time view of the store.
type Status struct {
	Len     int
	Step    int
	State   State
	CanUndo bool
	CanRedo bool
}
