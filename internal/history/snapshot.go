package history

import "time"

// Snapshot is an immutable, complete serialized canvas state.
// The store never looks inside it.
type Snapshot struct {
	data  []byte
	taken time.Time
}

// NewSnapshot wraps a copy of data as a snapshot taken now.
func NewSnapshot(data []byte) Snapshot {
	cp := make([]byte, len(data))
	copy(cp, data)
	return Snapshot{data: cp, taken: time.Now()}
}

// Bytes returns a copy of the snapshot contents.
func (s Snapshot) Bytes() []byte {
	cp := make([]byte, len(s.data))
	copy(cp, s.data)
	return cp
}

// Len returns the size of the snapshot in bytes.
func (s Snapshot) Len() int {
	return len(s.data)
}

// IsZero reports whether the snapshot was never set.
func (s Snapshot) IsZero() bool {
	return s.data == nil && s.taken.IsZero()
}

// Taken returns when the snapshot was created.
func (s Snapshot) Taken() time.Time {
	return s.taken
}
