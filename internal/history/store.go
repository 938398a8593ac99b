package history

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Store holds the snapshot sequence and cursor for one editing session.
// It is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	adapter Adapter

	entries []Snapshot
	step    int
	state   State

	// idle is closed whenever state is StateIdle.
	idle chan struct{}

	listeners map[int]func(Status)
	nextID    int

	// Configuration
	maxEntries int
	logger     *zap.Logger
	metrics    *metrics
}

// New creates a store recording snapshots from adapter.
// The store starts empty with step -1; callers capture the initial surface.
func New(adapter Adapter, opts ...Option) *Store {
	s := &Store{
		adapter:   adapter,
		step:      -1,
		idle:      closedChan(),
		listeners: make(map[int]func(Status)),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Capture appends the adapter's current snapshot after the cursor,
// discarding any redo branch. It is a silent no-op while a restore is pending.
func (s *Store) Capture() error {
	s.mu.Lock()

	if s.state == StateRestoring {
		s.mu.Unlock()
		s.metrics.inc(func(m *metrics) prometheus.Counter { return m.suppressed })
		s.logger.Debug("capture suppressed during restore")
		return nil
	}
	if s.adapter == nil {
		s.mu.Unlock()
		return ErrNoAdapter
	}

	// Serialize runs under the lock so a restore cannot begin between the
	// state check and the append.
	snap, err := s.adapter.Serialize()
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("capture failed", zap.Error(err))
		return err
	}

	if s.step < len(s.entries)-1 {
		pruned := len(s.entries) - 1 - s.step
		clear(s.entries[s.step+1:])
		s.entries = s.entries[:s.step+1]
		s.logger.Debug("redo branch pruned", zap.Int("dropped", pruned))
	}
	s.entries = append(s.entries, snap)
	s.step++

	if s.maxEntries > 0 && len(s.entries) > s.maxEntries {
		excess := len(s.entries) - s.maxEntries
		clear(s.entries[:excess])
		s.entries = s.entries[excess:]
		s.step -= excess
	}

	status, listeners := s.snapshotLocked()
	s.mu.Unlock()

	s.metrics.inc(func(m *metrics) prometheus.Counter { return m.captures })
	s.logger.Debug("captured",
		zap.Int("step", status.Step),
		zap.Int("len", status.Len),
		zap.Int("bytes", snap.Len()))
	notify(listeners, status)
	return nil
}

// Undo moves the cursor back one step and restores that snapshot.
// When there is nothing to undo the returned channel yields nil at once.
// Otherwise it yields the restore outcome once the adapter completes.
func (s *Store) Undo() (<-chan error, error) {
	return s.move(-1)
}

// Redo moves the cursor forward one step and restores that snapshot.
// It mirrors Undo.
func (s *Store) Redo() (<-chan error, error) {
	return s.move(1)
}

func (s *Store) move(delta int) (<-chan error, error) {
	s.mu.Lock()

	if s.state == StateRestoring {
		s.mu.Unlock()
		s.metrics.inc(func(m *metrics) prometheus.Counter { return m.rejected })
		return nil, ErrRestoreInProgress
	}

	from := s.step
	to := from + delta
	if to < 0 || to >= len(s.entries) || from < 0 {
		s.mu.Unlock()
		return resolved(nil), nil
	}

	s.state = StateRestoring
	s.idle = make(chan struct{})
	s.step = to
	snap := s.entries[to]
	status, listeners := s.snapshotLocked()
	s.mu.Unlock()

	if delta < 0 {
		s.metrics.inc(func(m *metrics) prometheus.Counter { return m.undos })
	} else {
		s.metrics.inc(func(m *metrics) prometheus.Counter { return m.redos })
	}
	s.logger.Debug("restore started", zap.Int("from", from), zap.Int("to", to))
	notify(listeners, status)

	result := make(chan error, 1)
	var once sync.Once
	s.adapter.Restore(snap, func(err error) {
		once.Do(func() {
			result <- s.finishRestore(from, to, err)
			close(result)
		})
	})
	return result, nil
}

// finishRestore returns the store to idle, rolling the cursor back on error.
func (s *Store) finishRestore(from, to int, err error) error {
	s.mu.Lock()
	if err != nil {
		s.step = from
		err = &RestoreError{From: from, To: to, Err: err}
	}
	s.state = StateIdle
	close(s.idle)
	status, listeners := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		s.metrics.inc(func(m *metrics) prometheus.Counter { return m.failures })
		s.logger.Warn("restore rolled back", zap.Error(err))
	} else {
		s.logger.Debug("restore completed", zap.Int("step", to))
	}
	notify(listeners, status)
	return err
}

// Reset discards every snapshot. It fails while a restore is pending.
func (s *Store) Reset() error {
	s.mu.Lock()
	if s.state == StateRestoring {
		s.mu.Unlock()
		return ErrRestoreInProgress
	}
	clear(s.entries)
	s.entries = nil
	s.step = -1
	status, listeners := s.snapshotLocked()
	s.mu.Unlock()

	notify(listeners, status)
	return nil
}

// WaitIdle blocks until no restore is pending or ctx is done.
func (s *Store) WaitIdle(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnChange registers fn to receive the status after every change.
// The returned function removes the listener.
func (s *Store) OnChange(fn func(Status)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// CanUndo returns true if undo is available.
func (s *Store) CanUndo() bool {
	return s.Status().CanUndo
}

// CanRedo returns true if redo is available.
func (s *Store) CanRedo() bool {
	return s.Status().CanRedo
}

// Len returns the number of snapshots held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Step returns the cursor, or -1 when the store is empty.
func (s *Store) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// State returns the restore state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns the current status.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Current returns the snapshot under the cursor.
func (s *Store) Current() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step < 0 {
		return Snapshot{}, false
	}
	return s.entries[s.step], true
}

func (s *Store) statusLocked() Status {
	idle := s.state == StateIdle
	return Status{
		Len:     len(s.entries),
		Step:    s.step,
		State:   s.state,
		CanUndo: idle && s.step > 0,
		CanRedo: idle && s.step < len(s.entries)-1,
	}
}

// snapshotLocked returns the status and a copy of the listeners so they can
// be called after the lock is released.
func (s *Store) snapshotLocked() (Status, []func(Status)) {
	listeners := make([]func(Status), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	return s.statusLocked(), listeners
}

func notify(listeners []func(Status), status Status) {
	for _, fn := range listeners {
		fn(status)
	}
}

func resolved(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	close(ch)
	return ch
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
