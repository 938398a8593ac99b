package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSurface is an in-memory Adapter whose content is a plain string.
type fakeSurface struct {
	mu       sync.Mutex
	content  string
	restored []string
	async    bool
	pending  []func()
	failNext error
	onApply  func()
}

func (f *fakeSurface) Serialize() (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return NewSnapshot([]byte(f.content)), nil
}

func (f *fakeSurface) Restore(snap Snapshot, done func(error)) {
	apply := func() {
		f.mu.Lock()
		if f.failNext != nil {
			err := f.failNext
			f.failNext = nil
			f.mu.Unlock()
			done(err)
			return
		}
		f.content = string(snap.Bytes())
		f.restored = append(f.restored, f.content)
		hook := f.onApply
		f.mu.Unlock()

		if hook != nil {
			hook()
		}
		done(nil)
	}

	if f.async {
		f.mu.Lock()
		f.pending = append(f.pending, apply)
		f.mu.Unlock()
		return
	}
	apply()
}

func (f *fakeSurface) set(content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content = content
}

func (f *fakeSurface) get() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.content
}

// complete runs the oldest pending asynchronous restore.
func (f *fakeSurface) complete(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	require.NotEmpty(t, f.pending, "no pending restore")
	apply := f.pending[0]
	f.pending = f.pending[1:]
	f.mu.Unlock()
	apply()
}

// newTestStore returns a store with the initial empty surface captured.
func newTestStore(t *testing.T, opts ...Option) (*Store, *fakeSurface) {
	t.Helper()
	surface := &fakeSurface{}
	store := New(surface, opts...)
	require.NoError(t, store.Capture())
	return store, surface
}

// edit changes the surface and records it, like a user edit would.
func edit(t *testing.T, store *Store, surface *fakeSurface, content string) {
	t.Helper()
	surface.set(content)
	require.NoError(t, store.Capture())
}

func await(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(time.Second):
		t.Fatal("restore did not complete")
		return nil
	}
}

func TestStoreInitialState(t *testing.T) {
	store, _ := newTestStore(t)

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 0, store.Step())
	assert.False(t, store.CanUndo())
	assert.False(t, store.CanRedo())
	assert.Equal(t, StateIdle, store.State())
}

func TestStoreEmpty(t *testing.T) {
	store := New(&fakeSurface{})

	assert.Equal(t, 0, store.Len())
	assert.Equal(t, -1, store.Step())
	_, ok := store.Current()
	assert.False(t, ok)

	done, err := store.Undo()
	require.NoError(t, err)
	assert.NoError(t, await(t, done))

	done, err = store.Redo()
	require.NoError(t, err)
	assert.NoError(t, await(t, done))
	assert.Equal(t, -1, store.Step())
}

func TestStoreLinearGrowth(t *testing.T) {
	for _, n := range []int{1, 2, 5, 20} {
		surface := &fakeSurface{}
		store := New(surface)
		for i := 0; i < n; i++ {
			require.NoError(t, store.Capture())
		}
		assert.Equal(t, n, store.Len(), "n=%d", n)
		assert.Equal(t, n-1, store.Step(), "n=%d", n)
	}
}

func TestStoreNoDeduplication(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Capture())
	require.NoError(t, store.Capture())

	assert.Equal(t, 3, store.Len())
	assert.Equal(t, 2, store.Step())
}

func TestStoreUndoRedoRoundTrip(t *testing.T) {
	store, surface := newTestStore(t)
	edit(t, store, surface, "body")
	edit(t, store, surface, "body+eyes")

	done, err := store.Undo()
	require.NoError(t, err)
	require.NoError(t, await(t, done))
	assert.Equal(t, 1, store.Step())
	assert.Equal(t, "body", surface.get())
	assert.True(t, store.CanRedo())

	done, err = store.Redo()
	require.NoError(t, err)
	require.NoError(t, await(t, done))
	assert.Equal(t, 2, store.Step())
	assert.Equal(t, "body+eyes", surface.get())
	assert.Equal(t, []string{"body", "body+eyes"}, surface.restored)
	assert.Equal(t, 3, store.Len())
}

func TestStoreBranchPruning(t *testing.T) {
	store, surface := newTestStore(t)
	for _, c := range []string{"a", "ab", "abc", "abcd"} {
		edit(t, store, surface, c)
	}
	require.Equal(t, 5, store.Len())
	require.Equal(t, 4, store.Step())

	for i := 0; i < 2; i++ {
		done, err := store.Undo()
		require.NoError(t, err)
		require.NoError(t, await(t, done))
	}
	require.Equal(t, 2, store.Step())

	edit(t, store, surface, "abX")

	assert.Equal(t, 4, store.Len())
	assert.Equal(t, 3, store.Step())
	assert.False(t, store.CanRedo())

	cur, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, "abX", string(cur.Bytes()))
}

func TestStoreNoOpGuards(t *testing.T) {
	store, surface := newTestStore(t)

	done, err := store.Undo()
	require.NoError(t, err)
	assert.NoError(t, await(t, done))
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 0, store.Step())

	edit(t, store, surface, "a")
	done, err = store.Redo()
	require.NoError(t, err)
	assert.NoError(t, await(t, done))
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 1, store.Step())
	assert.Empty(t, surface.restored)
}

func TestStoreSuppressCaptureDuringRestore(t *testing.T) {
	surface := &fakeSurface{async: true}
	store := New(surface)
	require.NoError(t, store.Capture())
	edit(t, store, surface, "a")
	edit(t, store, surface, "ab")

	// The restore emits a change event before completing, like a canvas
	// re-adding its objects.
	surface.onApply = func() {
		assert.NoError(t, store.Capture())
	}

	done, err := store.Undo()
	require.NoError(t, err)
	assert.Equal(t, StateRestoring, store.State())

	// Captures between the call and completion are ignored too.
	require.NoError(t, store.Capture())
	assert.Equal(t, 3, store.Len())

	surface.complete(t)
	require.NoError(t, await(t, done))

	assert.Equal(t, 3, store.Len())
	assert.Equal(t, 1, store.Step())
	assert.Equal(t, StateIdle, store.State())
}

func TestStoreRejectsWhileRestoring(t *testing.T) {
	surface := &fakeSurface{async: true}
	store := New(surface)
	require.NoError(t, store.Capture())
	edit(t, store, surface, "a")
	edit(t, store, surface, "ab")

	done, err := store.Undo()
	require.NoError(t, err)

	_, err = store.Undo()
	assert.ErrorIs(t, err, ErrRestoreInProgress)
	_, err = store.Redo()
	assert.ErrorIs(t, err, ErrRestoreInProgress)
	assert.ErrorIs(t, store.Reset(), ErrRestoreInProgress)

	status := store.Status()
	assert.False(t, status.CanUndo)
	assert.False(t, status.CanRedo)

	surface.complete(t)
	require.NoError(t, await(t, done))
	assert.Equal(t, 1, store.Step())
	assert.True(t, store.CanUndo())
}

func TestStoreRestoreFailureRollsBack(t *testing.T) {
	store, surface := newTestStore(t)
	edit(t, store, surface, "a")
	edit(t, store, surface, "ab")

	boom := errors.New("corrupt snapshot")
	surface.failNext = boom

	done, err := store.Undo()
	require.NoError(t, err)
	err = await(t, done)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRestoreFailed)
	assert.ErrorIs(t, err, boom)
	var rerr *RestoreError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 2, rerr.From)
	assert.Equal(t, 1, rerr.To)

	assert.Equal(t, 2, store.Step())
	assert.Equal(t, 3, store.Len())
	assert.Equal(t, StateIdle, store.State())

	// Captures work again after the failed restore.
	edit(t, store, surface, "abc")
	assert.Equal(t, 4, store.Len())
}

func TestStoreDoneCalledTwice(t *testing.T) {
	adapter := &doubleDone{}
	store := New(adapter)
	require.NoError(t, store.Capture())
	require.NoError(t, store.Capture())

	done, err := store.Undo()
	require.NoError(t, err)
	assert.NoError(t, await(t, done))
	assert.Equal(t, 0, store.Step())
}

type doubleDone struct{}

func (doubleDone) Serialize() (Snapshot, error) { return NewSnapshot(nil), nil }

func (doubleDone) Restore(_ Snapshot, done func(error)) {
	done(nil)
	done(errors.New("late"))
}

func TestStoreSerializeError(t *testing.T) {
	store := New(failingSerializer{})
	err := store.Capture()
	assert.EqualError(t, err, "serialize")
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, -1, store.Step())
}

type failingSerializer struct{}

func (failingSerializer) Serialize() (Snapshot, error) { return Snapshot{}, errors.New("serialize") }

func (failingSerializer) Restore(_ Snapshot, done func(error)) { done(nil) }

func TestStoreNoAdapter(t *testing.T) {
	store := New(nil)
	assert.ErrorIs(t, store.Capture(), ErrNoAdapter)
}

func TestStoreMaxEntries(t *testing.T) {
	store, surface := newTestStore(t, WithMaxEntries(3))
	for _, c := range []string{"a", "ab", "abc", "abcd"} {
		edit(t, store, surface, c)
	}

	assert.Equal(t, 3, store.Len())
	assert.Equal(t, 2, store.Step())

	for i := 0; i < 2; i++ {
		done, err := store.Undo()
		require.NoError(t, err)
		require.NoError(t, await(t, done))
	}
	assert.Equal(t, "ab", surface.get())
	assert.False(t, store.CanUndo())
}

func TestStoreOnChange(t *testing.T) {
	store, surface := newTestStore(t)

	var got []Status
	cancel := store.OnChange(func(s Status) {
		got = append(got, s)
	})

	edit(t, store, surface, "a")
	done, err := store.Undo()
	require.NoError(t, err)
	require.NoError(t, await(t, done))

	require.Len(t, got, 3)
	assert.Equal(t, Status{Len: 2, Step: 1, State: StateIdle, CanUndo: true}, got[0])
	assert.Equal(t, Status{Len: 2, Step: 0, State: StateRestoring}, got[1])
	assert.Equal(t, Status{Len: 2, Step: 0, State: StateIdle, CanRedo: true}, got[2])

	cancel()
	edit(t, store, surface, "b")
	assert.Len(t, got, 3)
}

func TestStoreReset(t *testing.T) {
	store, surface := newTestStore(t)
	edit(t, store, surface, "a")

	require.NoError(t, store.Reset())
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, -1, store.Step())
	assert.False(t, store.CanUndo())

	require.NoError(t, store.Capture())
	assert.Equal(t, 0, store.Step())
}

func TestStoreWaitIdle(t *testing.T) {
	surface := &fakeSurface{async: true}
	store := New(surface)
	require.NoError(t, store.Capture())
	edit(t, store, surface, "a")

	require.NoError(t, store.WaitIdle(context.Background()))

	_, err := store.Undo()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, store.WaitIdle(ctx), context.DeadlineExceeded)

	go surface.complete(t)

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	assert.NoError(t, store.WaitIdle(ctx2))
}

func TestStoreMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	surface := &fakeSurface{async: true}
	store := New(surface, WithPrometheus(reg, "monsterlab", ""))

	require.NoError(t, store.Capture())
	edit(t, store, surface, "a")

	_, err := store.Undo()
	require.NoError(t, err)
	require.NoError(t, store.Capture())
	_, err = store.Redo()
	require.ErrorIs(t, err, ErrRestoreInProgress)
	surface.complete(t)

	assert.Equal(t, 2.0, testutil.ToFloat64(store.metrics.captures))
	assert.Equal(t, 1.0, testutil.ToFloat64(store.metrics.suppressed))
	assert.Equal(t, 1.0, testutil.ToFloat64(store.metrics.undos))
	assert.Equal(t, 1.0, testutil.ToFloat64(store.metrics.rejected))
	assert.Equal(t, 2.0, testutil.ToFloat64(store.metrics.length))
}

func TestWithPrometheusNilRegistry(t *testing.T) {
	assert.Nil(t, WithPrometheus(nil, "x", "y"))
	store := New(&fakeSurface{}, WithPrometheus(nil, "x", "y"))
	assert.NoError(t, store.Capture())
}

func TestSnapshotCopies(t *testing.T) {
	data := []byte("abc")
	snap := NewSnapshot(data)
	data[0] = 'x'
	assert.Equal(t, "abc", string(snap.Bytes()))

	out := snap.Bytes()
	out[0] = 'y'
	assert.Equal(t, "abc", string(snap.Bytes()))
	assert.Equal(t, 3, snap.Len())
	assert.False(t, snap.IsZero())
	assert.False(t, snap.Taken().IsZero())
	assert.True(t, Snapshot{}.IsZero())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "restoring", StateRestoring.String())
	assert.Equal(t, "unknown", State(9).String())
}
