package studio

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/monsterlab/internal/canvas"
	"github.com/dshills/monsterlab/internal/event"
	"github.com/dshills/monsterlab/internal/history"
	"github.com/dshills/monsterlab/internal/inventory"
	"github.com/dshills/monsterlab/internal/report"
)

func partPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()
	inv, err := inventory.LoadFS(fstest.MapFS{
		"bodies/blob.png": {Data: partPNG(t, color.RGBA{G: 0xff, A: 0xff})},
		"eyes/one.png":    {Data: partPNG(t, color.RGBA{B: 0xff, A: 0xff})},
	})
	require.NoError(t, err)
	opts.Inventory = inv

	s, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

type statusLog struct {
	mu       sync.Mutex
	statuses []history.Status
}

func (l *statusLog) record(_ context.Context, st history.Status) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses = append(l.statuses, st)
	return nil
}

func (l *statusLog) last() history.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.statuses[len(l.statuses)-1]
}

func TestSessionStartsWithEmptySnapshot(t *testing.T) {
	s := newTestSession(t, Options{})
	st := s.Status()
	assert.Equal(t, 1, st.Len)
	assert.Equal(t, 0, st.Step)
	assert.False(t, st.CanUndo)
	assert.False(t, st.CanRedo)
}

func TestSessionUndoRedoThroughCanvas(t *testing.T) {
	s := newTestSession(t, Options{})
	ctx := context.Background()

	body, err := s.AddPart(ctx, "bodies", 0)
	require.NoError(t, err)
	assert.Equal(t, "bodies/blob.png", body.Asset)
	assert.Equal(t, 300.0, body.X)

	_, err = s.Move(ctx, body.ID, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Status().Len)

	// The restore re-announces the body; no capture may result.
	require.NoError(t, s.Undo(ctx))
	assert.Equal(t, history.Status{Len: 3, Step: 1, State: history.StateIdle, CanUndo: true, CanRedo: true}, s.Status())
	got, ok := s.Canvas().Get(body.ID)
	require.True(t, ok)
	assert.Equal(t, 300.0, got.X)

	require.NoError(t, s.Undo(ctx))
	assert.Equal(t, 0, s.Canvas().Len())
	assert.Equal(t, 3, s.Status().Len)

	require.NoError(t, s.Redo(ctx))
	assert.Equal(t, 1, s.Canvas().Len())
	assert.Equal(t, 1, s.History().Step())

	// A new change prunes the redo branch.
	_, err = s.AddPart(ctx, "eyes", 0)
	require.NoError(t, err)
	st := s.Status()
	assert.Equal(t, 3, st.Len)
	assert.Equal(t, 2, st.Step)
	assert.False(t, st.CanRedo)

	// Redo at the end is a no-op.
	require.NoError(t, s.Redo(ctx))
	assert.Equal(t, 2, s.History().Step())
}

func TestSessionPublishesHistoryChanges(t *testing.T) {
	s := newTestSession(t, Options{})
	ctx := context.Background()

	log := &statusLog{}
	_, err := event.SubscribePayload(s.Bus(), TopicHistoryChanged, log.record)
	require.NoError(t, err)

	_, err = s.AddPart(ctx, "bodies", 0)
	require.NoError(t, err)
	assert.True(t, log.last().CanUndo)

	require.NoError(t, s.Undo(ctx))
	last := log.last()
	assert.Equal(t, history.StateIdle, last.State)
	assert.False(t, last.CanUndo)
	assert.True(t, last.CanRedo)

	// While restoring, both buttons are disabled.
	var sawRestoring bool
	log.mu.Lock()
	for _, st := range log.statuses {
		if st.State == history.StateRestoring {
			sawRestoring = true
			assert.False(t, st.CanUndo)
			assert.False(t, st.CanRedo)
		}
	}
	log.mu.Unlock()
	assert.True(t, sawRestoring)
}

func TestSessionClear(t *testing.T) {
	s := newTestSession(t, Options{})
	ctx := context.Background()

	_, err := s.AddPart(ctx, "bodies", 0)
	require.NoError(t, err)
	_, err = s.AddPart(ctx, "eyes", 0)
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, 0, s.Canvas().Len())
	assert.Equal(t, 4, s.Status().Len)

	require.NoError(t, s.Undo(ctx))
	assert.Equal(t, 2, s.Canvas().Len())
}

func TestSessionRejectsEditsDuringRestore(t *testing.T) {
	s := newTestSession(t, Options{})
	ctx := context.Background()

	body, err := s.AddPart(ctx, "bodies", 0)
	require.NoError(t, err)
	_, err = s.AddPart(ctx, "eyes", 0)
	require.NoError(t, err)
	s.SetDrawMode(true)

	// Edits attempted while the canvas is still restoring.
	var (
		mu   sync.Mutex
		errs = map[string]error{}
	)
	_, err = s.Bus().Subscribe(canvas.TopicRestored, func(ctx context.Context, _ any) error {
		mu.Lock()
		defer mu.Unlock()
		_, errs["add"] = s.AddPart(ctx, "eyes", 0)
		_, errs["move"] = s.Move(ctx, body.ID, 40, 0)
		_, errs["draw"] = s.Draw(ctx, []canvas.Point{{X: 1, Y: 1}, {X: 5, Y: 5}})
		errs["delete"] = s.Delete(ctx, body.ID)
		errs["deleteTop"] = s.DeleteTop(ctx)
		errs["clear"] = s.Clear(ctx)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, s.Undo(ctx))

	mu.Lock()
	require.Len(t, errs, 6)
	for op, err := range errs {
		assert.ErrorIs(t, err, history.ErrRestoreInProgress, op)
	}
	mu.Unlock()

	// The canvas still matches the snapshot under the cursor.
	assert.Equal(t, history.Status{Len: 3, Step: 1, State: history.StateIdle, CanUndo: true, CanRedo: true}, s.Status())
	objs := s.Canvas().Objects()
	require.Len(t, objs, 1)
	assert.Equal(t, body.ID, objs[0].ID)
	assert.Equal(t, body.X, objs[0].X)

	current, ok := s.History().Current()
	require.True(t, ok)
	onCanvas, err := s.Canvas().Serialize()
	require.NoError(t, err)
	assert.JSONEq(t, string(current.Bytes()), string(onCanvas.Bytes()))
}

func TestSessionDrawAndDelete(t *testing.T) {
	s := newTestSession(t, Options{})
	ctx := context.Background()

	_, err := s.Draw(ctx, []canvas.Point{{X: 1, Y: 1}, {X: 5, Y: 5}})
	assert.ErrorIs(t, err, ErrNotDrawing)

	s.SetDrawMode(true)
	require.NoError(t, s.SetBrushColor("#ff4081"))
	stroke, err := s.Draw(ctx, []canvas.Point{{X: 1, Y: 1}, {X: 5, Y: 5}})
	require.NoError(t, err)
	assert.Equal(t, "#ff4081", stroke.Color)

	assert.Error(t, s.SetBrushColor("pink"))

	require.NoError(t, s.DeleteTop(ctx))
	assert.Equal(t, 0, s.Canvas().Len())
	assert.ErrorIs(t, s.DeleteTop(ctx), ErrEmptyCanvas)

	err = s.Delete(ctx, "missing")
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "delete", opErr.Op)
	assert.Equal(t, "missing", opErr.Target)
	assert.ErrorIs(t, err, canvas.ErrObjectNotFound)
}

func TestSessionPartErrors(t *testing.T) {
	s := newTestSession(t, Options{})
	ctx := context.Background()

	_, err := s.AddPart(ctx, "mouths", 0)
	assert.ErrorIs(t, err, inventory.ErrPartNotFound)
	_, err = s.AddPart(ctx, "tails", 0)
	assert.ErrorIs(t, err, inventory.ErrUnknownCategory)

	bare, err := New(Options{})
	require.NoError(t, err)
	defer bare.Close()
	_, err = bare.AddPart(ctx, "bodies", 0)
	assert.ErrorIs(t, err, ErrComponentNotAvailable)
	_, err = bare.Screenshot(ctx)
	assert.ErrorIs(t, err, ErrComponentNotAvailable)
}

func TestSessionNotes(t *testing.T) {
	s := newTestSession(t, Options{})
	ctx := context.Background()

	var got []report.FieldNotes
	_, err := event.SubscribePayload(s.Bus(), TopicNotesChanged, func(_ context.Context, n report.FieldNotes) error {
		got = append(got, n)
		return nil
	})
	require.NoError(t, err)

	res, err := s.Incubate(ctx, "Gloomy")
	require.NoError(t, err)
	assert.True(t, res.Offline)
	s.SetAdverb(ctx, "patiently")
	s.SetPreposition(ctx, "Behind the door")

	assert.Equal(t, report.FieldNotes{
		Adjective:   "Gloomy",
		Noun:        "gloominess",
		Adverb:      "patiently",
		Preposition: "Behind the door",
	}, s.Notes())
	assert.Len(t, got, 3)

	_, err = s.Incubate(ctx, "")
	assert.Error(t, err)
	assert.Equal(t, "Gloomy", s.Notes().Adjective)
}

func TestSessionScreenshot(t *testing.T) {
	dir := t.TempDir()
	s := newTestSession(t, Options{Exporter: report.NewExporter(dir)})
	ctx := context.Background()

	_, err := s.AddPart(ctx, "bodies", 0)
	require.NoError(t, err)

	page := s.Page()
	assert.Equal(t, image.Rect(0, 0, report.PageWidth, report.PageHeight), page.Bounds())
	// The body is green and centred on the canvas.
	centre := page.RGBAAt(300, 250)
	assert.Greater(t, centre.G, uint8(0xf0))
	assert.Less(t, centre.R, uint8(0x10))

	path, err := s.Screenshot(ctx)
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSessionMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := newTestSession(t, Options{Registry: reg, Namespace: "monsterlab"})
	ctx := context.Background()

	_, err := s.AddPart(ctx, "bodies", 0)
	require.NoError(t, err)
	require.NoError(t, s.Undo(ctx))

	n, err := testutil.GatherAndCount(reg, "monsterlab_history_captures", "monsterlab_history_suppressed")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = testutil.GatherAndCount(reg, "monsterlab_history_undos")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSessionMaxEntries(t *testing.T) {
	s := newTestSession(t, Options{MaxEntries: 2})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.AddPart(ctx, "eyes", 0)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, s.Status().Len)
	require.NoError(t, s.Undo(ctx))
	assert.Equal(t, 2, s.Canvas().Len())
	require.NoError(t, s.Undo(ctx))
	assert.Equal(t, 2, s.Canvas().Len())
}

func TestSessionInventoryReloaded(t *testing.T) {
	s := newTestSession(t, Options{})

	var got []string
	_, err := event.SubscribePayload(s.Bus(), TopicInventoryChanged, func(_ context.Context, msg string) error {
		got = append(got, msg)
		return nil
	})
	require.NoError(t, err)

	s.InventoryReloaded(context.Background(), nil)
	s.InventoryReloaded(context.Background(), inventory.ErrUnknownCategory)
	assert.Equal(t, []string{"", "unknown category"}, got)
}
