package studio

import (
	"context"
	"image"

	"go.uber.org/zap"

	"github.com/dshills/monsterlab/internal/canvas"
	"github.com/dshills/monsterlab/internal/history"
	"github.com/dshills/monsterlab/internal/incubator"
	"github.com/dshills/monsterlab/internal/report"
)

// guard rejects canvas edits while a restore is pending.
func (s *Session) guard(op string) error {
	if s.history.State() == history.StateRestoring {
		return newOpError(op, "", history.ErrRestoreInProgress)
	}
	return nil
}

// AddPart places the part at index of category in the middle of the canvas.
func (s *Session) AddPart(ctx context.Context, category string, index int) (canvas.Object, error) {
	w, h := s.canvas.Size()
	return s.PlacePart(ctx, category, index, float64(w)/2, float64(h)/2)
}

// PlacePart places the part at index of category centred on (x, y).
func (s *Session) PlacePart(ctx context.Context, category string, index int, x, y float64) (canvas.Object, error) {
	if err := s.guard("add"); err != nil {
		return canvas.Object{}, err
	}
	if s.inventory == nil {
		return canvas.Object{}, newOpError("add", category, ErrComponentNotAvailable)
	}
	part, err := s.inventory.Part(category, index)
	if err != nil {
		return canvas.Object{}, newOpError("add", category, err)
	}
	obj, err := s.canvas.AddImage(ctx, part.Category, part.Asset(), x, y)
	if err != nil {
		return canvas.Object{}, newOpError("add", part.Asset(), err)
	}
	return obj, nil
}

// Draw adds a freehand stroke with the current brush. Draw mode must be on.
func (s *Session) Draw(ctx context.Context, points []canvas.Point) (canvas.Object, error) {
	if !s.canvas.DrawMode() {
		return canvas.Object{}, newOpError("draw", "", ErrNotDrawing)
	}
	if err := s.guard("draw"); err != nil {
		return canvas.Object{}, err
	}
	obj, err := s.canvas.AddPath(ctx, points)
	if err != nil {
		return canvas.Object{}, newOpError("draw", "", err)
	}
	return obj, nil
}

// Move shifts an object by (dx, dy).
func (s *Session) Move(ctx context.Context, id string, dx, dy float64) (canvas.Object, error) {
	if err := s.guard("move"); err != nil {
		return canvas.Object{}, err
	}
	obj, err := s.canvas.Move(ctx, id, dx, dy)
	if err != nil {
		return canvas.Object{}, newOpError("move", id, err)
	}
	return obj, nil
}

// Delete removes an object.
func (s *Session) Delete(ctx context.Context, id string) error {
	if err := s.guard("delete"); err != nil {
		return err
	}
	return newOpError("delete", id, s.canvas.Remove(ctx, id))
}

// DeleteTop removes the most recently placed object.
func (s *Session) DeleteTop(ctx context.Context) error {
	if err := s.guard("delete"); err != nil {
		return err
	}
	top, ok := s.canvas.Top()
	if !ok {
		return newOpError("delete", "", ErrEmptyCanvas)
	}
	return s.Delete(ctx, top.ID)
}

// Clear empties the canvas and records the cleared state.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.guard("clear"); err != nil {
		return err
	}
	s.canvas.Clear(ctx)
	return newOpError("clear", "", s.history.Capture())
}

// Undo restores the previous snapshot and waits for the canvas to finish.
// With nothing to undo it returns nil without touching the canvas.
func (s *Session) Undo(ctx context.Context) error {
	done, err := s.history.Undo()
	return s.await(ctx, "undo", done, err)
}

// Redo restores the next snapshot and waits for the canvas to finish.
func (s *Session) Redo(ctx context.Context) error {
	done, err := s.history.Redo()
	return s.await(ctx, "redo", done, err)
}

func (s *Session) await(ctx context.Context, op string, done <-chan error, err error) error {
	if err != nil {
		return newOpError(op, "", err)
	}
	select {
	case err := <-done:
		return newOpError(op, "", err)
	case <-ctx.Done():
		return newOpError(op, "", ctx.Err())
	}
}

// SetDrawMode switches between placing parts and freehand drawing.
func (s *Session) SetDrawMode(on bool) {
	s.canvas.SetDrawMode(on)
}

// SetBrushColor changes the stroke colour for new drawings.
func (s *Session) SetBrushColor(hex string) error {
	b := s.canvas.Brush()
	b.Color = hex
	return newOpError("brush", hex, s.canvas.SetBrush(b))
}

// Incubate turns word into a -ness noun and records both in the notes.
func (s *Session) Incubate(ctx context.Context, word string) (incubator.Result, error) {
	res, err := s.incubator.Incubate(ctx, word)
	if err != nil {
		return incubator.Result{}, newOpError("incubate", word, err)
	}
	s.updateNotes(ctx, func(n *report.FieldNotes) {
		n.Adjective = res.Adjective
		n.Noun = res.Noun
	})
	return res, nil
}

// SetAdverb sets how the beast waits.
func (s *Session) SetAdverb(ctx context.Context, adverb string) {
	s.updateNotes(ctx, func(n *report.FieldNotes) { n.Adverb = adverb })
}

// SetPreposition sets where the beast waits.
func (s *Session) SetPreposition(ctx context.Context, prep string) {
	s.updateNotes(ctx, func(n *report.FieldNotes) { n.Preposition = prep })
}

// Notes returns the current field notes.
func (s *Session) Notes() report.FieldNotes {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notes
}

func (s *Session) updateNotes(ctx context.Context, fn func(*report.FieldNotes)) {
	s.mu.Lock()
	fn(&s.notes)
	notes := s.notes
	s.mu.Unlock()
	s.publish(ctx, TopicNotesChanged, notes)
}

// Render draws the canvas alone.
func (s *Session) Render() *image.RGBA {
	if s.inventory == nil {
		return s.canvas.Render(nil)
	}
	return s.canvas.Render(s.inventory)
}

// Page renders the canvas with the field notes footer.
func (s *Session) Page() *image.RGBA {
	return report.Composite(s.Render(), s.Notes())
}

// Screenshot exports the page and returns the written path.
func (s *Session) Screenshot(ctx context.Context) (string, error) {
	if s.exporter == nil {
		return "", newOpError("export", "", ErrComponentNotAvailable)
	}
	path, err := s.exporter.Export(s.Page())
	if err != nil {
		return "", newOpError("export", "", err)
	}
	s.logger.Info("screenshot saved", zap.String("path", path))
	s.publish(ctx, TopicExported, path)
	return path, nil
}
