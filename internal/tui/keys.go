package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/monsterlab/internal/canvas"
	"github.com/dshills/monsterlab/internal/history"
	"github.com/dshills/monsterlab/internal/incubator"
	"github.com/dshills/monsterlab/internal/inventory"
)

func (ui *UI) handleKey(ctx context.Context, ev *tcell.EventKey) error {
	if ev.Key() == tcell.KeyCtrlC {
		return ErrQuit
	}
	if ui.prompt != promptNone {
		ui.handlePromptKey(ctx, ev)
		return nil
	}

	ui.message = ""
	drawing := ui.session.Canvas().DrawMode()

	switch ev.Key() {
	case tcell.KeyTab:
		ui.tab = (ui.tab + 1) % len(inventory.Categories)
		ui.sel = 0
	case tcell.KeyBacktab:
		ui.tab = (ui.tab + len(inventory.Categories) - 1) % len(inventory.Categories)
		ui.sel = 0
	case tcell.KeyUp:
		if ui.placing || drawing {
			ui.moveCursor(0, -cursorStep)
		} else if ui.sel > 0 {
			ui.sel--
		}
	case tcell.KeyDown:
		if ui.placing || drawing {
			ui.moveCursor(0, cursorStep)
		} else if ui.sel < len(ui.parts())-1 {
			ui.sel++
		}
	case tcell.KeyLeft:
		if ui.placing || drawing {
			ui.moveCursor(-cursorStep, 0)
		}
	case tcell.KeyRight:
		if ui.placing || drawing {
			ui.moveCursor(cursorStep, 0)
		}
	case tcell.KeyEnter:
		ui.enter(ctx)
	case tcell.KeyEscape:
		ui.placing = false
		ui.stroke = nil
	case tcell.KeyRune:
		return ui.handleRune(ctx, ev.Rune())
	}
	return nil
}

func (ui *UI) enter(ctx context.Context) {
	switch {
	case ui.session.Canvas().DrawMode():
		ui.commitStroke(ctx)
	case ui.placing:
		ui.placing = false
		if _, err := ui.session.PlacePart(ctx, ui.category(), ui.sel, ui.cursor.X, ui.cursor.Y); err != nil {
			ui.fail(err)
		}
	case len(ui.parts()) == 0:
		ui.message = inventory.EmptyMessage
	default:
		ui.placing = true
		ui.resetCursor()
	}
}

func (ui *UI) commitStroke(ctx context.Context) {
	stroke := ui.stroke
	ui.stroke = []canvas.Point{ui.cursor}
	if len(stroke) < 2 {
		return
	}
	if _, err := ui.session.Draw(ctx, stroke); err != nil {
		ui.fail(err)
	}
}

func (ui *UI) handleRune(ctx context.Context, r rune) error {
	switch r {
	case 'q':
		return ErrQuit
	case 'd':
		on := !ui.session.Canvas().DrawMode()
		ui.session.SetDrawMode(on)
		ui.placing = false
		ui.stroke = nil
		if on {
			ui.resetCursor()
			ui.stroke = []canvas.Point{ui.cursor}
		}
	case 'b':
		ui.brush = (ui.brush + 1) % len(brushPalette)
		if err := ui.session.SetBrushColor(brushPalette[ui.brush]); err != nil {
			ui.fail(err)
		}
	case 'u':
		ui.step(ctx, "undo")
	case 'r':
		ui.step(ctx, "redo")
	case 'x':
		if err := ui.session.DeleteTop(ctx); err != nil {
			ui.fail(err)
		}
	case 'c':
		ui.openPrompt(promptConfirmClear)
	case 'i':
		ui.openPrompt(promptAdjective)
	case 'a':
		ui.openPrompt(promptAdverb)
	case 'p':
		ui.openPrompt(promptPreposition)
	case 's':
		path, err := ui.session.Screenshot(ctx)
		if err != nil {
			ui.fail(err)
			break
		}
		ui.message = "Saved " + path
	}
	return nil
}

func (ui *UI) step(ctx context.Context, op string) {
	var err error
	if op == "undo" {
		err = ui.session.Undo(ctx)
	} else {
		err = ui.session.Redo(ctx)
	}
	switch {
	case errors.Is(err, history.ErrRestoreInProgress):
		ui.message = "Still restoring..."
	case err != nil:
		ui.fail(err)
	}
}

func (ui *UI) openPrompt(k promptKind) {
	ui.prompt = k
	ui.input = ui.input[:0]
	switch k {
	case promptAdverb:
		ui.input = append(ui.input, []rune(ui.session.Notes().Adverb)...)
	case promptPreposition:
		ui.input = append(ui.input, []rune(ui.session.Notes().Preposition)...)
	}
}

func (ui *UI) handlePromptKey(ctx context.Context, ev *tcell.EventKey) {
	if ui.prompt == promptConfirmClear {
		ui.prompt = promptNone
		if ev.Key() == tcell.KeyRune && (ev.Rune() == 'y' || ev.Rune() == 'Y') {
			if err := ui.session.Clear(ctx); err != nil {
				ui.fail(err)
			}
		}
		return
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		ui.prompt = promptNone
	case tcell.KeyEnter:
		k := ui.prompt
		ui.prompt = promptNone
		ui.submit(ctx, k, strings.TrimSpace(string(ui.input)))
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if n := len(ui.input); n > 0 {
			ui.input = ui.input[:n-1]
		}
	case tcell.KeyRune:
		ui.input = append(ui.input, ev.Rune())
	}
}

func (ui *UI) submit(ctx context.Context, k promptKind, text string) {
	switch k {
	case promptAdverb:
		ui.session.SetAdverb(ctx, text)
	case promptPreposition:
		ui.session.SetPreposition(ctx, text)
	case promptAdjective:
		if text == "" {
			return
		}
		ui.machine = machine{text: "ANALYZING DNA..."}
		ui.Draw()
		res, err := ui.session.Incubate(ctx, text)
		if err != nil {
			ui.machine = machine{text: machineError(err), failed: true}
			return
		}
		ui.machine = machine{result: &res}
		if res.Offline {
			ui.message = "Dictionary offline; word accepted unchecked"
		}
	}
}

// machineError is the incubator panel's wording for err.
func machineError(err error) string {
	var posErr *incubator.PartOfSpeechError
	switch {
	case errors.As(err, &posErr):
		return fmt.Sprintf("IS A %s!", strings.ToUpper(posErr.POS))
	case errors.Is(err, incubator.ErrUnknownSpecimen):
		return "UNKNOWN SPECIMEN"
	case errors.Is(err, incubator.ErrEmptyWord):
		return "NEED AN ADJECTIVE"
	}
	return "MACHINE JAMMED"
}

func (ui *UI) handleMouse(ctx context.Context, ev *tcell.EventMouse) {
	x, y := ev.Position()
	p, inside := ui.toCanvas(x, y)

	if ui.session.Canvas().DrawMode() {
		switch {
		case ev.Buttons()&tcell.Button1 != 0 && inside:
			ui.cursor = p
			ui.stroke = append(ui.stroke, p)
		case ev.Buttons() == tcell.ButtonNone && len(ui.stroke) > 0:
			ui.commitStroke(ctx)
		}
		return
	}

	if ui.placing && inside && ev.Buttons()&tcell.Button1 != 0 {
		ui.cursor = p
		ui.placing = false
		if _, err := ui.session.PlacePart(ctx, ui.category(), ui.sel, p.X, p.Y); err != nil {
			ui.fail(err)
		}
	}
}
