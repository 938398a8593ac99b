package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/monsterlab/internal/canvas"
	"github.com/dshills/monsterlab/internal/history"
	"github.com/dshills/monsterlab/internal/inventory"
)

// Layout.
const (
	panelWidth   = 22
	headerRows   = 2
	footerRows   = 5
	minCanvasCol = 10
)

var (
	styleBase    = tcell.StyleDefault
	styleTitle   = tcell.StyleDefault.Foreground(tcell.NewHexColor(0x00e676)).Bold(true)
	styleActive  = tcell.StyleDefault.Reverse(true)
	styleDim     = tcell.StyleDefault.Dim(true)
	styleError   = tcell.StyleDefault.Foreground(tcell.NewHexColor(0xff5252)).Bold(true)
	styleSuffix  = tcell.StyleDefault.Foreground(tcell.NewHexColor(0x00e676)).Bold(true)
	styleJoint   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleNotes   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.NewHexColor(0x212121))
	partStyleFor = map[string]tcell.Style{
		"bodies":      tcell.StyleDefault.Background(tcell.NewHexColor(0x66bb6a)).Foreground(tcell.ColorBlack),
		"eyes":        tcell.StyleDefault.Background(tcell.ColorWhite).Foreground(tcell.ColorBlack),
		"mouths":      tcell.StyleDefault.Background(tcell.NewHexColor(0xe53935)).Foreground(tcell.ColorWhite),
		"accessories": tcell.StyleDefault.Background(tcell.NewHexColor(0xffd600)).Foreground(tcell.ColorBlack),
	}
)

// Draw repaints the whole screen.
func (ui *UI) Draw() {
	ui.screen.Clear()
	w, h := ui.screen.Size()

	ui.drawHeader(w)
	ui.drawParts(h)
	ui.drawCanvas()
	ui.drawFooter(w, h)
	ui.screen.Show()
}

func (ui *UI) drawHeader(w int) {
	x := ui.text(0, 0, styleTitle, "MONSTER LAB ")
	for i, cat := range inventory.Categories {
		style := styleBase
		if i == ui.tab {
			style = styleActive
		}
		x = ui.text(x, 0, style, " "+cat+" ")
		x = ui.text(x, 0, styleDim, "|")
	}
	ui.fill(0, 1, w, 1, '─', styleDim)
}

func (ui *UI) drawParts(h int) {
	parts := ui.parts()
	if len(parts) == 0 {
		ui.text(0, headerRows, styleDim, inventory.EmptyMessage)
		return
	}
	for i, p := range parts {
		y := headerRows + i
		if y >= h-footerRows {
			break
		}
		style, marker := styleBase, "  "
		if i == ui.sel {
			style, marker = styleActive, "> "
		}
		ui.text(0, y, style, clip(marker+p.Name, panelWidth))
	}
}

// canvasRect returns the screen cells the canvas occupies.
func (ui *UI) canvasRect() (x0, y0, cols, rows int) {
	w, h := ui.screen.Size()
	x0 = panelWidth + 1
	y0 = headerRows
	cols = max(w-x0, minCanvasCol)
	rows = max(h-headerRows-footerRows, 1)
	return x0, y0, cols, rows
}

// toCanvas maps a screen cell to canvas pixels.
func (ui *UI) toCanvas(x, y int) (canvas.Point, bool) {
	x0, y0, cols, rows := ui.canvasRect()
	cw, ch := ui.session.Canvas().Size()
	inside := x >= x0 && x < x0+cols && y >= y0 && y < y0+rows
	return canvas.Point{
		X: (float64(x-x0) + 0.5) * float64(cw) / float64(cols),
		Y: (float64(y-y0) + 0.5) * float64(ch) / float64(rows),
	}, inside
}

// toCell maps canvas pixels to a screen cell.
func (ui *UI) toCell(p canvas.Point) (int, int) {
	x0, y0, cols, rows := ui.canvasRect()
	cw, ch := ui.session.Canvas().Size()
	return x0 + int(p.X*float64(cols)/float64(cw)), y0 + int(p.Y*float64(rows)/float64(ch))
}

func (ui *UI) drawCanvas() {
	x0, y0, cols, rows := ui.canvasRect()
	cv := ui.session.Canvas()

	bg := tcell.StyleDefault.Background(tcell.GetColor(cv.Background()))
	ui.fill(x0, y0, cols, rows, ' ', bg)

	clipX := func(x int) int { return min(max(x, x0), x0+cols) }
	clipY := func(y int) int { return min(max(y, y0), y0+rows) }

	for _, o := range cv.Objects() {
		switch o.Kind {
		case canvas.KindImage:
			half := o.Size / 2
			ax, ay := ui.toCell(canvas.Point{X: o.X - half, Y: o.Y - half})
			bx, by := ui.toCell(canvas.Point{X: o.X + half, Y: o.Y + half})
			ax, ay, bx, by = clipX(ax), clipY(ay), clipX(bx), clipY(by)
			style, ok := partStyleFor[o.Category]
			if !ok {
				style = styleActive
			}
			ui.fill(ax, ay, max(bx-ax, 1), max(by-ay, 1), ' ', style)
			label := o.Category
			if n := strings.LastIndex(o.Asset, "/"); n >= 0 {
				label = strings.TrimSuffix(o.Asset[n+1:], ".png")
			}
			ui.text(ax, ay, style, clip(label, max(bx-ax, 1)))
		case canvas.KindPath:
			style := bg.Foreground(tcell.GetColor(o.Color))
			for _, p := range o.Points {
				x, y := ui.toCell(p)
				if x >= x0 && x < x0+cols && y >= y0 && y < y0+rows {
					ui.screen.SetContent(x, y, '•', nil, style)
				}
			}
		}
	}

	if ui.placing || cv.DrawMode() {
		x, y := ui.toCell(ui.cursor)
		ui.screen.SetContent(clipX(x), clipY(y), '+', nil, bg.Foreground(tcell.ColorRed).Bold(true))
	}
	for _, p := range ui.stroke {
		x, y := ui.toCell(p)
		ui.screen.SetContent(clipX(x), clipY(y), '·', nil, bg.Foreground(tcell.GetColor(cv.Brush().Color)))
	}
}

func (ui *UI) drawFooter(w, h int) {
	y := h - footerRows
	st := ui.session.Status()
	cv := ui.session.Canvas()

	mode := "select"
	if cv.DrawMode() {
		mode = "draw"
	}
	x := ui.text(0, y, styleBase, "[u] undo "+mark(st.CanUndo)+"  [r] redo "+mark(st.CanRedo))
	x = ui.text(x, y, styleDim, fmt.Sprintf("  step %d/%d  mode %s  brush %s", st.Step+1, st.Len, mode, cv.Brush().Color))
	if st.State == history.StateRestoring {
		ui.text(x, y, styleError, "  restoring")
	}

	y++
	x = ui.text(0, y, styleTitle, "INCUBATOR: ")
	switch {
	case ui.machine.result != nil:
		r := ui.machine.result
		x = ui.text(x, y, styleBase, r.Stem)
		x = ui.text(x, y, styleJoint, r.Joint)
		ui.text(x, y, styleSuffix, r.Suffix)
	case ui.machine.failed:
		ui.text(x, y, styleError, ui.machine.text)
	default:
		ui.text(x, y, styleDim, ui.machine.text)
	}

	y++
	ui.fill(0, y, w, 2, ' ', styleNotes)
	lines := ui.session.Notes().Lines()
	ui.text(0, y, styleNotes, clip(lines[0], w))
	ui.text(0, y+1, styleNotes, clip(lines[1], w))

	y += 2
	switch {
	case ui.prompt != promptNone:
		x = ui.text(0, y, styleTitle, ui.prompt.label())
		x = ui.text(x, y, styleBase, string(ui.input))
		ui.screen.ShowCursor(x, y)
		return
	case ui.message != "":
		ui.text(0, y, styleBase, clip(ui.message, w))
	default:
		ui.text(0, y, styleDim, clip("tab parts  ↑↓ pick  enter place  d draw  b brush  x delete  c clear  i incubate  a adverb  p prep  s save  q quit", w))
	}
	ui.screen.HideCursor()
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

// text writes s at (x, y) and returns the column after it.
func (ui *UI) text(x, y int, style tcell.Style, s string) int {
	for _, r := range s {
		ui.screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}

func (ui *UI) fill(x, y, w, h int, r rune, style tcell.Style) {
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			ui.screen.SetContent(col, row, r, nil, style)
		}
	}
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:max(n, 0)])
	}
	return string(runes[:n-1]) + "…"
}
