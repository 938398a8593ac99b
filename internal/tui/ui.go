// Package tui is the terminal front end for a studio session.
package tui

import (
	"context"
	"errors"
	"sync"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/dshills/monsterlab/internal/canvas"
	"github.com/dshills/monsterlab/internal/event"
	"github.com/dshills/monsterlab/internal/incubator"
	"github.com/dshills/monsterlab/internal/inventory"
	"github.com/dshills/monsterlab/internal/studio"
)

// ErrQuit signals that the user asked to leave.
var ErrQuit = errors.New("quit requested")

// cursorStep is how far the placement cursor and pen move per key press,
// in canvas pixels.
const cursorStep = 20

// brushPalette is cycled with the b key.
var brushPalette = []string{"#000000", "#ff4081", "#00e676", "#2979ff", "#ffea00", "#ffffff"}

type promptKind int

const (
	promptNone promptKind = iota
	promptAdjective
	promptAdverb
	promptPreposition
	promptConfirmClear
)

func (k promptKind) label() string {
	switch k {
	case promptAdjective:
		return "Adjective: "
	case promptAdverb:
		return "Adverb: "
	case promptPreposition:
		return "Preposition: "
	case promptConfirmClear:
		return "Clear the tank? (y/n) "
	}
	return ""
}

// machine is what the incubator panel shows.
type machine struct {
	text   string
	result *incubator.Result
	failed bool
}

// UI draws a session on a tcell screen and maps keys to session operations.
// Only the goroutine running Run (or calling HandleEvent) may touch the UI.
type UI struct {
	screen  tcell.Screen
	session *studio.Session
	logger  *zap.Logger

	tab int
	sel int

	placing bool
	cursor  canvas.Point
	stroke  []canvas.Point
	brush   int

	prompt promptKind
	input  []rune

	machine machine
	message string

	sub      *event.Subscription
	stopOnce sync.Once
}

// Option configures a UI.
type Option func(*UI)

// WithLogger sets the UI logger.
func WithLogger(l *zap.Logger) Option {
	return func(ui *UI) {
		if l != nil {
			ui.logger = l
		}
	}
}

// New creates a UI for session on screen. The screen must already be
// initialised.
func New(screen tcell.Screen, session *studio.Session, opts ...Option) (*UI, error) {
	ui := &UI{
		screen:  screen,
		session: session,
		logger:  zap.NewNop(),
		machine: machine{text: "TRY: HAPPY, COLD..."},
	}
	for _, opt := range opts {
		opt(ui)
	}
	ui.resetCursor()

	// Any session event may change what is on screen. Handlers can run on
	// the canvas restore goroutine, so they only wake the event loop.
	sub, err := session.Bus().Subscribe("**", func(context.Context, any) error {
		_ = ui.screen.PostEvent(tcell.NewEventInterrupt(nil))
		return nil
	}, event.WithPriority(event.PriorityLow))
	if err != nil {
		return nil, err
	}
	ui.sub = sub
	return ui, nil
}

// Run processes screen events until the user quits or ctx is done.
func (ui *UI) Run(ctx context.Context) error {
	defer ui.stop()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = ui.screen.PostEvent(tcell.NewEventInterrupt(ctx))
		case <-done:
		}
	}()

	ui.Draw()
	for {
		ev := ui.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ui.HandleEvent(ctx, ev); err != nil {
			return err
		}
		ui.Draw()
	}
}

func (ui *UI) stop() {
	ui.stopOnce.Do(func() {
		_ = ui.session.Bus().Unsubscribe(ui.sub)
	})
}

// HandleEvent applies one screen event. It returns ErrQuit when the user
// asks to leave.
func (ui *UI) HandleEvent(ctx context.Context, ev tcell.Event) error {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return ui.handleKey(ctx, e)
	case *tcell.EventMouse:
		ui.handleMouse(ctx, e)
	case *tcell.EventResize:
		ui.screen.Sync()
	}
	return nil
}

func (ui *UI) category() string {
	return inventory.Categories[ui.tab]
}

func (ui *UI) parts() []inventory.Part {
	inv := ui.session.Inventory()
	if inv == nil {
		return nil
	}
	parts, err := inv.Parts(ui.category())
	if err != nil {
		return nil
	}
	return parts
}

func (ui *UI) resetCursor() {
	w, h := ui.session.Canvas().Size()
	ui.cursor = canvas.Point{X: float64(w) / 2, Y: float64(h) / 2}
}

func (ui *UI) moveCursor(dx, dy float64) {
	w, h := ui.session.Canvas().Size()
	ui.cursor.X = min(max(ui.cursor.X+dx, 0), float64(w))
	ui.cursor.Y = min(max(ui.cursor.Y+dy, 0), float64(h))
	if ui.session.Canvas().DrawMode() {
		ui.stroke = append(ui.stroke, ui.cursor)
	}
}

func (ui *UI) fail(err error) {
	ui.logger.Debug("operation failed", zap.Error(err))
	ui.message = err.Error()
}
