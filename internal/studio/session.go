// Package studio wires the monster lab together: the canvas, its undo
// history, the parts inventory, the suffix incubator and the field notes.
//
// Every canvas change event triggers a history capture. Undo and redo
// restore a snapshot asynchronously, and the canvas re-announces the
// restored objects while doing so; the history store ignores those captures
// because it is in its restoring state until the canvas reports completion.
package studio

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dshills/monsterlab/internal/canvas"
	"github.com/dshills/monsterlab/internal/event"
	"github.com/dshills/monsterlab/internal/history"
	"github.com/dshills/monsterlab/internal/incubator"
	"github.com/dshills/monsterlab/internal/inventory"
	"github.com/dshills/monsterlab/internal/report"
)

// Topics published by the session.
const (
	TopicHistoryChanged event.Topic = "history.changed"
	TopicNotesChanged   event.Topic = "notes.changed"
	TopicExported       event.Topic = "report.exported"

	// TopicInventoryChanged carries "" after a successful reload or the
	// reload error text.
	TopicInventoryChanged event.Topic = "inventory.changed"
)

// Options configures a Session.
type Options struct {
	Canvas canvas.Config

	// MaxEntries caps the undo history. Zero keeps everything.
	MaxEntries int

	// Optional components.
	Inventory *inventory.Inventory
	Incubator *incubator.Incubator
	Exporter  *report.Exporter

	Logger *zap.Logger

	// Registry receives history metrics when set.
	Registry  *prometheus.Registry
	Namespace string
}

// Session is one monster being built. It is safe for concurrent use.
type Session struct {
	bus     *event.Bus
	canvas  *canvas.Canvas
	history *history.Store

	inventory *inventory.Inventory
	incubator *incubator.Incubator
	exporter  *report.Exporter

	logger *zap.Logger

	mu     sync.Mutex
	notes  report.FieldNotes
	subs   []*event.Subscription
	cancel func()
	closed bool
}

// New creates a session and records the empty canvas as the first history
// entry.
func New(opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bus := event.NewBus(event.WithLogger(logger.Named("event")))
	cv := canvas.New(opts.Canvas, canvas.WithBus(bus), canvas.WithLogger(logger.Named("canvas")))
	store := history.New(cv,
		history.WithMaxEntries(opts.MaxEntries),
		history.WithLogger(logger.Named("history")),
		history.WithPrometheus(opts.Registry, opts.Namespace, "history"),
	)

	inc := opts.Incubator
	if inc == nil {
		inc = incubator.New(nil, incubator.WithLogger(logger.Named("incubator")))
	}

	s := &Session{
		bus:       bus,
		canvas:    cv,
		history:   store,
		inventory: opts.Inventory,
		incubator: inc,
		exporter:  opts.Exporter,
		logger:    logger,
	}

	sub, err := bus.Subscribe("canvas.object.*", s.onCanvasChange, event.WithPriority(event.PriorityCritical))
	if err != nil {
		return nil, err
	}
	s.subs = append(s.subs, sub)

	s.cancel = store.OnChange(func(st history.Status) {
		s.publish(context.Background(), TopicHistoryChanged, st)
	})

	if err := store.Capture(); err != nil {
		s.Close()
		return nil, newOpError("capture", "initial", err)
	}
	return s, nil
}

func (s *Session) onCanvasChange(_ context.Context, _ any) error {
	return s.history.Capture()
}

// Bus returns the session's event bus for UI subscriptions.
func (s *Session) Bus() *event.Bus {
	return s.bus
}

// Canvas returns the drawing surface.
func (s *Session) Canvas() *canvas.Canvas {
	return s.canvas
}

// History returns the undo store.
func (s *Session) History() *history.Store {
	return s.history
}

// Inventory returns the parts catalogue, or nil when none is configured.
func (s *Session) Inventory() *inventory.Inventory {
	return s.inventory
}

// Status returns the undo/redo status.
func (s *Session) Status() history.Status {
	return s.history.Status()
}

// InventoryReloaded announces that the parts catalogue was re-read.
func (s *Session) InventoryReloaded(ctx context.Context, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	s.publish(ctx, TopicInventoryChanged, msg)
}

// Close detaches the session from its bus.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := s.subs
	s.subs = nil
	cancel := s.cancel
	s.mu.Unlock()

	for _, sub := range subs {
		_ = s.bus.Unsubscribe(sub)
	}
	if cancel != nil {
		cancel()
	}
}

func (s *Session) publish(ctx context.Context, tp event.Topic, payload any) {
	var err error
	switch p := payload.(type) {
	case history.Status:
		err = s.bus.Publish(ctx, event.NewEvent(tp, p, "studio"))
	case report.FieldNotes:
		err = s.bus.Publish(ctx, event.NewEvent(tp, p, "studio"))
	case string:
		err = s.bus.Publish(ctx, event.NewEvent(tp, p, "studio"))
	default:
		err = s.bus.Publish(ctx, event.NewEvent(tp, payload, "studio"))
	}
	if err != nil {
		s.logger.Warn("event handler failed", zap.String("topic", tp.String()), zap.Error(err))
	}
}
