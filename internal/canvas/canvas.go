package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/monsterlab/internal/event"
	"github.com/dshills/monsterlab/internal/history"
)

// Event topics published by the canvas.
const (
	TopicObjectAdded    event.Topic = "canvas.object.added"
	TopicObjectModified event.Topic = "canvas.object.modified"
	TopicObjectRemoved  event.Topic = "canvas.object.removed"
	TopicCleared        event.Topic = "canvas.cleared"
	TopicRestored       event.Topic = "canvas.restored"
)

// DocumentVersion is the snapshot format version written by Serialize.
const DocumentVersion = 1

// Document is the serialized form of the whole canvas.
type Document struct {
	Version    int      `json:"version"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Background string   `json:"background"`
	Objects    []Object `json:"objects"`
}

// Config configures a canvas.
type Config struct {
	Width      int
	Height     int
	Background string
	Brush      Brush
}

// DefaultConfig returns the monster tank dimensions.
func DefaultConfig() Config {
	return Config{
		Width:      600,
		Height:     500,
		Background: "#f0f0f0",
		Brush:      Brush{Color: "#000000", Width: 5},
	}
}

// Option configures a Canvas.
type Option func(*Canvas)

// WithBus sets the bus change events are published on.
func WithBus(b *event.Bus) Option {
	return func(c *Canvas) {
		c.bus = b
	}
}

// WithLogger sets the canvas logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Canvas) {
		if l != nil {
			c.logger = l
		}
	}
}

// Canvas is the drawing surface. It is safe for concurrent use.
type Canvas struct {
	mu sync.Mutex

	cfg      Config
	doc      Document
	drawMode bool
	brush    Brush

	bus    *event.Bus
	logger *zap.Logger
}

var _ history.Adapter = (*Canvas)(nil)

// New creates an empty canvas.
func New(cfg Config, opts ...Option) *Canvas {
	def := DefaultConfig()
	if cfg.Width <= 0 {
		cfg.Width = def.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = def.Height
	}
	if cfg.Background == "" {
		cfg.Background = def.Background
	}
	if cfg.Brush.Color == "" {
		cfg.Brush.Color = def.Brush.Color
	}
	if cfg.Brush.Width <= 0 {
		cfg.Brush.Width = def.Brush.Width
	}

	c := &Canvas{
		cfg:    cfg,
		brush:  cfg.Brush,
		logger: zap.NewNop(),
		doc: Document{
			Version:    DocumentVersion,
			Width:      cfg.Width,
			Height:     cfg.Height,
			Background: cfg.Background,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Size returns the canvas dimensions in pixels.
func (c *Canvas) Size() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.Width, c.doc.Height
}

// Background returns the background colour.
func (c *Canvas) Background() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.Background
}

// Add places obj on top of the stack. An empty ID is filled in.
func (c *Canvas) Add(ctx context.Context, obj Object) (Object, error) {
	obj = obj.Clone()
	if obj.ID == "" {
		obj.ID = uuid.NewString()
	}
	if err := obj.Validate(); err != nil {
		return Object{}, err
	}

	c.mu.Lock()
	if c.indexLocked(obj.ID) >= 0 {
		c.mu.Unlock()
		return Object{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidObject, obj.ID)
	}
	c.doc.Objects = append(c.doc.Objects, obj)
	c.mu.Unlock()

	c.publish(ctx, TopicObjectAdded, obj.Clone())
	return obj, nil
}

// AddImage places an inventory part centred on (x, y), sized for its category.
func (c *Canvas) AddImage(ctx context.Context, category, asset string, x, y float64) (Object, error) {
	return c.Add(ctx, Object{
		Kind:     KindImage,
		Category: category,
		Asset:    asset,
		X:        x,
		Y:        y,
		Size:     PartSize(category),
	})
}

// AddImageCentered places an inventory part in the middle of the canvas.
func (c *Canvas) AddImageCentered(ctx context.Context, category, asset string) (Object, error) {
	w, h := c.Size()
	return c.AddImage(ctx, category, asset, float64(w)/2, float64(h)/2)
}

// AddPath adds a brush stroke through points using the current brush.
func (c *Canvas) AddPath(ctx context.Context, points []Point) (Object, error) {
	b := c.Brush()
	return c.Add(ctx, Object{
		Kind:   KindPath,
		Points: points,
		Color:  b.Color,
		Width:  b.Width,
	})
}

// Modify applies fn to the object with the given id. The ID and kind
// cannot be changed.
func (c *Canvas) Modify(ctx context.Context, id string, fn func(*Object)) (Object, error) {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return Object{}, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}

	obj := c.doc.Objects[i].Clone()
	fn(&obj)
	obj.ID = c.doc.Objects[i].ID
	obj.Kind = c.doc.Objects[i].Kind
	if err := obj.Validate(); err != nil {
		c.mu.Unlock()
		return Object{}, err
	}
	c.doc.Objects[i] = obj
	c.mu.Unlock()

	c.publish(ctx, TopicObjectModified, obj.Clone())
	return obj, nil
}

// Move repositions an image part or translates a stroke.
func (c *Canvas) Move(ctx context.Context, id string, dx, dy float64) (Object, error) {
	return c.Modify(ctx, id, func(o *Object) {
		o.X += dx
		o.Y += dy
		for i := range o.Points {
			o.Points[i].X += dx
			o.Points[i].Y += dy
		}
	})
}

// Remove deletes the object with the given id.
func (c *Canvas) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	obj := c.doc.Objects[i]
	c.doc.Objects = slices.Delete(c.doc.Objects, i, i+1)
	c.mu.Unlock()

	c.publish(ctx, TopicObjectRemoved, obj)
	return nil
}

// Clear removes every object and resets the background. It publishes a
// single canvas.cleared event carrying the number of objects removed.
func (c *Canvas) Clear(ctx context.Context) {
	c.mu.Lock()
	n := len(c.doc.Objects)
	c.doc.Objects = nil
	c.doc.Background = c.cfg.Background
	c.mu.Unlock()

	c.publish(ctx, TopicCleared, n)
}

// Objects returns a copy of the object stack, bottom first.
func (c *Canvas) Objects() []Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Object, len(c.doc.Objects))
	for i, o := range c.doc.Objects {
		out[i] = o.Clone()
	}
	return out
}

// Len returns the number of objects on the canvas.
func (c *Canvas) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.doc.Objects)
}

// Get returns the object with the given id.
func (c *Canvas) Get(id string) (Object, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		return Object{}, false
	}
	return c.doc.Objects[i].Clone(), true
}

// Top returns the topmost object.
func (c *Canvas) Top() (Object, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.doc.Objects) == 0 {
		return Object{}, false
	}
	return c.doc.Objects[len(c.doc.Objects)-1].Clone(), true
}

// SetDrawMode switches between free-hand drawing and selecting.
func (c *Canvas) SetDrawMode(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawMode = on
}

// DrawMode reports whether free-hand drawing is active.
func (c *Canvas) DrawMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drawMode
}

// SetBrush replaces the drawing brush.
func (c *Canvas) SetBrush(b Brush) error {
	if _, err := ParseColor(b.Color); err != nil {
		return err
	}
	if b.Width <= 0 {
		return fmt.Errorf("%w: brush width %v", ErrInvalidObject, b.Width)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.brush = b
	return nil
}

// Brush returns the drawing brush.
func (c *Canvas) Brush() Brush {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.brush
}

// Serialize encodes the whole canvas as a snapshot.
func (c *Canvas) Serialize() (history.Snapshot, error) {
	c.mu.Lock()
	data, err := json.Marshal(c.doc)
	c.mu.Unlock()
	if err != nil {
		return history.Snapshot{}, fmt.Errorf("encoding canvas: %w", err)
	}
	return history.NewSnapshot(data), nil
}

// Restore rebuilds the canvas from snap on a separate goroutine and calls
// done once the objects are in place. A snapshot that fails to decode
// leaves the canvas untouched.
func (c *Canvas) Restore(snap history.Snapshot, done func(error)) {
	go func() {
		doc, err := DecodeDocument(snap.Bytes())
		if err != nil {
			c.logger.Warn("restore rejected", zap.Error(err))
			done(err)
			return
		}

		c.mu.Lock()
		c.doc = doc
		objs := make([]Object, len(doc.Objects))
		for i, o := range doc.Objects {
			objs[i] = o.Clone()
		}
		c.mu.Unlock()

		ctx := context.Background()
		for _, o := range objs {
			c.publish(ctx, TopicObjectAdded, o)
		}
		c.publish(ctx, TopicRestored, len(objs))
		done(nil)
	}()
}

// DecodeDocument parses and validates a serialized canvas.
func DecodeDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if doc.Version != DocumentVersion {
		return Document{}, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, doc.Version)
	}
	if doc.Width <= 0 || doc.Height <= 0 {
		return Document{}, fmt.Errorf("%w: size %dx%d", ErrCorruptSnapshot, doc.Width, doc.Height)
	}
	if _, err := ParseColor(doc.Background); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	seen := make(map[string]bool, len(doc.Objects))
	for _, o := range doc.Objects {
		if err := o.Validate(); err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		if o.ID == "" || seen[o.ID] {
			return Document{}, fmt.Errorf("%w: bad object id %q", ErrCorruptSnapshot, o.ID)
		}
		seen[o.ID] = true
	}
	return doc, nil
}

func (c *Canvas) indexLocked(id string) int {
	for i, o := range c.doc.Objects {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (c *Canvas) publish(ctx context.Context, tp event.Topic, payload any) {
	if c.bus == nil {
		return
	}
	var ev any
	switch p := payload.(type) {
	case Object:
		ev = event.NewEvent(tp, p, "canvas")
	case int:
		ev = event.NewEvent(tp, p, "canvas")
	default:
		ev = event.NewEvent(tp, payload, "canvas")
	}
	if err := c.bus.Publish(ctx, ev); err != nil {
		c.logger.Warn("change handler failed", zap.String("topic", tp.String()), zap.Error(err))
	}
}
