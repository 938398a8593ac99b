package event

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler processes an event. The event is usually an Event[T].
type Handler func(ctx context.Context, event any) error

// Priority determines handler execution order.
// Lower values execute first.
type Priority int

const (
	// PriorityCritical is for state owners such as the history store.
	PriorityCritical Priority = 0

	// PriorityNormal is the default priority.
	PriorityNormal Priority = 200

	// PriorityLow is for front-end refreshes and logging that run last.
	PriorityLow Priority = 300
)

// Subscription is a registered handler.
type Subscription struct {
	id       string
	pattern  Topic
	priority Priority
	handler  Handler
	seq      uint64
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string { return s.id }

// Topic returns the subscribed topic pattern.
func (s *Subscription) Topic() Topic { return s.pattern }

// SubscribeOption configures a subscription.
type SubscribeOption func(*Subscription)

// WithPriority sets the handler's execution priority.
func WithPriority(p Priority) SubscribeOption {
	return func(s *Subscription) {
		s.priority = p
	}
}

// Stats reports bus counters.
type Stats struct {
	Published     uint64
	Delivered     uint64
	HandlerErrors uint64
	HandlerPanics uint64
	Subscriptions int
}

// Bus delivers events synchronously to subscribers whose pattern matches.
// It is safe for concurrent use.
type Bus struct {
	mu   sync.RWMutex
	subs []*Subscription
	seq  uint64

	logger *zap.Logger

	published atomic.Uint64
	delivered atomic.Uint64
	errored   atomic.Uint64
	panicked  atomic.Uint64
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used for handler failures.
func WithLogger(l *zap.Logger) BusOption {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBus creates an event bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler for events whose topic matches pattern.
func (b *Bus) Subscribe(pattern Topic, handler Handler, opts ...SubscribeOption) (*Subscription, error) {
	if !pattern.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, pattern)
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	sub := &Subscription{
		id:       uuid.NewString(),
		pattern:  pattern,
		priority: PriorityNormal,
		handler:  handler,
	}
	for _, opt := range opts {
		opt(sub)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	sub.seq = b.seq
	b.subs = append(b.subs, sub)
	slices.SortStableFunc(b.subs, func(x, y *Subscription) int {
		if x.priority != y.priority {
			return int(x.priority - y.priority)
		}
		return int(x.seq) - int(y.seq)
	})
	return sub, nil
}

// SubscribePayload registers a handler that receives the payload of Event[T]
// values directly. Events with another payload type are skipped.
func SubscribePayload[T any](b *Bus, pattern Topic, fn func(ctx context.Context, payload T) error, opts ...SubscribeOption) (*Subscription, error) {
	return b.Subscribe(pattern, func(ctx context.Context, ev any) error {
		switch e := ev.(type) {
		case Event[T]:
			return fn(ctx, e.Payload)
		case T:
			return fn(ctx, e)
		}
		return nil
	}, opts...)
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(sub *Subscription) error {
	if sub == nil {
		return ErrSubscriptionNotFound
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == sub.id {
			b.subs = slices.Delete(b.subs, i, i+1)
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

// Publish delivers ev to every matching handler and returns their joined
// errors. Handlers run without the bus lock held, so they may publish or
// subscribe themselves.
func (b *Bus) Publish(ctx context.Context, ev any) error {
	tp, ok := ev.(TopicProvider)
	if !ok || tp.EventTopic() == "" {
		return ErrInvalidEvent
	}
	eventTopic := tp.EventTopic()

	b.mu.RLock()
	var matched []*Subscription
	for _, s := range b.subs {
		if eventTopic.Matches(s.pattern) {
			matched = append(matched, s)
		}
	}
	b.mu.RUnlock()

	b.published.Add(1)

	var errs []error
	for _, s := range matched {
		if err := b.dispatch(ctx, s, ev); err != nil {
			errs = append(errs, err)
			continue
		}
		b.delivered.Add(1)
	}
	return errors.Join(errs...)
}

func (b *Bus) dispatch(ctx context.Context, s *Subscription, ev any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.panicked.Add(1)
			b.logger.Error("event handler panicked",
				zap.String("pattern", s.pattern.String()),
				zap.Any("panic", r))
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()

	if err = s.handler(ctx, ev); err != nil {
		b.errored.Add(1)
		b.logger.Warn("event handler failed",
			zap.String("pattern", s.pattern.String()),
			zap.Error(err))
	}
	return err
}

// Stats returns the bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()

	return Stats{
		Published:     b.published.Load(),
		Delivered:     b.delivered.Load(),
		HandlerErrors: b.errored.Load(),
		HandlerPanics: b.panicked.Load(),
		Subscriptions: n,
	}
}
