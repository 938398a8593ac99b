// Package event provides the in-process event bus that connects the canvas,
// the history store and the front end.
//
// Events use hierarchical topics with dot notation:
//
//	canvas.object.added     - A part or stroke was placed
//	canvas.object.modified  - A part was moved, scaled or recoloured
//	canvas.object.removed   - A part was deleted
//	canvas.cleared          - The tank was emptied
//	history.changed         - Undo/redo availability changed
//	inventory.changed       - The parts catalogue was reloaded
//
// Subscriptions may use wildcards:
//
//	canvas.*        - matches canvas.cleared (single segment)
//	canvas.**       - matches canvas.object.added (zero or more segments)
//	*.changed       - matches history.changed, inventory.changed
//
// Delivery is synchronous: Publish runs every matching handler in the
// publisher's goroutine, in priority order, before returning. A handler that
// panics is recovered and reported as ErrHandlerPanic; the remaining handlers
// still run.
//
// # Basic Usage
//
//	bus := event.NewBus()
//	sub, _ := bus.Subscribe("canvas.object.*", func(ctx context.Context, ev any) error {
//	    return store.Capture()
//	})
//	defer bus.Unsubscribe(sub)
//
//	bus.Publish(ctx, event.NewEvent(TopicObjectAdded, obj, "canvas"))
package event
