// Package canvas implements the monster drawing surface.
//
// A Canvas holds an ordered stack of objects: image parts dropped from the
// inventory and free-hand brush strokes. Every mutation is announced on the
// event bus (canvas.object.added, canvas.object.modified,
// canvas.object.removed, canvas.cleared) after the canvas lock is released,
// so handlers may read the canvas or serialize it.
//
// The canvas is the history adapter: Serialize encodes the whole Document as
// JSON and Restore decodes one back. Restore decodes on its own goroutine and
// re-announces every object as added while it rebuilds the stack, the same
// way a browser drawing library replays objects when loading a document. The
// history store ignores those events because it is restoring.
package canvas
