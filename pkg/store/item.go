package store

import (
	"fmt"

	"github.com/Sternrassler/pariter/pkg/access"
	"github.com/Sternrassler/pariter/pkg/tick"
)

// Item is the per-row view handed to iteration callbacks. It is only valid
// during the callback.
type Item struct {
	entity Entity
	query  *Query
	window tick.Window
}

// Entity returns the row's entity.
func (it Item) Entity() Entity {
	return it.entity
}

// Window returns the change-tracking window of the run.
func (it Item) Window() tick.Window {
	return it.window
}

// Read returns a copy of the row's c. Panics with ErrNotReadable unless the
// query declared c with Read or Write.
func Read[T any](it Item, c *Column[T]) T {
	if !it.required(c.cid) {
		panic(fmt.Errorf("%w: %s", ErrNotReadable, c.label))
	}
	return c.values[it.entity.Index]
}

// TryRead returns the row's c if present. The query must declare c with Read,
// Write or Maybe.
func TryRead[T any](it Item, c *Column[T]) (T, bool) {
	if it.query.mode(c.cid) == 0 {
		panic(fmt.Errorf("%w: %s", ErrNotReadable, c.label))
	}
	if !c.has(it.entity.Index) {
		var zero T
		return zero, false
	}
	return c.values[it.entity.Index], true
}

// Write returns a pointer to the row's c and marks it changed at the run's
// tick. Panics with ErrNotWritable unless the query declared c with Write.
func Write[T any](it Item, c *Column[T]) *T {
	if it.query.mode(c.cid) != access.Exclusive {
		panic(fmt.Errorf("%w: %s", ErrNotWritable, c.label))
	}
	row := it.entity.Index
	c.changed[row] = it.window.ThisRun
	return &c.values[row]
}

// IsChanged reports whether the row's c was written inside the run's window.
func IsChanged[T any](it Item, c *Column[T]) bool {
	if !it.required(c.cid) {
		panic(fmt.Errorf("%w: %s", ErrNotReadable, c.label))
	}
	return it.window.IsChanged(c.changed[it.entity.Index])
}

// IsAdded reports whether the row's c was added inside the run's window.
func IsAdded[T any](it Item, c *Column[T]) bool {
	if !it.required(c.cid) {
		panic(fmt.Errorf("%w: %s", ErrNotReadable, c.label))
	}
	return it.window.IsChanged(c.added[it.entity.Index])
}

// required reports whether c is guaranteed present on the row: it must be
// declared through Read or Write, not only Maybe.
func (it Item) required(id access.ID) bool {
	if it.query.mode(id) == 0 {
		return false
	}
	for _, c := range it.query.required {
		if c.id() == id {
			return true
		}
	}
	return false
}
