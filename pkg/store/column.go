package store

import (
	"fmt"

	"github.com/Sternrassler/pariter/pkg/access"
	"github.com/Sternrassler/pariter/pkg/tick"
)

// Component is any registered column. It is implemented by *Column[T].
type Component interface {
	base() column
}

type column interface {
	id() access.ID
	name() string
	world() *World
	has(row uint32) bool
	addedAt(row uint32) tick.Tick
	changedAt(row uint32) tick.Tick
	remove(row uint32)
}

// Column stores one component type for every entity that has it.
type Column[T any] struct {
	cid     access.ID
	label   string
	owner   *World
	values  []T
	present []bool
	added   []tick.Tick
	changed []tick.Tick
}

// Register adds a column for components of type T to w.
func Register[T any](w *World, name string) *Column[T] {
	w.mu.Lock()
	defer w.mu.Unlock()

	c := &Column[T]{
		cid:   access.ID(len(w.columns)),
		label: name,
		owner: w,
	}
	w.columns = append(w.columns, c)
	w.ledger.Name(c.cid, name)
	return c
}

// Name returns the name the column was registered with.
func (c *Column[T]) Name() string { return c.label }

func (c *Column[T]) base() column        { return c }
func (c *Column[T]) id() access.ID       { return c.cid }
func (c *Column[T]) name() string        { return c.label }
func (c *Column[T]) world() *World       { return c.owner }
func (c *Column[T]) has(row uint32) bool { return int(row) < len(c.present) && c.present[row] }

func (c *Column[T]) addedAt(row uint32) tick.Tick   { return c.added[row] }
func (c *Column[T]) changedAt(row uint32) tick.Tick { return c.changed[row] }

func (c *Column[T]) remove(row uint32) {
	if !c.has(row) {
		return
	}
	var zero T
	c.values[row] = zero
	c.present[row] = false
}

func (c *Column[T]) grow(row uint32) {
	n := int(row) + 1
	if n <= len(c.present) {
		return
	}
	c.values = append(c.values, make([]T, n-len(c.values))...)
	c.present = append(c.present, make([]bool, n-len(c.present))...)
	c.added = append(c.added, make([]tick.Tick, n-len(c.added))...)
	c.changed = append(c.changed, make([]tick.Tick, n-len(c.changed))...)
}

// Insert sets e's component, adding it if absent. The write is stamped with the
// world's current change tick. Fails with access.ErrAliasing while a query
// holds the column.
func Insert[T any](c *Column[T], e Entity, value T) error {
	w := c.owner
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.aliveLocked(e) {
		return ErrNoEntity
	}
	tok, err := w.ledger.Acquire(nil, []access.ID{c.cid})
	if err != nil {
		return fmt.Errorf("insert %s on %s: %w", c.label, e, err)
	}
	defer tok.Release()

	now := w.ChangeTick()
	c.grow(e.Index)
	if !c.present[e.Index] {
		c.present[e.Index] = true
		c.added[e.Index] = now
	}
	c.values[e.Index] = value
	c.changed[e.Index] = now
	return nil
}

// Remove deletes e's component. Removing an absent component is not an error.
func Remove[T any](c *Column[T], e Entity) error {
	w := c.owner
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.aliveLocked(e) {
		return ErrNoEntity
	}
	tok, err := w.ledger.Acquire(nil, []access.ID{c.cid})
	if err != nil {
		return fmt.Errorf("remove %s from %s: %w", c.label, e, err)
	}
	defer tok.Release()

	c.remove(e.Index)
	return nil
}

// Get returns a copy of e's component.
func Get[T any](c *Column[T], e Entity) (T, error) {
	var zero T
	w := c.owner
	w.mu.RLock()
	defer w.mu.RUnlock()

	if !w.aliveLocked(e) {
		return zero, ErrNoEntity
	}
	tok, err := w.ledger.Acquire([]access.ID{c.cid}, nil)
	if err != nil {
		return zero, fmt.Errorf("get %s of %s: %w", c.label, e, err)
	}
	defer tok.Release()

	if !c.has(e.Index) {
		return zero, ErrNoComponent
	}
	return c.values[e.Index], nil
}
