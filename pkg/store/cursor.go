package store

import (
	"github.com/Sternrassler/pariter/pkg/batching"
	"github.com/Sternrassler/pariter/pkg/pariter"
	"github.com/Sternrassler/pariter/pkg/tick"
)

// Cursor is the materialised result set of a query. It implements
// pariter.Cursor[Item].
type Cursor struct {
	query    *Query
	window   tick.Window
	entities []Entity
}

// Len implements pariter.Cursor.
func (c *Cursor) Len() int {
	return len(c.entities)
}

// Split implements pariter.Cursor. Sub-cursors share the entity slice but
// cover disjoint ranges of it.
func (c *Cursor) Split(batchSize int) []pariter.Cursor[Item] {
	parts := batching.Partition(len(c.entities), batchSize)
	out := make([]pariter.Cursor[Item], len(parts))
	for i, b := range parts {
		out[i] = &Cursor{
			query:    c.query,
			window:   c.window,
			entities: c.entities[b.Start:b.End:b.End],
		}
	}
	return out
}

// ForEach implements pariter.Cursor.
func (c *Cursor) ForEach(fn func(Item)) {
	for _, e := range c.entities {
		fn(Item{entity: e, query: c.query, window: c.window})
	}
}

// Entities returns the selected entities in cursor order.
func (c *Cursor) Entities() []Entity {
	return c.entities
}
