package store

import (
	"slices"

	"github.com/Sternrassler/pariter/pkg/access"
	"github.com/Sternrassler/pariter/pkg/tick"
)

type filterKind int

const (
	filterWith filterKind = iota
	filterWithout
	filterChanged
	filterAdded
)

type filter struct {
	kind filterKind
	col  column
}

// Query describes which rows an iteration selects and which columns it may
// read and write. Build it once and reuse it. Opening an iteration freezes a
// copy, so later builder calls only affect iterations opened afterwards.
type Query struct {
	name     string
	reads    []access.ID
	writes   []access.ID
	required []column
	filters  []filter
	cols     []column
	modes    []access.Mode
}

// NewQuery starts an empty query. The name labels logs and metrics.
func NewQuery(name string) *Query {
	if name == "" {
		name = "query"
	}
	return &Query{name: name}
}

// Name returns the query name.
func (q *Query) Name() string { return q.name }

// Read selects rows that have c and allows Read on it.
func (q *Query) Read(c Component) *Query {
	col := c.base()
	q.required = append(q.required, col)
	return q.declare(col, access.Shared)
}

// Write selects rows that have c and allows Read and Write on it.
func (q *Query) Write(c Component) *Query {
	col := c.base()
	q.required = append(q.required, col)
	return q.declare(col, access.Exclusive)
}

// Maybe allows TryRead on c without requiring rows to have it.
func (q *Query) Maybe(c Component) *Query {
	return q.declare(c.base(), access.Shared)
}

// With selects rows that have c without allowing access to its value.
func (q *Query) With(c Component) *Query {
	return q.addFilter(filterWith, c.base())
}

// Without selects rows that lack c.
func (q *Query) Without(c Component) *Query {
	return q.addFilter(filterWithout, c.base())
}

// Changed selects rows whose c was written inside the run's window.
func (q *Query) Changed(c Component) *Query {
	return q.addFilter(filterChanged, c.base())
}

// Added selects rows whose c was added inside the run's window.
func (q *Query) Added(c Component) *Query {
	return q.addFilter(filterAdded, c.base())
}

// ReadOnly reports whether the query writes nothing.
func (q *Query) ReadOnly() bool {
	return len(q.writes) == 0
}

func (q *Query) addFilter(kind filterKind, col column) *Query {
	q.filters = append(q.filters, filter{kind: kind, col: col})
	q.track(col)
	// Filters inspect the column, so they need at least a shared borrow.
	q.reads = appendID(q.reads, col.id())
	return q
}

func (q *Query) declare(col column, mode access.Mode) *Query {
	q.track(col)
	id := col.id()
	if mode == access.Exclusive {
		q.writes = appendID(q.writes, id)
	} else {
		q.reads = appendID(q.reads, id)
	}

	for int(id) >= len(q.modes) {
		q.modes = append(q.modes, 0)
	}
	if mode > q.modes[id] {
		q.modes[id] = mode
	}
	return q
}

func (q *Query) track(col column) {
	for _, c := range q.cols {
		if c == col {
			return
		}
	}
	q.cols = append(q.cols, col)
}

// frozen returns a copy sharing no slices with q.
func (q *Query) frozen() *Query {
	return &Query{
		name:     q.name,
		reads:    slices.Clone(q.reads),
		writes:   slices.Clone(q.writes),
		required: slices.Clone(q.required),
		filters:  slices.Clone(q.filters),
		cols:     slices.Clone(q.cols),
		modes:    slices.Clone(q.modes),
	}
}

func (q *Query) columns() []column {
	return q.cols
}

func (q *Query) mode(id access.ID) access.Mode {
	if int(id) >= len(q.modes) {
		return 0
	}
	return q.modes[id]
}

func (q *Query) matches(row uint32, window tick.Window) bool {
	for _, c := range q.required {
		if !c.has(row) {
			return false
		}
	}
	for _, f := range q.filters {
		has := f.col.has(row)
		switch f.kind {
		case filterWith:
			if !has {
				return false
			}
		case filterWithout:
			if has {
				return false
			}
		case filterChanged:
			if !has || !window.IsChanged(f.col.changedAt(row)) {
				return false
			}
		case filterAdded:
			if !has || !window.IsChanged(f.col.addedAt(row)) {
				return false
			}
		}
	}
	return true
}

func appendID(ids []access.ID, id access.ID) []access.ID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
