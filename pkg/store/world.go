package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/pariter/pkg/access"
	"github.com/Sternrassler/pariter/pkg/batching"
	"github.com/Sternrassler/pariter/pkg/logging"
	"github.com/Sternrassler/pariter/pkg/pariter"
	"github.com/Sternrassler/pariter/pkg/tick"
)

// Config holds world configuration.
type Config struct {
	// Batching is the default strategy of iterators created by ParIter.
	Batching batching.Strategy

	// Ticks advances the change tick in BeginRun. Default: in-memory source.
	Ticks tick.Source

	// Logger receives store and iterator logs. Default: component logger "store".
	Logger *zerolog.Logger
}

// DefaultConfig returns an in-memory world configuration.
func DefaultConfig() Config {
	return Config{
		Batching: batching.DefaultStrategy(),
		Ticks:    tick.NewMemory(0),
	}
}

// World owns the rows and columns of a record store.
type World struct {
	// mu guards the row bookkeeping and column growth. Column contents are
	// guarded by the ledger instead.
	mu      sync.RWMutex
	alive   []bool
	gens    []uint32
	free    []uint32
	count   int
	columns []column

	ledger     *access.Ledger
	ticks      tick.Source
	changeTick atomic.Uint32
	batching   batching.Strategy
	logger     zerolog.Logger
}

// NewWorld creates an empty world.
func NewWorld(cfg Config) *World {
	if cfg.Ticks == nil {
		cfg.Ticks = tick.NewMemory(0)
	}
	logger := logging.NewLogger("store")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	w := &World{
		ledger:   access.NewLedger(logger),
		ticks:    cfg.Ticks,
		batching: cfg.Batching,
		logger:   logger,
	}
	w.changeTick.Store(1)
	return w
}

// Len returns the number of live entities.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.count
}

// Ledger exposes the world's access ledger.
func (w *World) Ledger() *access.Ledger {
	return w.ledger
}

// ChangeTick returns the tick writes outside a run are stamped with. It is
// always one past the latest run tick, so the following run sees those writes
// as changed.
func (w *World) ChangeTick() tick.Tick {
	return tick.Tick(w.changeTick.Load())
}

// BeginRun advances the tick source and returns the window a run that last
// completed at lastRun should use.
func (w *World) BeginRun(ctx context.Context, lastRun tick.Tick) (tick.Window, error) {
	next, err := w.ticks.Next(ctx)
	if err != nil {
		return tick.Window{}, fmt.Errorf("advance change tick: %w", err)
	}
	w.changeTick.Store(uint32(next + 1))

	w.logger.Trace().
		Uint32("tick", uint32(next)).
		Uint32("last_run", uint32(lastRun)).
		Msg("Run started")
	return tick.NewWindow(lastRun, next), nil
}

// Spawn creates an entity with no components.
func (w *World) Spawn() Entity {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.count++
	if n := len(w.free); n > 0 {
		row := w.free[n-1]
		w.free = w.free[:n-1]
		w.alive[row] = true
		return Entity{Index: row, Generation: w.gens[row]}
	}

	row := uint32(len(w.alive))
	w.alive = append(w.alive, true)
	w.gens = append(w.gens, 0)
	return Entity{Index: row}
}

// Despawn removes an entity and all of its components. It needs exclusive
// access to every column and fails with access.ErrAliasing while any query
// is being iterated.
func (w *World) Despawn(e Entity) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.aliveLocked(e) {
		return ErrNoEntity
	}

	ids := make([]access.ID, len(w.columns))
	for i, c := range w.columns {
		ids[i] = c.id()
	}
	tok, err := w.ledger.Acquire(nil, ids)
	if err != nil {
		return fmt.Errorf("despawn %s: %w", e, err)
	}
	defer tok.Release()

	for _, c := range w.columns {
		c.remove(e.Index)
	}
	w.alive[e.Index] = false
	w.gens[e.Index]++
	w.free = append(w.free, e.Index)
	w.count--
	return nil
}

// Contains reports whether e is alive.
func (w *World) Contains(e Entity) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.aliveLocked(e)
}

func (w *World) aliveLocked(e Entity) bool {
	return int(e.Index) < len(w.alive) && w.alive[e.Index] && w.gens[e.Index] == e.Generation
}

// ParIter acquires access for q and returns a parallel iterator over the rows
// it selects. The iterator owns the token until it is run or released.
func (w *World) ParIter(q *Query, window tick.Window, opts ...pariter.Option) (*pariter.Iter[Item], error) {
	cursor, tok, err := w.open(q, window)
	if err != nil {
		return nil, err
	}

	opts = append([]pariter.Option{
		pariter.WithName(q.name),
		pariter.WithLogger(w.logger),
	}, opts...)
	return pariter.New[Item](cursor, tok, w.batching, opts...), nil
}

// Iter visits every row q selects on the calling goroutine, in row order.
func (w *World) Iter(q *Query, window tick.Window, fn func(Item)) error {
	cursor, tok, err := w.open(q, window)
	if err != nil {
		return err
	}
	defer tok.Release()

	cursor.ForEach(fn)
	return nil
}

func (w *World) open(q *Query, window tick.Window) (*Cursor, *access.Token, error) {
	q = q.frozen()
	for _, c := range q.columns() {
		if c.world() != w {
			return nil, nil, fmt.Errorf("query %s: %w", q.name, ErrForeignComponent)
		}
	}

	tok, err := w.ledger.Acquire(q.reads, q.writes)
	if err != nil {
		return nil, nil, fmt.Errorf("query %s: %w", q.name, err)
	}

	w.mu.RLock()
	entities := w.matchLocked(q, window)
	w.mu.RUnlock()

	w.logger.Trace().
		Str("query", q.name).
		Int("matched", len(entities)).
		Str("window", window.String()).
		Msg("Query opened")

	return &Cursor{query: q, window: window, entities: entities}, tok, nil
}

func (w *World) matchLocked(q *Query, window tick.Window) []Entity {
	var entities []Entity
	for row, alive := range w.alive {
		if !alive {
			continue
		}
		r := uint32(row)
		if q.matches(r, window) {
			entities = append(entities, Entity{Index: r, Generation: w.gens[row]})
		}
	}
	return entities
}
