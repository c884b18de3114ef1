package pariter

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/pariter/pkg/batching"
	"github.com/Sternrassler/pariter/pkg/logging"
	"github.com/Sternrassler/pariter/pkg/taskpool"
)

// Common errors raised by an Iter. Both are programmer errors and are raised
// by panicking with the error value.
var (
	// ErrConsumed is raised when an Iter is run or used after it was consumed.
	ErrConsumed = errors.New("parallel iterator already consumed")

	// ErrPoolUnavailable is raised when no compute pool is available. It
	// wraps taskpool.ErrPoolUnavailable.
	ErrPoolUnavailable = fmt.Errorf("parallel iteration: %w", taskpool.ErrPoolUnavailable)
)

// Option configures an Iter.
type Option func(*options)

type options struct {
	name   string
	pool   *taskpool.Pool
	logger *zerolog.Logger
}

// WithName labels the iterator in logs and metrics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithPool runs batches on p instead of the process-wide pool.
func WithPool(p *taskpool.Pool) Option {
	return func(o *options) { o.pool = p }
}

// WithLogger sets the logger used for run summaries.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = &logger }
}

// Iter is a one-shot parallel iterator over a Cursor.
type Iter[I any] struct {
	cursor   Cursor[I]
	token    Releaser
	strategy batching.Strategy
	pool     *taskpool.Pool
	name     string
	logger   zerolog.Logger
	consumed atomic.Bool
}

// New creates an Iter that takes ownership of token. token may be nil when the
// caller guarantees exclusivity some other way.
func New[I any](cursor Cursor[I], token Releaser, strategy batching.Strategy, opts ...Option) *Iter[I] {
	o := options{name: "default"}
	for _, opt := range opts {
		opt(&o)
	}
	if token == nil {
		token = noopReleaser{}
	}

	logger := logging.NewLogger("pariter")
	if o.logger != nil {
		logger = *o.logger
	}

	return &Iter[I]{
		cursor:   cursor,
		token:    token,
		strategy: strategy,
		pool:     o.pool,
		name:     o.name,
		logger:   logger,
	}
}

// WithBatchingStrategy replaces the batching strategy. The last call before
// the run wins.
func (it *Iter[I]) WithBatchingStrategy(strategy batching.Strategy) *Iter[I] {
	it.strategy = strategy
	return it
}

// BatchingStrategy returns the strategy the run will use.
func (it *Iter[I]) BatchingStrategy() batching.Strategy {
	return it.strategy
}

// Consumed reports whether the Iter has been run or released.
func (it *Iter[I]) Consumed() bool {
	return it.consumed.Load()
}

// Release drops an Iter that will not be run and returns its token. It is a
// no-op on an Iter that was already run or released.
func (it *Iter[I]) Release() {
	if it.consumed.CompareAndSwap(false, true) {
		it.token.Release()
	}
}

// ForEach runs fn on every item in parallel and returns once all items have
// been visited.
//
// Panics with ErrConsumed on a second call and with ErrPoolUnavailable if no
// compute pool is available. A panic inside fn, or a pool closed mid-run, is
// raised here only after every submitted batch has finished.
func (it *Iter[I]) ForEach(fn func(I)) {
	ForEachInit(it, func() struct{} { return struct{}{} }, func(_ *struct{}, item I) {
		fn(item)
	})
}

// ForEachInit runs fn on every item in parallel, passing a per-batch value
// created by init.
//
// init is called once for every batch, not once per worker goroutine, and its
// values are dropped when their batch ends. It is not called at all for an
// empty result set. Do not treat this as a parallel fold; aggregate across
// batches through externally synchronised storage such as collect.Slots.
func ForEachInit[I, T any](it *Iter[I], init func() T, fn func(*T, I)) {
	if !it.consumed.CompareAndSwap(false, true) {
		panic(ErrConsumed)
	}
	defer it.token.Release()

	pool := it.pool
	if pool == nil {
		var err error
		if pool, err = taskpool.Get(); err != nil {
			panic(ErrPoolUnavailable)
		}
	}
	workers := pool.Workers()
	if workers == 0 {
		panic(ErrPoolUnavailable)
	}

	total := it.cursor.Len()
	if total == 0 {
		return
	}

	size, err := it.strategy.BatchSize(total, workers)
	if err != nil {
		if errors.Is(err, batching.ErrNoWorkers) {
			panic(ErrPoolUnavailable)
		}
		panic(fmt.Errorf("parallel iteration: %w", err))
	}

	start := time.Now()
	batches := it.cursor.Split(size)

	g := pool.Group()
	for _, batch := range batches {
		g.Go(func() {
			acc := init()
			batch.ForEach(func(item I) {
				fn(&acc, item)
			})
		})
	}
	g.Wait()

	elapsed := time.Since(start)
	runsTotal.WithLabelValues(it.name).Inc()
	batchesTotal.WithLabelValues(it.name).Add(float64(len(batches)))
	itemsTotal.WithLabelValues(it.name).Add(float64(total))
	batchSize.WithLabelValues(it.name).Observe(float64(size))
	runDuration.WithLabelValues(it.name).Observe(elapsed.Seconds())

	it.logger.Debug().
		Str("iter", it.name).
		Int("items", total).
		Int("batch_size", size).
		Int("batches", len(batches)).
		Int("workers", workers).
		Str("strategy", it.strategy.String()).
		Dur("duration", elapsed).
		Msg("Parallel run complete")
}
