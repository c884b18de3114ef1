package taskpool

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"
)

var (
	workersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "taskpool_workers",
		Help: "Number of workers in the process-wide compute pool",
	})

	tasksSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskpool_tasks_submitted_total",
		Help: "Total number of functions submitted to compute pools",
	})

	taskPanics = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskpool_task_panics_total",
		Help: "Total number of submitted functions that panicked",
	})
)

// ErrPoolUnavailable is returned when no compute pool has been initialised or
// the pool reports zero workers.
var ErrPoolUnavailable = errors.New("compute pool not initialized")

// Config holds pool configuration.
type Config struct {
	// Workers is the number of goroutines executing submitted work.
	// Default: runtime.GOMAXPROCS(0).
	Workers int

	// ExpiryDuration is how long an idle worker goroutine is kept alive.
	ExpiryDuration time.Duration

	// PreAlloc allocates the worker queue up front.
	PreAlloc bool
}

// DefaultConfig returns one worker per usable CPU.
func DefaultConfig() Config {
	return Config{
		Workers:        runtime.GOMAXPROCS(0),
		ExpiryDuration: 10 * time.Second,
		PreAlloc:       true,
	}
}

// Pool is a fixed-size worker pool.
type Pool struct {
	ants    *ants.Pool
	workers int
	logger  zerolog.Logger
}

// New creates a pool.
func New(cfg Config, logger zerolog.Logger) (*Pool, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.ExpiryDuration <= 0 {
		cfg.ExpiryDuration = 10 * time.Second
	}

	p, err := ants.NewPool(cfg.Workers,
		ants.WithExpiryDuration(cfg.ExpiryDuration),
		ants.WithPreAlloc(cfg.PreAlloc),
		ants.WithNonblocking(false),
	)
	if err != nil {
		return nil, fmt.Errorf("create ants pool: %w", err)
	}

	logger.Debug().
		Int("workers", cfg.Workers).
		Dur("expiry", cfg.ExpiryDuration).
		Msg("Compute pool created")

	return &Pool{
		ants:    p,
		workers: cfg.Workers,
		logger:  logger,
	}, nil
}

// Workers returns the pool capacity.
func (p *Pool) Workers() int {
	if p == nil || p.ants.IsClosed() {
		return 0
	}
	return p.workers
}

// Running returns the number of workers currently executing a function.
func (p *Pool) Running() int {
	return p.ants.Running()
}

// Close stops the pool. Functions already running finish; further
// submissions panic.
func (p *Pool) Close() {
	p.ants.Release()
	p.logger.Debug().Msg("Compute pool closed")
}

// Group starts a new submit-and-join group on the pool.
func (p *Pool) Group() *Group {
	return &Group{pool: p}
}

// Group is a set of functions submitted together and awaited together.
// Go and Wait must be called from the goroutine that owns the Group, and a
// Group must not be reused after Wait returns.
type Group struct {
	pool      *Pool
	wg        sync.WaitGroup
	catcher   panics.Catcher
	submitErr error
}

// Go submits fn. It blocks while every worker is busy. Once a submission has
// failed (the pool was closed) later calls are dropped; Wait reports the
// failure after joining everything already submitted.
func (g *Group) Go(fn func()) {
	if g.submitErr != nil {
		return
	}
	g.wg.Add(1)
	err := g.pool.ants.Submit(func() {
		defer g.wg.Done()
		g.catcher.Try(fn)
	})
	if err != nil {
		g.wg.Done()
		g.submitErr = fmt.Errorf("submit to compute pool: %w", err)
		return
	}
	tasksSubmitted.Inc()
}

// Wait blocks until every submitted function has returned. It then panics if
// any of them panicked, with an error carrying the first recovered value and
// its stack, or if a submission failed, since the caller can no longer rely
// on every function having run.
func (g *Group) Wait() {
	g.wg.Wait()
	if r := g.catcher.Recovered(); r != nil {
		taskPanics.Inc()
		g.pool.logger.Error().
			Str("panic", fmt.Sprint(r.Value)).
			Msg("Compute pool task panicked")
		panic(r.AsError())
	}
	if g.submitErr != nil {
		g.pool.logger.Error().
			Err(g.submitErr).
			Msg("Compute pool refused a task")
		panic(g.submitErr)
	}
}
