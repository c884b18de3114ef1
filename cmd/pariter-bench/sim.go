package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/pariter/pkg/batching"
	"github.com/Sternrassler/pariter/pkg/collect"
	"github.com/Sternrassler/pariter/pkg/pariter"
	"github.com/Sternrassler/pariter/pkg/store"
	"github.com/Sternrassler/pariter/pkg/tick"
)

const (
	arenaSize   = 1000.0
	maxSpeed    = 5.0
	wallDamage  = 10.0
	startHealth = 100.0
)

// System names double as metric labels and Redis last-run fields.
const (
	systemMove   = "move"
	systemDamage = "damage"
	systemReport = "report"
)

type vec2 struct{ X, Y float64 }

type dead struct{}

// simulation is a world of particles drifting across an arena. Particles
// outside the arena lose health every frame and are tagged dead once it
// reaches zero.
type simulation struct {
	world    *store.World
	ticks    lastRunStore
	strategy batching.Strategy
	logger   zerolog.Logger

	position *store.Column[vec2]
	velocity *store.Column[vec2]
	health   *store.Column[float64]
	dead     *store.Column[dead]

	move   *store.Query
	damage *store.Query
	report *store.Query

	lastRun map[string]tick.Tick
}

// lastRunStore persists per-system last-run ticks between frames and, with
// Redis, between processes.
type lastRunStore interface {
	LoadLastRun(ctx context.Context, system string) (tick.Tick, error)
	SaveLastRun(ctx context.Context, system string, t tick.Tick) error
}

// memoryLastRun keeps last-run ticks for a single process.
type memoryLastRun map[string]tick.Tick

func (m memoryLastRun) LoadLastRun(_ context.Context, system string) (tick.Tick, error) {
	return m[system], nil
}

func (m memoryLastRun) SaveLastRun(_ context.Context, system string, t tick.Tick) error {
	m[system] = t
	return nil
}

// frameStats summarises one frame.
type frameStats struct {
	Moved    int
	Damaged  int
	Killed   int
	Wounded  int
	Duration time.Duration
}

func newSimulation(ctx context.Context, cfg store.Config, ticks lastRunStore, entities int, seed uint64, logger zerolog.Logger) (*simulation, error) {
	cfg.Logger = &logger
	w := store.NewWorld(cfg)

	s := &simulation{
		world:    w,
		ticks:    ticks,
		strategy: cfg.Batching,
		logger:   logger,
		position: store.Register[vec2](w, "position"),
		velocity: store.Register[vec2](w, "velocity"),
		health:   store.Register[float64](w, "health"),
		dead:     store.Register[dead](w, "dead"),
		lastRun:  make(map[string]tick.Tick, 3),
	}
	s.move = store.NewQuery(systemMove).Write(s.position).Read(s.velocity).Without(s.dead)
	s.damage = store.NewQuery(systemDamage).Write(s.health).Read(s.position).Without(s.dead)
	s.report = store.NewQuery(systemReport).Read(s.health).Changed(s.health)

	for _, name := range []string{systemMove, systemDamage, systemReport} {
		t, err := ticks.LoadLastRun(ctx, name)
		if err != nil {
			return nil, err
		}
		s.lastRun[name] = t
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := 0; i < entities; i++ {
		e := w.Spawn()
		pos := vec2{X: rng.Float64() * arenaSize, Y: rng.Float64() * arenaSize}
		vel := vec2{X: (rng.Float64()*2 - 1) * maxSpeed, Y: (rng.Float64()*2 - 1) * maxSpeed}
		if err := store.Insert(s.position, e, pos); err != nil {
			return nil, err
		}
		if err := store.Insert(s.velocity, e, vel); err != nil {
			return nil, err
		}
		if err := store.Insert(s.health, e, startHealth); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// step advances every system once.
func (s *simulation) step(ctx context.Context) (frameStats, error) {
	start := time.Now()
	var stats frameStats

	moved, err := s.runMove(ctx)
	if err != nil {
		return stats, err
	}
	stats.Moved = moved

	killed, damaged, err := s.runDamage(ctx)
	if err != nil {
		return stats, err
	}
	stats.Damaged = damaged

	// Tags are inserted sequentially: no iterator holds a token here.
	for _, e := range killed {
		if err := store.Insert(s.dead, e, dead{}); err != nil {
			return stats, err
		}
	}
	stats.Killed = len(killed)

	wounded, err := s.runReport(ctx)
	if err != nil {
		return stats, err
	}
	stats.Wounded = wounded

	stats.Duration = time.Since(start)
	return stats, nil
}

// system opens a parallel iterator for q, hands it to run and records the
// system's last-run tick.
func (s *simulation) system(ctx context.Context, q *store.Query, run func(*pariter.Iter[store.Item])) error {
	name := q.Name()
	window, err := s.world.BeginRun(ctx, s.lastRun[name])
	if err != nil {
		return err
	}

	it, err := s.world.ParIter(q, window)
	if err != nil {
		return fmt.Errorf("system %s: %w", name, err)
	}
	run(it.WithBatchingStrategy(s.strategy))

	s.lastRun[name] = window.ThisRun
	return s.ticks.SaveLastRun(ctx, name, window.ThisRun)
}

func (s *simulation) runMove(ctx context.Context) (int, error) {
	var counts collect.Slots[int]
	err := s.system(ctx, s.move, func(it *pariter.Iter[store.Item]) {
		pariter.ForEachInit(it, counts.Borrow, func(n **int, item store.Item) {
			vel := store.Read(item, s.velocity)
			pos := store.Write(item, s.position)
			pos.X += vel.X
			pos.Y += vel.Y
			**n++
		})
	})
	return counts.Sum(func(n int) int { return n }), err
}

func (s *simulation) runDamage(ctx context.Context) ([]store.Entity, int, error) {
	type batchResult struct {
		damaged int
		killed  []store.Entity
	}
	var results collect.Slots[batchResult]

	err := s.system(ctx, s.damage, func(it *pariter.Iter[store.Item]) {
		pariter.ForEachInit(it, results.Borrow, func(acc **batchResult, item store.Item) {
			pos := store.Read(item, s.position)
			if pos.X >= 0 && pos.X <= arenaSize && pos.Y >= 0 && pos.Y <= arenaSize {
				return
			}
			hp := store.Write(item, s.health)
			*hp -= wallDamage
			(*acc).damaged++
			if *hp <= 0 {
				(*acc).killed = append((*acc).killed, item.Entity())
			}
		})
	})
	if err != nil {
		return nil, 0, err
	}

	var killed []store.Entity
	damaged := collect.Reduce(&results, 0, func(total int, r batchResult) int {
		killed = append(killed, r.killed...)
		return total + r.damaged
	})
	return killed, damaged, nil
}

// runReport counts living particles whose health changed since the report
// last ran. On a fresh world the first report sees every particle.
func (s *simulation) runReport(ctx context.Context) (int, error) {
	var counts collect.Slots[int]
	err := s.system(ctx, s.report, func(it *pariter.Iter[store.Item]) {
		pariter.ForEachInit(it, counts.Borrow, func(n **int, item store.Item) {
			if store.Read(item, s.health) > 0 {
				**n++
			}
		})
	})
	return counts.Sum(func(n int) int { return n }), err
}
