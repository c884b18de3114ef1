package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/pariter/pkg/logging"
	"github.com/Sternrassler/pariter/pkg/metrics"
	"github.com/Sternrassler/pariter/pkg/store"
	"github.com/Sternrassler/pariter/pkg/taskpool"
	"github.com/Sternrassler/pariter/pkg/tick"
)

const shutdownTimeout = 5 * time.Second

func run(ctx context.Context, cfg benchConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
	})

	poolCfg := taskpool.DefaultConfig()
	if cfg.Workers > 0 {
		poolCfg.Workers = cfg.Workers
	}
	pool, err := taskpool.Init(poolCfg)
	if err != nil {
		return err
	}
	defer taskpool.Shutdown()

	strategy, err := cfg.strategy()
	if err != nil {
		return err
	}
	worldCfg := store.DefaultConfig()
	worldCfg.Batching = strategy

	var lastRun lastRunStore = memoryLastRun{}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return err
		}
		source := tick.NewRedis(client, tick.RedisConfig{Prefix: cfg.RedisPrefix}, logging.NewLogger("tick"))
		worldCfg.Ticks = source
		lastRun = source
	}

	logger.Info().
		Int("workers", pool.Workers()).
		Int("entities", cfg.Entities).
		Int("frames", cfg.Frames).
		Str("strategy", strategy.String()).
		Bool("redis", cfg.RedisAddr != "").
		Msg("Starting simulation")

	sim, err := newSimulation(ctx, worldCfg, lastRun, cfg.Entities, uint64(time.Now().UnixNano()), logging.NewLogger("store"))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	var server *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		server = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("Serving metrics")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		if server != nil {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
			}()
		}
		return simulate(gctx, sim, cfg.Frames, logger)
	})

	return g.Wait()
}

// simulate runs the given number of frames and logs a summary. It stops early
// without error when ctx is cancelled.
func simulate(ctx context.Context, sim *simulation, frames int, logger zerolog.Logger) error {
	var total, slowest time.Duration
	var last frameStats

	done := 0
	for ; done < frames; done++ {
		if ctx.Err() != nil {
			logger.Warn().Int("frames", done).Msg("Simulation interrupted")
			break
		}

		stats, err := sim.step(ctx)
		if err != nil {
			return err
		}
		total += stats.Duration
		slowest = max(slowest, stats.Duration)
		last = stats

		logger.Debug().
			Int("frame", done).
			Int("moved", stats.Moved).
			Int("damaged", stats.Damaged).
			Int("killed", stats.Killed).
			Int("wounded", stats.Wounded).
			Dur("duration", stats.Duration).
			Msg("Frame complete")
	}

	var mean time.Duration
	if done > 0 {
		mean = total / time.Duration(done)
	}
	logger.Info().
		Int("frames", done).
		Int("moving", last.Moved).
		Dur("mean_frame", mean).
		Dur("slowest_frame", slowest).
		Msg("Simulation finished")
	return nil
}
