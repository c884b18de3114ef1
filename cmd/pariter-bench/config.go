package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/Sternrassler/pariter/pkg/batching"
	"github.com/Sternrassler/pariter/pkg/logging"
)

type benchConfig struct {
	Workers      int
	Entities     int
	Frames       int
	Strategy     string
	BatchSize    int
	MinBatchSize int
	MaxBatchSize int
	Shards       int
	RedisAddr    string
	RedisPrefix  string
	MetricsAddr  string
	LogLevel     string
	LogPretty    bool
}

func defaultConfig() benchConfig {
	return benchConfig{
		Entities:     100_000,
		Frames:       60,
		Strategy:     "dense",
		BatchSize:    1024,
		MinBatchSize: 256,
		Shards:       4,
		RedisPrefix:  "pariter:bench",
		LogLevel:     string(logging.LevelInfo),
	}
}

func configFromViper(v *viper.Viper) (benchConfig, error) {
	cfg := benchConfig{
		Workers:      v.GetInt(workersFlag),
		Entities:     v.GetInt(entitiesFlag),
		Frames:       v.GetInt(framesFlag),
		Strategy:     v.GetString(strategyFlag),
		BatchSize:    v.GetInt(batchSizeFlag),
		MinBatchSize: v.GetInt(minBatchFlag),
		MaxBatchSize: v.GetInt(maxBatchFlag),
		Shards:       v.GetInt(shardsFlag),
		RedisAddr:    v.GetString(redisAddrFlag),
		RedisPrefix:  v.GetString(redisPrefixFlag),
		MetricsAddr:  v.GetString(metricsAddrFlag),
		LogLevel:     v.GetString(logLevelFlag),
		LogPretty:    v.GetBool(logPrettyFlag),
	}

	if cfg.Entities < 0 {
		return cfg, fmt.Errorf("%s must be >= 0 (got %d)", entitiesFlag, cfg.Entities)
	}
	if cfg.Frames < 1 {
		return cfg, fmt.Errorf("%s must be >= 1 (got %d)", framesFlag, cfg.Frames)
	}
	if _, err := cfg.strategy(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c benchConfig) strategy() (batching.Strategy, error) {
	kind, err := batching.ParseKind(c.Strategy)
	if err != nil {
		return batching.Strategy{}, err
	}
	if kind == batching.KindFixed {
		return batching.Fixed(c.BatchSize), nil
	}
	return batching.Dense(c.MinBatchSize, c.Shards).WithMaxBatchSize(c.MaxBatchSize), nil
}
