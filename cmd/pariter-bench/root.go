package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	workersFlag      = "workers"
	entitiesFlag     = "entities"
	framesFlag       = "frames"
	strategyFlag     = "strategy"
	batchSizeFlag    = "batch-size"
	minBatchFlag     = "min-batch-size"
	maxBatchFlag     = "max-batch-size"
	shardsFlag       = "shards"
	redisAddrFlag    = "redis-addr"
	redisPrefixFlag  = "redis-prefix"
	metricsAddrFlag  = "metrics-addr"
	logLevelFlag     = "log-level"
	logPrettyFlag    = "log-pretty"
	defaultEnvPrefix = "PARITER"
)

// newRootCommand reads flags from the command line, environment variables
// prefixed with PARITER, or config.yaml (in that order).
func newRootCommand() *cobra.Command {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix(defaultEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, path := range []string{"/etc/pariter", "$HOME/.pariter", "."} {
		v.AddConfigPath(path)
	}

	cmd := &cobra.Command{
		Use:   "pariter-bench",
		Short: "Run a particle simulation through the parallel query engine",
		Long: `Spawns a world of moving particles and advances it frame by frame,
iterating the movement and damage queries in parallel on a fixed compute pool.

Use it to compare batching strategies and worker counts on real hardware.`,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := v.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					return err
				}
			}
			return bindFlags(v, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFromViper(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	defaults := defaultConfig()
	flags.Int(workersFlag, defaults.Workers, "compute pool size (0 = GOMAXPROCS)")
	flags.Int(entitiesFlag, defaults.Entities, "number of particles to spawn")
	flags.Int(framesFlag, defaults.Frames, "number of frames to simulate")
	flags.String(strategyFlag, defaults.Strategy, "batching strategy: dense or fixed")
	flags.Int(batchSizeFlag, defaults.BatchSize, "batch size for the fixed strategy")
	flags.Int(minBatchFlag, defaults.MinBatchSize, "minimum batch size for the dense strategy")
	flags.Int(maxBatchFlag, defaults.MaxBatchSize, "maximum batch size for the dense strategy (0 = unbounded)")
	flags.Int(shardsFlag, defaults.Shards, "batches per worker for the dense strategy")
	flags.String(redisAddrFlag, "", "share the change tick through Redis at this address")
	flags.String(redisPrefixFlag, defaults.RedisPrefix, "Redis key prefix for tick state")
	flags.String(metricsAddrFlag, "", "serve Prometheus metrics on this address, e.g. :9090")
	flags.String(logLevelFlag, defaults.LogLevel, "log level: trace, debug, info, warn, error")
	flags.Bool(logPrettyFlag, false, "human-readable console logs")

	return cmd
}

// bindFlags binds the cobra flags to the equivalent viper keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(f.Name, f)
	})
	return bindErr
}
