// Command pariter-bench runs a particle simulation through the parallel query
// engine and reports per-frame timings.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("pariter-bench failed")
		os.Exit(1)
	}
}
