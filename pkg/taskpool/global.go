package taskpool

import (
	"sync"

	"github.com/Sternrassler/pariter/pkg/logging"
)

var (
	globalMu   sync.RWMutex
	globalPool *Pool
)

// Init creates the process-wide pool. Only the first successful call creates a
// pool; later calls return the existing one and ignore cfg.
func Init(cfg Config) (*Pool, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool != nil {
		return globalPool, nil
	}

	logger := logging.NewLogger("taskpool")
	p, err := New(cfg, logger)
	if err != nil {
		return nil, err
	}
	globalPool = p
	workersGauge.Set(float64(p.workers))

	logger.Info().
		Int("workers", p.workers).
		Msg("Compute pool initialized")
	return p, nil
}

// Get returns the process-wide pool, or ErrPoolUnavailable if the host has not
// called Init.
func Get() (*Pool, error) {
	globalMu.RLock()
	defer globalMu.RUnlock()

	if globalPool == nil || globalPool.Workers() == 0 {
		return nil, ErrPoolUnavailable
	}
	return globalPool, nil
}

// IsInitialized reports whether Get would succeed.
func IsInitialized() bool {
	_, err := Get()
	return err == nil
}

// Shutdown closes the process-wide pool. Init may be called again afterwards.
func Shutdown() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPool == nil {
		return
	}
	globalPool.Close()
	globalPool = nil
	workersGauge.Set(0)
	logger := logging.NewLogger("taskpool")
	logger.Info().Msg("Compute pool shut down")
}
