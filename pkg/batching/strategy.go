package batching

import (
	"errors"
	"fmt"
)

// ErrNoWorkers is returned when a batch size is requested for zero workers.
// Callers treat it as an unavailable worker pool.
var ErrNoWorkers = errors.New("no workers available")

// Kind selects how the batch size is derived.
type Kind int

const (
	// KindDense sizes batches proportionally to the number of workers.
	KindDense Kind = iota

	// KindFixed uses FixedSize regardless of item and worker counts.
	KindFixed
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindDense:
		return "dense"
	case KindFixed:
		return "fixed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a configuration string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "dense", "":
		return KindDense, nil
	case "fixed":
		return KindFixed, nil
	default:
		return 0, fmt.Errorf("unknown batching strategy %q", s)
	}
}

// Strategy is the batching configuration. It is a plain value and may be
// copied freely.
type Strategy struct {
	// Kind selects the sizing rule.
	Kind Kind

	// FixedSize is the batch size used by KindFixed. Values below 1 mean 1.
	FixedSize int

	// MinBatchSize is the lower bound used by KindDense. Values below 1 mean 1.
	MinBatchSize int

	// MaxBatchSize optionally caps KindDense batches. 0 disables the cap.
	// A cap below MinBatchSize is ignored.
	MaxBatchSize int

	// ShardsPerWorker is the number of batches KindDense aims to give each
	// worker. Values below 1 mean 1.
	ShardsPerWorker int
}

// DefaultStrategy returns a dense strategy with one batch per worker and no
// minimum beyond a single item.
func DefaultStrategy() Strategy {
	return Dense(1, 1)
}

// Fixed returns a strategy that always yields batches of n items.
func Fixed(n int) Strategy {
	return Strategy{Kind: KindFixed, FixedSize: n}
}

// Dense returns a worker-proportional strategy.
func Dense(minBatchSize, shardsPerWorker int) Strategy {
	return Strategy{
		Kind:            KindDense,
		MinBatchSize:    minBatchSize,
		ShardsPerWorker: shardsPerWorker,
	}
}

// WithMaxBatchSize returns a copy of s with the dense upper bound set.
func (s Strategy) WithMaxBatchSize(n int) Strategy {
	s.MaxBatchSize = n
	return s
}

// BatchSize returns the number of items each batch should hold.
//
// The result is always at least 1. Zero workers yields ErrNoWorkers rather
// than a division by zero.
func (s Strategy) BatchSize(totalItems, workers int) (int, error) {
	if workers <= 0 {
		return 0, ErrNoWorkers
	}

	switch s.Kind {
	case KindFixed:
		return atLeastOne(s.FixedSize), nil
	case KindDense:
		return s.denseSize(totalItems, workers), nil
	default:
		return 0, fmt.Errorf("unsupported batching kind %s", s.Kind)
	}
}

func (s Strategy) denseSize(totalItems, workers int) int {
	minSize := atLeastOne(s.MinBatchSize)

	// More batches than items only yields size 1, so capping at totalItems
	// keeps the product in range for huge shard counts.
	shards := atLeastOne(s.ShardsPerWorker)
	batches := atLeastOne(totalItems)
	if shards <= batches/workers {
		batches = workers * shards
	}

	size := 0
	if totalItems > 0 {
		size = (totalItems + batches - 1) / batches
	}
	if size < minSize {
		size = minSize
	}
	if s.MaxBatchSize >= minSize && size > s.MaxBatchSize {
		size = s.MaxBatchSize
	}
	return size
}

// String renders the strategy for logs.
func (s Strategy) String() string {
	if s.Kind == KindFixed {
		return fmt.Sprintf("fixed(%d)", atLeastOne(s.FixedSize))
	}
	return fmt.Sprintf("dense(min=%d,max=%d,shards=%d)",
		atLeastOne(s.MinBatchSize), s.MaxBatchSize, atLeastOne(s.ShardsPerWorker))
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
