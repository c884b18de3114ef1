// Package batching decides how a result set is cut into batches for parallel
// iteration.
//
// A Strategy turns (total items, available workers) into a batch size, and
// Partition turns (total items, batch size) into contiguous half-open ranges.
// Both are pure functions of their inputs and safe to call from any goroutine.
//
// Two strategy kinds exist:
//
//   - Fixed: every batch has the same configured size (never less than 1).
//     Useful for reproducible tests and for workloads with uniform per-item cost.
//   - Dense: aims for roughly workers*ShardsPerWorker batches so that workers
//     finishing early can pick up more work, but never produces batches smaller
//     than MinBatchSize, so per-task scheduling overhead cannot dominate.
//
// Example:
//
//	s := batching.Dense(64, 4)
//	size, err := s.BatchSize(10_000, 8) // ceil(10000/32) = 313
//	batches := batching.Partition(10_000, size)
package batching
