// Package testutil provides testing utilities for pariter.
package testutil

import (
	"sync"

	"github.com/Sternrassler/pariter/pkg/batching"
	"github.com/Sternrassler/pariter/pkg/pariter"
)

// SliceCursor is a pariter.Cursor over a window of a shared slice. It records
// every split it performs so tests can inspect the batches.
type SliceCursor[T any] struct {
	items []T
	start int
	end   int
	log   *SplitLog
}

// SplitLog collects the ranges produced by SliceCursor.Split.
type SplitLog struct {
	mu      sync.Mutex
	batches []batching.Batch
}

// Batches returns the recorded ranges.
func (l *SplitLog) Batches() []batching.Batch {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]batching.Batch(nil), l.batches...)
}

// NewSliceCursor creates a cursor over all of items.
func NewSliceCursor[T any](items []T) *SliceCursor[T] {
	return &SliceCursor[T]{items: items, end: len(items), log: &SplitLog{}}
}

// Log returns the split log shared by the cursor and its sub-cursors.
func (c *SliceCursor[T]) Log() *SplitLog {
	return c.log
}

// Len implements pariter.Cursor.
func (c *SliceCursor[T]) Len() int {
	return c.end - c.start
}

// Split implements pariter.Cursor.
func (c *SliceCursor[T]) Split(batchSize int) []pariter.Cursor[*T] {
	parts := batching.Partition(c.Len(), batchSize)
	out := make([]pariter.Cursor[*T], 0, len(parts))

	c.log.mu.Lock()
	defer c.log.mu.Unlock()
	for _, b := range parts {
		abs := batching.Batch{Start: c.start + b.Start, End: c.start + b.End}
		c.log.batches = append(c.log.batches, abs)
		out = append(out, &SliceCursor[T]{items: c.items, start: abs.Start, end: abs.End, log: c.log})
	}
	return out
}

// ForEach implements pariter.Cursor. Items are yielded by pointer so batches
// can mutate them.
func (c *SliceCursor[T]) ForEach(fn func(*T)) {
	for i := c.start; i < c.end; i++ {
		fn(&c.items[i])
	}
}

// Token is a pariter.Releaser that counts releases.
type Token struct {
	mu       sync.Mutex
	released int
}

// Release implements pariter.Releaser.
func (t *Token) Release() {
	t.mu.Lock()
	t.released++
	t.mu.Unlock()
}

// Released returns how many times Release was called.
func (t *Token) Released() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released
}
