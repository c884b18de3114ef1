// Package collect gathers per-batch accumulators for aggregation after a
// parallel run.
//
// Use Slots.Borrow as the init function of pariter.ForEachInit: every batch
// gets a fresh slot it owns exclusively, and once the run has returned the
// caller combines the slots on a single goroutine.
package collect

import "sync"

// Slots is a set of independently owned accumulators. The zero value is ready
// to use. Borrow may be called concurrently; Each, Len, Reset and Sum must not
// run concurrently with Borrow.
type Slots[T any] struct {
	mu    sync.Mutex
	slots []*T
}

// Borrow allocates a new zero slot and returns it.
func (s *Slots[T]) Borrow() *T {
	slot := new(T)
	s.mu.Lock()
	s.slots = append(s.slots, slot)
	s.mu.Unlock()
	return slot
}

// Len returns the number of slots handed out.
func (s *Slots[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// Each calls fn for every slot in borrow order.
func (s *Slots[T]) Each(fn func(*T)) {
	s.mu.Lock()
	slots := s.slots
	s.mu.Unlock()
	for _, slot := range slots {
		fn(slot)
	}
}

// Reset drops every slot.
func (s *Slots[T]) Reset() {
	s.mu.Lock()
	s.slots = nil
	s.mu.Unlock()
}

// Drain returns the slot values and resets s.
func (s *Slots[T]) Drain() []T {
	s.mu.Lock()
	slots := s.slots
	s.slots = nil
	s.mu.Unlock()

	out := make([]T, len(slots))
	for i, slot := range slots {
		out[i] = *slot
	}
	return out
}

// Sum adds up the slots after mapping each through fn.
func (s *Slots[T]) Sum(fn func(T) int) int {
	total := 0
	s.Each(func(slot *T) {
		total += fn(*slot)
	})
	return total
}

// Reduce folds the slots in borrow order.
func Reduce[T, R any](s *Slots[T], acc R, fn func(R, T) R) R {
	s.Each(func(slot *T) {
		acc = fn(acc, *slot)
	})
	return acc
}
