package tick

import (
	"context"
	"sync/atomic"
)

// Source hands out change ticks. Next advances the clock and returns the new
// value; Current returns the latest value without advancing.
type Source interface {
	Next(ctx context.Context) (Tick, error)
	Current(ctx context.Context) (Tick, error)
}

// Memory is an in-process Source. The zero value starts at tick 0.
type Memory struct {
	value atomic.Uint32
}

// NewMemory creates a memory source starting at the given tick.
func NewMemory(start Tick) *Memory {
	m := &Memory{}
	m.value.Store(uint32(start))
	return m
}

// Next implements Source.
func (m *Memory) Next(_ context.Context) (Tick, error) {
	return Tick(m.value.Add(1)), nil
}

// Current implements Source.
func (m *Memory) Current(_ context.Context) (Tick, error) {
	return Tick(m.value.Load()), nil
}
