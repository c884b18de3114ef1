package tick

import (
	"context"
	"math"
	"sync"
	"testing"
)

func TestTick_IsNewerThan(t *testing.T) {
	tests := []struct {
		name     string
		tick     Tick
		last     Tick
		this     Tick
		expected bool
	}{
		{name: "written during window", tick: 5, last: 3, this: 6, expected: true},
		{name: "written at this run", tick: 6, last: 3, this: 6, expected: true},
		{name: "written at last run", tick: 3, last: 3, this: 6, expected: false},
		{name: "written before window", tick: 1, last: 3, this: 6, expected: false},
		{name: "window across wrap", tick: 2, last: math.MaxUint32 - 1, this: 4, expected: true},
		{name: "old write across wrap", tick: math.MaxUint32 - 5, last: math.MaxUint32 - 1, this: 4, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.tick.IsNewerThan(tt.last, tt.this)
			if got != tt.expected {
				t.Errorf("Tick(%d).IsNewerThan(%d, %d) = %v, want %v", tt.tick, tt.last, tt.this, got, tt.expected)
			}
			if w := NewWindow(tt.last, tt.this); w.IsChanged(tt.tick) != tt.expected {
				t.Errorf("Window%s.IsChanged(%d) = %v, want %v", w, tt.tick, !tt.expected, tt.expected)
			}
		})
	}
}

func TestWindow_Next(t *testing.T) {
	w := NewWindow(1, 4)
	next := w.Next(9)
	if next.LastRun != 4 || next.ThisRun != 9 {
		t.Errorf("Next(9) = %v, want (4,9]", next)
	}
	if w.LastRun != 1 || w.ThisRun != 4 {
		t.Errorf("Next mutated original window: %v", w)
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	cur, err := m.Current(ctx)
	if err != nil || cur != 10 {
		t.Fatalf("Current() = %d, %v, want 10, nil", cur, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Next(ctx); err != nil {
				t.Errorf("Next() error = %v", err)
			}
		}()
	}
	wg.Wait()

	cur, _ = m.Current(ctx)
	if cur != 60 {
		t.Errorf("Current() after 50 Next calls = %d, want 60", cur)
	}
}

func TestMemory_ZeroValue(t *testing.T) {
	var m Memory
	next, _ := m.Next(context.Background())
	if next != 1 {
		t.Errorf("zero Memory Next() = %d, want 1", next)
	}
}
