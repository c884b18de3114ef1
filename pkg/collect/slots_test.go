package collect

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlots_ConcurrentBorrow(t *testing.T) {
	var s Slots[int]

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slot := s.Borrow()
			for j := 0; j < 10; j++ {
				*slot++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 64, s.Len())
	assert.Equal(t, 640, s.Sum(func(n int) int { return n }))
}

func TestSlots_Drain(t *testing.T) {
	var s Slots[[]string]
	*s.Borrow() = []string{"a"}
	*s.Borrow() = []string{"b", "c"}

	got := s.Drain()
	assert.Equal(t, [][]string{{"a"}, {"b", "c"}}, got)
	assert.Zero(t, s.Len())
}

func TestSlots_Reset(t *testing.T) {
	var s Slots[int]
	*s.Borrow() = 3
	s.Reset()
	assert.Zero(t, s.Sum(func(n int) int { return n }))
}

func TestReduce(t *testing.T) {
	var s Slots[float64]
	*s.Borrow() = 1.5
	*s.Borrow() = 2.5

	maxValue := Reduce(&s, 0.0, func(acc, v float64) float64 {
		if v > acc {
			return v
		}
		return acc
	})
	assert.Equal(t, 2.5, maxValue)
}
