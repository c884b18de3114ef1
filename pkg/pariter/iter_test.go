package pariter_test

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/pariter/internal/testutil"
	"github.com/Sternrassler/pariter/pkg/batching"
	"github.com/Sternrassler/pariter/pkg/pariter"
	"github.com/Sternrassler/pariter/pkg/taskpool"
)

func TestForEach_IncrementsEveryItemOnce(t *testing.T) {
	strategies := []batching.Strategy{
		batching.DefaultStrategy(),
		batching.Fixed(0),
		batching.Fixed(1),
		batching.Fixed(7),
		batching.Fixed(10_000),
		batching.Dense(2, 1),
		batching.Dense(1, 4),
		batching.Dense(16, 3).WithMaxBatchSize(32),
	}
	sizes := []int{0, 1, 7, 64, 1000, 4099}
	workerCounts := []int{1, 2, 3, 8}

	for _, workers := range workerCounts {
		pool := testutil.NewPool(t, workers)
		for _, strategy := range strategies {
			for _, n := range sizes {
				name := fmt.Sprintf("workers=%d/%s/n=%d", workers, strategy, n)
				t.Run(name, func(t *testing.T) {
					items := make([]int, n)
					cursor := testutil.NewSliceCursor(items)

					it := pariter.New[*int](cursor, nil, strategy, pariter.WithPool(pool))
					it.ForEach(func(v *int) { *v++ })

					for i, v := range items {
						if v != 1 {
							t.Fatalf("item %d = %d, want 1", i, v)
						}
					}
				})
			}
		}
	}
}

func TestForEach_BatchesPartitionResultSet(t *testing.T) {
	pool := testutil.NewPool(t, 2)
	items := make([]int, 7)
	cursor := testutil.NewSliceCursor(items)

	pariter.New[*int](cursor, nil, batching.Dense(2, 1), pariter.WithPool(pool)).
		ForEach(func(*int) {})

	assert.Equal(t, []batching.Batch{{Start: 0, End: 4}, {Start: 4, End: 7}}, cursor.Log().Batches())
}

func TestForEachInit_InitCalledPerBatch(t *testing.T) {
	pool := testutil.NewPool(t, 3)
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	cursor := testutil.NewSliceCursor(items)

	var (
		inits atomic.Int64
		mu    sync.Mutex
		sums  []*int
	)
	init := func() *int {
		inits.Add(1)
		s := new(int)
		mu.Lock()
		sums = append(sums, s)
		mu.Unlock()
		return s
	}

	it := pariter.New[*int](cursor, nil, batching.Fixed(10), pariter.WithPool(pool))
	pariter.ForEachInit(it, init, func(acc **int, v *int) {
		**acc += *v
	})

	assert.Equal(t, int64(10), inits.Load(), "one init per batch")

	total := 0
	for _, s := range sums {
		total += *s
	}
	assert.Equal(t, 4950, total)
}

func TestForEachInit_OrderWithinBatch(t *testing.T) {
	pool := testutil.NewPool(t, 4)
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}
	cursor := testutil.NewSliceCursor(items)

	var (
		mu   sync.Mutex
		runs []*[]int
	)
	it := pariter.New[*int](cursor, nil, batching.Fixed(8), pariter.WithPool(pool))
	pariter.ForEachInit(it,
		func() *[]int {
			seen := &[]int{}
			mu.Lock()
			runs = append(runs, seen)
			mu.Unlock()
			return seen
		},
		func(seen **[]int, v *int) {
			**seen = append(**seen, *v)
		})

	require.Len(t, runs, 7)
	visited := 0
	for _, run := range runs {
		visited += len(*run)
		for i := 1; i < len(*run); i++ {
			require.Equal(t, (*run)[i-1]+1, (*run)[i], "items within a batch must follow cursor order: %v", *run)
		}
	}
	assert.Equal(t, 50, visited)
}

func TestForEachInit_EmptyCursor(t *testing.T) {
	pool := testutil.NewPool(t, 2)
	token := &testutil.Token{}
	cursor := testutil.NewSliceCursor([]int{})

	var inits, calls atomic.Int64
	it := pariter.New[*int](cursor, token, batching.DefaultStrategy(), pariter.WithPool(pool))
	pariter.ForEachInit(it,
		func() int { inits.Add(1); return 0 },
		func(*int, *int) { calls.Add(1) })

	assert.Zero(t, inits.Load())
	assert.Zero(t, calls.Load())
	assert.Empty(t, cursor.Log().Batches())
	assert.Equal(t, 1, token.Released())
}

func TestForEach_ReuseFailsFast(t *testing.T) {
	pool := testutil.NewPool(t, 2)
	token := &testutil.Token{}
	items := make([]int, 10)

	it := pariter.New[*int](testutil.NewSliceCursor(items), token, batching.DefaultStrategy(), pariter.WithPool(pool))
	it.ForEach(func(v *int) { *v++ })
	require.True(t, it.Consumed())

	assert.PanicsWithValue(t, pariter.ErrConsumed, func() {
		it.ForEach(func(v *int) { *v++ })
	})
	for _, v := range items {
		assert.Equal(t, 1, v)
	}
	assert.Equal(t, 1, token.Released(), "token released exactly once")
}

func TestRelease_PreventsRun(t *testing.T) {
	token := &testutil.Token{}
	it := pariter.New[*int](testutil.NewSliceCursor([]int{1}), token, batching.DefaultStrategy())

	it.Release()
	it.Release()
	assert.Equal(t, 1, token.Released())

	assert.PanicsWithValue(t, pariter.ErrConsumed, func() {
		it.ForEach(func(*int) {})
	})
}

func TestForEach_PoolUnavailable(t *testing.T) {
	taskpool.Shutdown()
	token := &testutil.Token{}
	it := pariter.New[*int](testutil.NewSliceCursor([]int{1, 2}), token, batching.DefaultStrategy())

	var calls atomic.Int64
	assert.PanicsWithValue(t, pariter.ErrPoolUnavailable, func() {
		it.ForEach(func(*int) { calls.Add(1) })
	})
	assert.Zero(t, calls.Load())
	assert.Equal(t, 1, token.Released(), "token released even when the run aborts")
	assert.True(t, errors.Is(pariter.ErrPoolUnavailable, taskpool.ErrPoolUnavailable))
}

func TestForEach_UsesGlobalPool(t *testing.T) {
	testutil.InitGlobalPool(t, 4)

	items := make([]int, 500)
	pariter.New[*int](testutil.NewSliceCursor(items), nil, batching.Dense(8, 2)).
		ForEach(func(v *int) { *v += 2 })

	for _, v := range items {
		require.Equal(t, 2, v)
	}
}

func TestWithBatchingStrategy_LastWins(t *testing.T) {
	pool := testutil.NewPool(t, 2)
	cursor := testutil.NewSliceCursor(make([]int, 12))

	it := pariter.New[*int](cursor, nil, batching.Fixed(1), pariter.WithPool(pool)).
		WithBatchingStrategy(batching.Fixed(2)).
		WithBatchingStrategy(batching.Dense(100, 1)).
		WithBatchingStrategy(batching.Fixed(5))
	assert.Equal(t, batching.Fixed(5), it.BatchingStrategy())

	it.ForEach(func(*int) {})
	assert.Equal(t, []batching.Batch{{Start: 0, End: 5}, {Start: 5, End: 10}, {Start: 10, End: 12}}, cursor.Log().Batches())
}

func TestForEach_PanicPropagates(t *testing.T) {
	pool := testutil.NewPool(t, 2)
	token := &testutil.Token{}
	items := make([]int, 20)

	it := pariter.New[*int](testutil.NewSliceCursor(items), token, batching.Fixed(5), pariter.WithPool(pool))
	assert.Panics(t, func() {
		it.ForEach(func(v *int) {
			if v == &items[7] {
				panic("bad item")
			}
			*v++
		})
	})
	assert.Equal(t, 1, token.Released())
	// Other batches ran to completion.
	assert.Equal(t, 1, items[0])
	assert.Equal(t, 1, items[19])
}

func TestFold(t *testing.T) {
	items := []int{1, 2, 3, 4}
	sum := pariter.Fold[*int](testutil.NewSliceCursor(items), 0, func(acc int, v *int) int {
		return acc + *v
	})
	assert.Equal(t, 10, sum)
}

func TestForEach_PoolClosedMidRunKeepsTokenUntilBatchesFinish(t *testing.T) {
	pool, err := taskpool.New(taskpool.Config{Workers: 1}, zerolog.Nop())
	require.NoError(t, err)

	token := &testutil.Token{}
	items := []int{0, 1, 2}
	it := pariter.New[*int](testutil.NewSliceCursor(items), token, batching.Fixed(1), pariter.WithPool(pool))

	started := make(chan struct{})
	unblock := make(chan struct{})
	var releasedDuringBatch atomic.Int64
	releasedDuringBatch.Store(-1)

	recovered := make(chan any, 1)
	go func() {
		defer func() { recovered <- recover() }()
		it.ForEach(func(v *int) {
			if *v != 0 {
				return
			}
			close(started)
			<-unblock
			releasedDuringBatch.Store(int64(token.Released()))
		})
	}()

	<-started
	pool.Close()
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, token.Released(), "token released while batch 0 was still running")
	close(unblock)

	r := <-recovered
	err, ok := r.(error)
	require.True(t, ok, "run must panic with an error, got %v", r)
	assert.ErrorIs(t, err, ants.ErrPoolClosed)
	assert.Zero(t, releasedDuringBatch.Load())
	assert.Equal(t, 1, token.Released())
}
