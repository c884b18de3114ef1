// Package pariter runs a function over every item of a result cursor in
// parallel.
//
// An Iter is a one-shot capability: it holds the access token that proves no
// other reader or writer of the cursor's data is alive, the cursor itself and
// a batching strategy. Running it computes a batch size, splits the cursor
// into disjoint sub-cursors and submits one fold per sub-cursor to the compute
// pool, then blocks until every batch has finished.
//
// Because the token is exclusive and batches never overlap, batches may
// mutate their items without any locking. Within a batch, items are visited
// in cursor order; across batches no order is guaranteed.
//
// An Iter runs at most once. ForEach and ForEachInit consume it; calling
// either a second time panics with ErrConsumed. The token is released when
// the run returns, or by Release for an Iter that is never run.
//
//	it, err := world.ParIter(query, window) // *pariter.Iter[store.Item]
//	if err != nil {
//		return err // another live token aliases the query's data
//	}
//	var counts collect.Slots[int]
//	pariter.ForEachInit(it.WithBatchingStrategy(batching.Fixed(256)),
//		counts.Borrow,
//		func(n **int, item store.Item) { **n++ })
//	total := counts.Sum(func(n int) int { return n })
//
// A missing compute pool is a host misconfiguration, not a runtime condition:
// the run panics with ErrPoolUnavailable rather than quietly running on the
// calling goroutine.
//
// Metrics:
//
//   - pariter_runs_total{iter} (Counter): completed parallel runs
//   - pariter_batches_total{iter} (Counter): batches submitted
//   - pariter_items_total{iter} (Counter): items visited
//   - pariter_batch_size{iter} (Histogram): chosen batch size per run
//   - pariter_run_duration_seconds{iter} (Histogram): wall time per run
package pariter
