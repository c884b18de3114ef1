// Package taskpool provides the fixed-size compute pool that parallel
// iteration submits batches to.
//
// A Pool wraps a long-lived ants worker pool. Work is submitted through a
// Group, which is the submit-and-join primitive: Go enqueues a function, Wait
// blocks until every function in the group has returned and then re-raises the
// first panic any of them produced on the waiting goroutine.
//
// One pool is normally owned by the host process. Init installs it, Get hands
// it out and reports ErrPoolUnavailable until the host has done so:
//
//	if _, err := taskpool.Init(taskpool.DefaultConfig()); err != nil {
//		log.Fatal(err)
//	}
//	defer taskpool.Shutdown()
//
//	pool, _ := taskpool.Get()
//	g := pool.Group()
//	for _, job := range jobs {
//		g.Go(job)
//	}
//	g.Wait()
//
// Functions submitted to a Group must not themselves wait on another Group of
// the same pool: with every worker blocked in Wait the pool cannot make
// progress.
//
// Metrics:
//
//   - taskpool_workers (Gauge): capacity of the process-wide pool
//   - taskpool_tasks_submitted_total (Counter): functions submitted through groups
//   - taskpool_task_panics_total (Counter): submitted functions that panicked
package taskpool
