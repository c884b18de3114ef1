package testutil

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/pariter/pkg/taskpool"
)

// NewPool creates a private compute pool closed at the end of the test.
func NewPool(t testing.TB, workers int) *taskpool.Pool {
	t.Helper()
	p, err := taskpool.New(taskpool.Config{Workers: workers}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create compute pool: %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

// InitGlobalPool installs the process-wide pool for the duration of the test.
func InitGlobalPool(t testing.TB, workers int) *taskpool.Pool {
	t.Helper()
	taskpool.Shutdown()
	p, err := taskpool.Init(taskpool.Config{Workers: workers})
	if err != nil {
		t.Fatalf("Failed to init compute pool: %v", err)
	}
	t.Cleanup(taskpool.Shutdown)
	return p
}
