// Package tick provides the logical clock used for change detection.
//
// Every record write is stamped with the Tick of the run that performed it.
// A run observes changes through a Window: writes stamped after LastRun and no
// later than ThisRun are considered changed. Ticks are 32-bit and compared with
// wrapping arithmetic, so a long-lived process never needs to reset them.
package tick

import "fmt"

// Tick is a monotonically increasing logical timestamp.
type Tick uint32

// IsNewerThan reports whether t happened after last, as observed from this.
// The comparison is relative to this so it stays correct across wrap-around.
func (t Tick) IsNewerThan(last, this Tick) bool {
	ticksSinceInsert := uint32(this - t)
	ticksSinceSystem := uint32(this - last)
	return ticksSinceSystem > ticksSinceInsert
}

// Window is the (last run, this run) pair bounding which writes a run treats
// as changed. It is an immutable snapshot.
type Window struct {
	LastRun Tick
	ThisRun Tick
}

// NewWindow builds a window.
func NewWindow(lastRun, thisRun Tick) Window {
	return Window{LastRun: lastRun, ThisRun: thisRun}
}

// IsChanged reports whether a write stamped with t is visible as a change.
func (w Window) IsChanged(t Tick) bool {
	return t.IsNewerThan(w.LastRun, w.ThisRun)
}

// Next returns the window a following run would use once this one completes.
func (w Window) Next(thisRun Tick) Window {
	return Window{LastRun: w.ThisRun, ThisRun: thisRun}
}

// String implements fmt.Stringer.
func (w Window) String() string {
	return fmt.Sprintf("(%d,%d]", w.LastRun, w.ThisRun)
}
