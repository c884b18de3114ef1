package pariter

// Cursor is the part of a result set the engine needs.
//
// Split must return sub-cursors over disjoint, contiguous ranges that together
// cover the cursor exactly once, in cursor order, each holding at most
// batchSize items. ForEach visits every item in cursor order. Sub-cursors are
// handed to different goroutines, so they must not share mutable state beyond
// the items they cover.
type Cursor[I any] interface {
	Len() int
	Split(batchSize int) []Cursor[I]
	ForEach(fn func(I))
}

// Fold drives c to completion, threading acc through step.
func Fold[I, T any](c Cursor[I], acc T, step func(T, I) T) T {
	c.ForEach(func(item I) {
		acc = step(acc, item)
	})
	return acc
}

// Releaser is the access token an Iter consumes.
type Releaser interface {
	Release()
}

type noopReleaser struct{}

func (noopReleaser) Release() {}
