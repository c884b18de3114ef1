package batching

// Batch is a half-open index range [Start, End).
type Batch struct {
	Start int
	End   int
}

// Len returns the number of items in the batch.
func (b Batch) Len() int {
	return b.End - b.Start
}

// Partition splits [0, total) into contiguous batches of at most size items.
// Every batch is non-empty, batches never overlap and together they cover the
// whole range exactly once. A total of 0 yields no batches.
func Partition(total, size int) []Batch {
	if total <= 0 {
		return nil
	}
	size = atLeastOne(size)

	batches := make([]Batch, 0, (total+size-1)/size)
	for start := 0; start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}
		batches = append(batches, Batch{Start: start, End: end})
	}
	return batches
}
