package store

import "fmt"

// Entity identifies a record. Generation distinguishes reuses of the same row.
type Entity struct {
	Index      uint32
	Generation uint32
}

// String implements fmt.Stringer.
func (e Entity) String() string {
	return fmt.Sprintf("%dv%d", e.Index, e.Generation)
}
