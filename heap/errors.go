/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package heap

import "fmt"

// OutOfMemoryError is returned when a bump allocation would exceed the
// heap's fixed capacity (spec §4.3).
type OutOfMemoryError struct {
	Requested int
	Capacity  int
	InUse     int
}

func (e *OutOfMemoryError) Error() string {
	return fmt.Sprintf("heap: out of memory: requested %d cells, %d of %d already in use",
		e.Requested, e.InUse, e.Capacity)
}

// BoundsError is an internal-invariant violation: a read or write addressed
// a cell outside [0, capacity). The interpreter wraps this as InternalError.
type BoundsError struct {
	Index    int
	Capacity int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("heap: index %d out of bounds (capacity %d)", e.Index, e.Capacity)
}
