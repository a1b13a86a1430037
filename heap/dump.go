/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package heap

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// cellsPerRow is spec §6's "cells grouped ten per row" for Heap.dump.
const cellsPerRow = 10

// cellWidth is spec §6's "each cell right-padded to four characters".
const cellWidth = 4

// Dump renders the live prefix of the heap (cells [0, FreePointer)) as a
// paged, fixed-width text table: ten cells per row, each right-padded to
// four characters, useful for tests the way jacobin's own trace output lets
// a test assert on exact interpreter state. A one-line human-readable
// summary (live cells out of capacity) precedes the table, in the style of
// cespare-hprofviz's heap-statistics reporting, via go-humanize.
func (h *Heap) Dump(w io.Writer) error {
	live := h.free
	if _, err := fmt.Fprintf(w, "heap: %s cells live of %s capacity\n",
		humanize.Comma(int64(live)), humanize.Comma(int64(h.cells.len()))); err != nil {
		return err
	}
	for row := 0; row < live; row += cellsPerRow {
		end := row + cellsPerRow
		if end > live {
			end = live
		}
		for i := row; i < end; i++ {
			cell, err := h.Read(Reference(i))
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%-*d", cellWidth, cell); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
