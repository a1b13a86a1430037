/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package heap implements spec §4.3's flat, word-indexed memory: a bump
// allocator with a reserved null slot at index 0. It knows nothing about
// objects, arrays, or classes — that shape is layered on top by package
// object — matching jacobin's separation between the low-level memory
// concerns and the object layout rules built over them.
package heap

import (
	"encoding/binary"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// DefaultCapacity is spec §4.3's "≈ 2^20 cells" default heap size.
const DefaultCapacity = 1 << 20

// Reference is a non-negative heap-cell index. Zero means null (spec §3).
type Reference uint64

// Null is the sentinel reference denoting "no object".
const Null Reference = 0

// storage abstracts the cell backing store so the heap can sit either on a
// plain Go slice or on a memory-mapped region, selected at construction.
type storage interface {
	get(i int) uint64
	set(i int, v uint64)
	len() int
	close() error
}

type sliceStorage []uint64

func (s sliceStorage) get(i int) uint64  { return s[i] }
func (s sliceStorage) set(i int, v uint64) { s[i] = v }
func (s sliceStorage) len() int          { return len(s) }
func (s sliceStorage) close() error      { return nil }

// mmapStorage backs the heap with a memory-mapped temporary file (created
// with os.CreateTemp and removed on close) rather than a Go slice, the way saferwall-pe memory-maps a PE image for zero-copy
// access to its bytes (github.com/edsrzf/mmap-go). Each cell is 8 bytes,
// little-endian.
type mmapStorage struct {
	region mmap.MMap
	file   *os.File
}

func newMmapStorage(capacity int) (*mmapStorage, error) {
	f, err := os.CreateTemp("", "corvus-heap-*")
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(int64(capacity) * 8); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	region, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	return &mmapStorage{region: region, file: f}, nil
}

func (m *mmapStorage) get(i int) uint64 {
	return binary.LittleEndian.Uint64(m.region[i*8 : i*8+8])
}

func (m *mmapStorage) set(i int, v uint64) {
	binary.LittleEndian.PutUint64(m.region[i*8:i*8+8], v)
}

func (m *mmapStorage) len() int { return len(m.region) / 8 }

func (m *mmapStorage) close() error {
	err := m.region.Unmap()
	name := m.file.Name()
	m.file.Close()
	os.Remove(name)
	return err
}

// Heap is spec §4.3's fixed-size word array plus a bump-only free pointer.
// It is not thread-safe, matching spec §5: a VM instance performs all heap
// mutation from its single interpreter thread.
type Heap struct {
	cells storage
	free  int
}

// New builds a Heap of the given capacity (in cells) backed by a plain slice.
func New(capacity int) *Heap {
	return &Heap{cells: make(sliceStorage, capacity), free: 1}
}

// NewMmapped builds a Heap of the given capacity backed by a memory-mapped
// temporary file instead of a Go slice.
func NewMmapped(capacity int) (*Heap, error) {
	s, err := newMmapStorage(capacity)
	if err != nil {
		return nil, err
	}
	return &Heap{cells: s, free: 1}, nil
}

// Close releases any OS-level resources (only meaningful for a mmap-backed
// heap; a no-op for the default slice-backed heap).
func (h *Heap) Close() error { return h.cells.close() }

// Capacity returns the heap's fixed cell count.
func (h *Heap) Capacity() int { return h.cells.len() }

// FreePointer returns the current bump-allocation frontier.
func (h *Heap) FreePointer() int { return h.free }

// Allocate implements spec §4.3: returns the previous free pointer and
// advances it by n, or fails with OutOfMemoryError. Allocating zero cells
// returns the current free pointer unchanged (spec §8 Boundaries).
func (h *Heap) Allocate(n int) (Reference, error) {
	if n == 0 {
		return Reference(h.free), nil
	}
	if h.free+n > h.cells.len() {
		return 0, &OutOfMemoryError{Requested: n, Capacity: h.cells.len(), InUse: h.free}
	}
	start := h.free
	h.free += n
	return Reference(start), nil
}

// Read returns the cell at index i. Reading index 0 always yields 0, the
// null sentinel, regardless of capacity (spec §8 Boundaries): index 0 is
// reserved and never written.
func (h *Heap) Read(i Reference) (uint64, error) {
	idx := int(i)
	if idx == 0 {
		return 0, nil
	}
	if idx < 0 || idx >= h.cells.len() {
		return 0, &BoundsError{Index: idx, Capacity: h.cells.len()}
	}
	return h.cells.get(idx), nil
}

// Write stores v at index i. Writing index 0 is an internal-invariant
// violation (spec §3 "Heap index 0 is never written") and always errors.
func (h *Heap) Write(i Reference, v uint64) error {
	idx := int(i)
	if idx == 0 {
		return &BoundsError{Index: 0, Capacity: h.cells.len()}
	}
	if idx < 0 || idx >= h.cells.len() {
		return &BoundsError{Index: idx, Capacity: h.cells.len()}
	}
	h.cells.set(idx, v)
	return nil
}
