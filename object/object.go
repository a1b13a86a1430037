/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package object implements spec §4.4's allocator and §3's heap object/array
// layouts: a contiguous run of cells beginning at a header, followed by
// payload cells, with the heap owning all storage and the rest of the VM
// holding only indices (spec §3 "Reference value"). This mirrors jacobin's
// object package (instantiate.go's two-phase class instantiation, the
// Field/FieldTable model in object_test.go) reshaped to work against the
// word-indexed heap of §4.3 instead of jacobin's Go-struct-per-object model.
package object

import (
	"math"

	"github.com/corvuslang/corvus/classloader"
	"github.com/corvuslang/corvus/heap"
	"github.com/corvuslang/corvus/types"
)

// Classes is the minimal view of classloader.ClassTable the object package
// needs, declared locally to avoid importing classloader's resolution
// machinery into this leaf package's public surface.
type Classes interface {
	ByIndex(i int) (*classloader.RuntimeClass, error)
}

// AllocateObject implements spec §4.4: one header cell naming the runtime
// class (by its load-order index), followed by one zero-initialized cell
// per instance field in layout order.
func AllocateObject(h *heap.Heap, rc *classloader.RuntimeClass) (heap.Reference, error) {
	count := rc.InstanceCellCount()
	ref, err := h.Allocate(1 + count)
	if err != nil {
		return 0, err
	}
	if err := h.Write(ref, uint64(rc.Index)); err != nil {
		return 0, err
	}
	for i := 0; i < count; i++ {
		if err := h.Write(ref+1+heap.Reference(i), 0); err != nil {
			return 0, err
		}
	}
	return ref, nil
}

// arrayHeaderBit marks a header cell as an array's length rather than an
// object's class index. Objects are registered in load order starting at 0,
// so this high bit is never a valid class index, letting a reference's
// header alone say which shape it is (needed by Checkcast/Instanceof, which
// must not mistake an array's length for a class index).
const arrayHeaderBit uint64 = 1 << 63

// AllocateArray implements spec §4.4: one header cell holding the length
// (tagged with arrayHeaderBit), followed by length zero-initialized element
// cells (primitive arrays pack by word; reference arrays hold heap indices,
// per spec §3).
func AllocateArray(h *heap.Heap, length int) (heap.Reference, error) {
	ref, err := h.Allocate(1 + length)
	if err != nil {
		return 0, err
	}
	if err := h.Write(ref, arrayHeaderBit|uint64(length)); err != nil {
		return 0, err
	}
	for i := 0; i < length; i++ {
		if err := h.Write(ref+1+heap.Reference(i), 0); err != nil {
			return 0, err
		}
	}
	return ref, nil
}

// ClassIndexOf reads an object's header cell, returning the runtime-class
// index spec §3 says a live object's header must encode.
func ClassIndexOf(h *heap.Heap, ref heap.Reference) (int, error) {
	v, err := h.Read(ref)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// IsArray reports whether ref's header cell marks it as an array rather
// than an object, the discriminant Checkcast/Instanceof need before trying
// to interpret a header as a class index.
func IsArray(h *heap.Heap, ref heap.Reference) (bool, error) {
	v, err := h.Read(ref)
	if err != nil {
		return false, err
	}
	return v&arrayHeaderBit != 0, nil
}

// ClassOf resolves an object's runtime class via its header cell.
func ClassOf(h *heap.Heap, classes Classes, ref heap.Reference) (*classloader.RuntimeClass, error) {
	idx, err := ClassIndexOf(h, ref)
	if err != nil {
		return nil, err
	}
	return classes.ByIndex(idx)
}

// ArrayLength reads an array's header (length) cell, masking off the
// array/object discriminant tag.
func ArrayLength(h *heap.Heap, ref heap.Reference) (int, error) {
	v, err := h.Read(ref)
	if err != nil {
		return 0, err
	}
	return int(v &^ arrayHeaderBit), nil
}

// GetField reads an instance field's raw cell, given the class that defines
// its layout and the field's name.
func GetField(h *heap.Heap, rc *classloader.RuntimeClass, ref heap.Reference, name string) (uint64, error) {
	slot, ok := rc.FieldSlotByName(name)
	if !ok {
		return 0, &NoSuchFieldError{Class: rc.Name(), Field: name}
	}
	return h.Read(ref + 1 + heap.Reference(slot.Offset))
}

// PutField writes an instance field's raw cell.
func PutField(h *heap.Heap, rc *classloader.RuntimeClass, ref heap.Reference, name string, v uint64) error {
	slot, ok := rc.FieldSlotByName(name)
	if !ok {
		return &NoSuchFieldError{Class: rc.Name(), Field: name}
	}
	return h.Write(ref+1+heap.Reference(slot.Offset), v)
}

// GetElement reads one element of an array at the given 0-based index,
// bounds-checked against the array's own length header.
func GetElement(h *heap.Heap, ref heap.Reference, index int) (uint64, error) {
	length, err := ArrayLength(h, ref)
	if err != nil {
		return 0, err
	}
	if index < 0 || index >= length {
		return 0, &ArrayIndexError{Index: index, Length: length}
	}
	return h.Read(ref + 1 + heap.Reference(index))
}

// PutElement writes one element of an array at the given 0-based index.
func PutElement(h *heap.Heap, ref heap.Reference, index int, v uint64) error {
	length, err := ArrayLength(h, ref)
	if err != nil {
		return err
	}
	if index < 0 || index >= length {
		return &ArrayIndexError{Index: index, Length: length}
	}
	return h.Write(ref+1+heap.Reference(index), v)
}

// Encoding helpers: the heap only knows raw 64-bit cells; these convert the
// primitive kinds the interpreter operates on to and from that wire shape.

func EncodeInt32(v int32) uint64     { return uint64(uint32(v)) }
func DecodeInt32(v uint64) int32     { return int32(uint32(v)) }
func EncodeInt64(v int64) uint64     { return uint64(v) }
func DecodeInt64(v uint64) int64     { return int64(v) }
func EncodeFloat32(v float32) uint64 { return uint64(math.Float32bits(v)) }
func DecodeFloat32(v uint64) float32 { return math.Float32frombits(uint32(v)) }
func EncodeFloat64(v float64) uint64 { return math.Float64bits(v) }
func DecodeFloat64(v uint64) float64 { return math.Float64frombits(v) }
func EncodeBool(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}
func DecodeBool(v uint64) bool { return v != 0 }

// AccessFlagsOf exposes a class's own access flags to native bindings that
// need them (e.g. Class.getModifiers), without those bindings importing
// classloader directly.
func AccessFlagsOf(rc *classloader.RuntimeClass) types.AccessFlag {
	return rc.Descriptor.Access
}
