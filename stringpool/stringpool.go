/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package stringpool implements spec §4.5: a canonicalizing table from
// character content to a single heap reference, so that interning two
// value-equal strings always yields the same reference. It sits directly on
// top of package object and package heap, the way jacobin's stringPool
// package sits on top of its own object/classloader layers, reshaped per
// spec §9's per-instance design note into state owned by one *Pool rather
// than a package-level table.
package stringpool

import (
	"sync"

	"github.com/corvuslang/corvus/classloader"
	"github.com/corvuslang/corvus/heap"
	"github.com/corvuslang/corvus/object"
)

// valueFieldName is the conventional name of java/lang/String's backing
// character-array field, mirrored from jacobin's own String object layout.
const valueFieldName = "value"

// Pool is spec §4.5's interning table: character content to canonical heap
// reference. Its table is guarded by a mutex; the heap reads Intern makes
// are not, matching the single interpreter thread spec §5 assumes for all
// heap mutation.
type Pool struct {
	mu      sync.Mutex
	byValue map[string]heap.Reference
}

// New returns an empty interning table.
func New() *Pool {
	return &Pool{byValue: make(map[string]heap.Reference)}
}

// Intern implements spec §4.5: extract the character sequence referenced by
// ref (a java/lang/String object), look it up, and return the canonical
// reference — inserting ref itself as canonical on first sight of that
// value. The canonical reference is never reclaimed (interning is
// monotonic), matching the heap's own no-reclamation policy (spec §4.3).
func (p *Pool) Intern(h *heap.Heap, stringClass *classloader.RuntimeClass, ref heap.Reference) (heap.Reference, error) {
	value, err := CharsOf(h, stringClass, ref)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if canonical, ok := p.byValue[value]; ok {
		return canonical, nil
	}
	p.byValue[value] = ref
	return ref, nil
}

// CharsOf extracts the Go string content of a java/lang/String object by
// following its "value" field to the backing character array and decoding
// each element as one UTF-16 code unit, the wire shape NewString uses when
// it builds a string object.
func CharsOf(h *heap.Heap, stringClass *classloader.RuntimeClass, ref heap.Reference) (string, error) {
	raw, err := object.GetField(h, stringClass, ref, valueFieldName)
	if err != nil {
		return "", err
	}
	arrayRef := heap.Reference(raw)
	length, err := object.ArrayLength(h, arrayRef)
	if err != nil {
		return "", err
	}
	units := make([]uint16, length)
	for i := 0; i < length; i++ {
		v, err := object.GetElement(h, arrayRef, i)
		if err != nil {
			return "", err
		}
		units[i] = uint16(v)
	}
	return string(utf16Decode(units)), nil
}

// NewString allocates a character array holding value's UTF-16 code units,
// then a java/lang/String object whose "value" field references it,
// matching the object layout CharsOf expects to read back.
func NewString(h *heap.Heap, stringClass *classloader.RuntimeClass, value string) (heap.Reference, error) {
	units := utf16Encode(value)
	arrayRef, err := object.AllocateArray(h, len(units))
	if err != nil {
		return 0, err
	}
	for i, u := range units {
		if err := object.PutElement(h, arrayRef, i, uint64(u)); err != nil {
			return 0, err
		}
	}

	strRef, err := object.AllocateObject(h, stringClass)
	if err != nil {
		return 0, err
	}
	if err := object.PutField(h, stringClass, strRef, valueFieldName, uint64(arrayRef)); err != nil {
		return 0, err
	}
	return strRef, nil
}

// Len reports how many distinct values have been interned so far.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byValue)
}
