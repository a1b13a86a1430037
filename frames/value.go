/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package frames holds the interpreter's per-invocation state: the tagged
// runtime value (spec §9 "Polymorphism of runtime values") and the
// Frame/frame-stack shape the dispatch loop pushes and pops, grounded on
// jacobin's own frames.CreateFrame/CreateFrameStack/PushFrame/PopFrame
// (jvm/initializerBlock.go, jvm/errors_test.go) but carrying typed Value
// slots instead of jacobin's ad-hoc interface{} locals.
package frames

import "github.com/corvuslang/corvus/heap"

// valueTag discriminates Value's two variants, replacing the source's
// untyped-value dispatch per spec §9: the interpreter always knows which
// variant a slot holds from the static opcode, never by inspecting the tag.
type valueTag int

const (
	tagPrimitive valueTag = iota
	tagReference
)

// Value is spec §9's tagged union over {Primitive(width, bits), Reference}.
// Primitive values carry their raw bit pattern (caller-interpreted per
// opcode: int, float, long, or double) and their slot width (1 or 2).
type Value struct {
	tag   valueTag
	width int
	bits  uint64
	ref   heap.Reference
}

// PrimitiveValue builds a primitive Value from its raw bit pattern and slot
// width (1 for int/float/short/byte/char/boolean, 2 for long/double).
func PrimitiveValue(bits uint64, width int) Value {
	return Value{tag: tagPrimitive, bits: bits, width: width}
}

// ReferenceValue builds a reference Value pointing at a heap object, array,
// or heap.Null.
func ReferenceValue(ref heap.Reference) Value {
	return Value{tag: tagReference, ref: ref, width: 1}
}

func (v Value) IsPrimitive() bool { return v.tag == tagPrimitive }
func (v Value) IsReference() bool { return v.tag == tagReference }

// Bits returns the raw bit pattern of a primitive Value.
func (v Value) Bits() uint64 { return v.bits }

// Reference returns the heap reference of a reference Value.
func (v Value) Reference() heap.Reference { return v.ref }

// Width reports the local-variable/operand-stack slot width this value
// occupies (2 for a two-word primitive, 1 otherwise).
func (v Value) Width() int { return v.width }
