/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frames

import (
	"testing"

	"github.com/corvuslang/corvus/heap"
)

func TestPushPopRoundTrip(t *testing.T) {
	f := CreateFrame(4)
	if err := f.Push(PrimitiveValue(42, 1)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := f.Push(ReferenceValue(heap.Reference(7))); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if f.StackDepth() != 2 {
		t.Fatalf("StackDepth = %d, want 2", f.StackDepth())
	}

	top, err := f.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if !top.IsReference() || top.Reference() != 7 {
		t.Errorf("Pop = %+v, want reference 7", top)
	}

	bottom, err := f.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if !bottom.IsPrimitive() || bottom.Bits() != 42 {
		t.Errorf("Pop = %+v, want primitive 42", bottom)
	}
}

func TestPopUnderflowErrors(t *testing.T) {
	f := CreateFrame(2)
	if _, err := f.Pop(); err == nil {
		t.Error("expected underflow error popping an empty stack")
	}
}

func TestPushOverflowErrors(t *testing.T) {
	f := CreateFrame(1)
	if err := f.Push(PrimitiveValue(1, 1)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := f.Push(PrimitiveValue(2, 1)); err == nil {
		t.Error("expected overflow error pushing past maxStackSize")
	}
}

func TestFrameStackPushPopOrdering(t *testing.T) {
	fs := CreateFrameStack()
	a := CreateFrame(8)
	a.ClName, a.MethName = "A", "m1"
	b := CreateFrame(8)
	b.ClName, b.MethName = "B", "m2"

	if err := PushFrame(fs, a); err != nil {
		t.Fatalf("PushFrame a: %v", err)
	}
	if err := PushFrame(fs, b); err != nil {
		t.Fatalf("PushFrame b: %v", err)
	}

	if cur := CurrentFrame(fs); cur != b {
		t.Errorf("CurrentFrame = %v, want %v (most recently pushed)", cur, b)
	}

	PopFrame(fs)
	if cur := CurrentFrame(fs); cur != a {
		t.Errorf("CurrentFrame after pop = %v, want %v", cur, a)
	}

	PopFrame(fs)
	if cur := CurrentFrame(fs); cur != nil {
		t.Errorf("CurrentFrame on empty stack = %v, want nil", cur)
	}

	// Popping an already-empty stack must not panic.
	PopFrame(fs)
}

func TestValueWidths(t *testing.T) {
	if w := PrimitiveValue(0, 2).Width(); w != 2 {
		t.Errorf("two-word primitive Width() = %d, want 2", w)
	}
	if w := ReferenceValue(heap.Null).Width(); w != 1 {
		t.Errorf("reference Width() = %d, want 1", w)
	}
}
