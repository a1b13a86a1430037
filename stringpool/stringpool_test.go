/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package stringpool

import (
	"testing"

	"github.com/corvuslang/corvus/classfile"
	"github.com/corvuslang/corvus/classloader"
	"github.com/corvuslang/corvus/heap"
	"github.com/corvuslang/corvus/types"
)

func newStringClass(t *testing.T) (*heap.Heap, *classloader.RuntimeClass) {
	t.Helper()
	loader := classfile.MapLoader{}
	b := classfile.NewBuilder(types.StringClassName, "").
		Field("value", types.NewArray(types.NewPrimitive(types.Char)), 0)
	if err := b.Register(loader); err != nil {
		t.Fatalf("Register: %v", err)
	}
	table := classloader.NewClassTable(loader, classfile.DefaultParser{})
	rc, err := table.Resolve(types.NewClass(types.StringClassName))
	if err != nil {
		t.Fatalf("resolve String: %v", err)
	}
	return heap.New(256), rc
}

func TestCharsOfRoundTripsThroughNewString(t *testing.T) {
	h, rc := newStringClass(t)

	ref, err := NewString(h, rc, "hello")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	got, err := CharsOf(h, rc, ref)
	if err != nil {
		t.Fatalf("CharsOf: %v", err)
	}
	if got != "hello" {
		t.Errorf("CharsOf = %q, want %q", got, "hello")
	}
}

func TestInternCanonicalizesEqualValues(t *testing.T) {
	h, rc := newStringClass(t)
	pool := New()

	a, err := NewString(h, rc, "same")
	if err != nil {
		t.Fatalf("NewString a: %v", err)
	}
	b, err := NewString(h, rc, "same")
	if err != nil {
		t.Fatalf("NewString b: %v", err)
	}
	if a == b {
		t.Fatal("test setup: expected two distinct heap objects before interning")
	}

	ia, err := pool.Intern(h, rc, a)
	if err != nil {
		t.Fatalf("Intern a: %v", err)
	}
	ib, err := pool.Intern(h, rc, b)
	if err != nil {
		t.Fatalf("Intern b: %v", err)
	}
	if ia != ib {
		t.Errorf("intern(a)=%v, intern(b)=%v; want equal for equal content", ia, ib)
	}
	if ia != a {
		t.Errorf("first interned reference should be canonical, got %v want %v", ia, a)
	}
}

func TestInternIsIdempotent(t *testing.T) {
	h, rc := newStringClass(t)
	pool := New()

	ref, err := NewString(h, rc, "idempotent")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	first, err := pool.Intern(h, rc, ref)
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}
	second, err := pool.Intern(h, rc, first)
	if err != nil {
		t.Fatalf("Intern again: %v", err)
	}
	if first != second {
		t.Errorf("intern(intern(x)) = %v, want %v", second, first)
	}
}

func TestInternDistinguishesDifferentValues(t *testing.T) {
	h, rc := newStringClass(t)
	pool := New()

	a, _ := NewString(h, rc, "foo")
	b, _ := NewString(h, rc, "bar")

	ia, err := pool.Intern(h, rc, a)
	if err != nil {
		t.Fatalf("Intern a: %v", err)
	}
	ib, err := pool.Intern(h, rc, b)
	if err != nil {
		t.Fatalf("Intern b: %v", err)
	}
	if ia == ib {
		t.Error("distinct values must not canonicalize to the same reference")
	}
	if pool.Len() != 2 {
		t.Errorf("pool.Len() = %d, want 2", pool.Len())
	}
}
