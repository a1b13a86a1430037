/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import (
	"testing"

	"github.com/corvuslang/corvus/classfile"
	"github.com/corvuslang/corvus/classloader"
	"github.com/corvuslang/corvus/heap"
	"github.com/corvuslang/corvus/types"
)

func mustRegister(t *testing.T, loader classfile.MapLoader, b *classfile.Builder) {
	t.Helper()
	if err := b.Register(loader); err != nil {
		t.Fatalf("Register: %v", err)
	}
}

func TestAllocateObjectLayoutAndFieldAccess(t *testing.T) {
	loader := classfile.MapLoader{}
	mustRegister(t, loader, classfile.NewBuilder("A", "").
		Field("x", types.NewPrimitive(types.Int), 0))
	mustRegister(t, loader, classfile.NewBuilder("B", "A").
		Field("y", types.NewPrimitive(types.Int), 0))

	table := classloader.NewClassTable(loader, classfile.DefaultParser{})
	b, err := table.Resolve(types.NewClass("B"))
	if err != nil {
		t.Fatalf("resolve B: %v", err)
	}

	h := heap.New(64)
	ref, err := AllocateObject(h, b)
	if err != nil {
		t.Fatalf("AllocateObject: %v", err)
	}

	idx, err := ClassIndexOf(h, ref)
	if err != nil || idx != b.Index {
		t.Fatalf("ClassIndexOf = %d, %v; want %d, nil", idx, err, b.Index)
	}

	got, err := ClassOf(h, table, ref)
	if err != nil || got != b {
		t.Fatalf("ClassOf = %v, %v; want %v, nil", got, err, b)
	}

	if err := PutField(h, b, ref, "x", EncodeInt32(7)); err != nil {
		t.Fatalf("PutField x: %v", err)
	}
	if err := PutField(h, b, ref, "y", EncodeInt32(9)); err != nil {
		t.Fatalf("PutField y: %v", err)
	}

	vx, err := GetField(h, b, ref, "x")
	if err != nil || DecodeInt32(vx) != 7 {
		t.Errorf("GetField x = %d, %v; want 7, nil", DecodeInt32(vx), err)
	}
	vy, err := GetField(h, b, ref, "y")
	if err != nil || DecodeInt32(vy) != 9 {
		t.Errorf("GetField y = %d, %v; want 9, nil", DecodeInt32(vy), err)
	}

	if _, err := GetField(h, b, ref, "nope"); err == nil {
		t.Error("expected NoSuchFieldError for unknown field")
	} else if _, ok := err.(*NoSuchFieldError); !ok {
		t.Errorf("expected *NoSuchFieldError, got %T", err)
	}
}

func TestAllocateArrayElementAccessAndBounds(t *testing.T) {
	h := heap.New(32)
	ref, err := AllocateArray(h, 3)
	if err != nil {
		t.Fatalf("AllocateArray: %v", err)
	}

	length, err := ArrayLength(h, ref)
	if err != nil || length != 3 {
		t.Fatalf("ArrayLength = %d, %v; want 3, nil", length, err)
	}

	if err := PutElement(h, ref, 0, EncodeInt32(11)); err != nil {
		t.Fatalf("PutElement 0: %v", err)
	}
	if err := PutElement(h, ref, 2, EncodeInt32(33)); err != nil {
		t.Fatalf("PutElement 2: %v", err)
	}

	v0, err := GetElement(h, ref, 0)
	if err != nil || DecodeInt32(v0) != 11 {
		t.Errorf("GetElement 0 = %d, %v; want 11, nil", DecodeInt32(v0), err)
	}

	if _, err := GetElement(h, ref, 3); err == nil {
		t.Error("expected ArrayIndexError for index == length")
	} else if aie, ok := err.(*ArrayIndexError); !ok || aie.Length != 3 {
		t.Errorf("expected *ArrayIndexError{Length:3}, got %#v", err)
	}

	if _, err := GetElement(h, ref, -1); err == nil {
		t.Error("expected ArrayIndexError for negative index")
	}

	if err := PutElement(h, ref, 5, EncodeInt32(1)); err == nil {
		t.Error("expected ArrayIndexError writing out of bounds")
	}
}

func TestIsArrayDistinguishesFromObjectHeader(t *testing.T) {
	loader := classfile.MapLoader{}
	mustRegister(t, loader, classfile.NewBuilder("A", ""))
	table := classloader.NewClassTable(loader, classfile.DefaultParser{})
	a, err := table.Resolve(types.NewClass("A"))
	if err != nil {
		t.Fatalf("resolve A: %v", err)
	}

	h := heap.New(32)
	objRef, err := AllocateObject(h, a)
	if err != nil {
		t.Fatalf("AllocateObject: %v", err)
	}
	arrRef, err := AllocateArray(h, 3)
	if err != nil {
		t.Fatalf("AllocateArray: %v", err)
	}

	if isArr, err := IsArray(h, objRef); err != nil || isArr {
		t.Errorf("IsArray(object) = %v, %v; want false, nil", isArr, err)
	}
	if isArr, err := IsArray(h, arrRef); err != nil || !isArr {
		t.Errorf("IsArray(array) = %v, %v; want true, nil", isArr, err)
	}

	// A class registered first in load order gets index 0, which used to be
	// indistinguishable from an empty array's raw length of 0 before the
	// header was tagged.
	idx, err := ClassIndexOf(h, objRef)
	if err != nil || idx != 0 {
		t.Fatalf("ClassIndexOf = %d, %v; want 0, nil", idx, err)
	}
	emptyArr, err := AllocateArray(h, 0)
	if err != nil {
		t.Fatalf("AllocateArray(0): %v", err)
	}
	if isArr, err := IsArray(h, emptyArr); err != nil || !isArr {
		t.Errorf("IsArray(empty array) = %v, %v; want true, nil", isArr, err)
	}
	if length, err := ArrayLength(h, emptyArr); err != nil || length != 0 {
		t.Errorf("ArrayLength(empty array) = %d, %v; want 0, nil", length, err)
	}
}

func TestEncodingRoundTrips(t *testing.T) {
	if got := DecodeInt32(EncodeInt32(-42)); got != -42 {
		t.Errorf("int32 round trip = %d, want -42", got)
	}
	if got := DecodeInt64(EncodeInt64(-1)); got != -1 {
		t.Errorf("int64 round trip = %d, want -1", got)
	}
	if got := DecodeFloat32(EncodeFloat32(3.5)); got != 3.5 {
		t.Errorf("float32 round trip = %v, want 3.5", got)
	}
	if got := DecodeFloat64(EncodeFloat64(2.25)); got != 2.25 {
		t.Errorf("float64 round trip = %v, want 2.25", got)
	}
	if !DecodeBool(EncodeBool(true)) {
		t.Error("bool round trip true failed")
	}
	if DecodeBool(EncodeBool(false)) {
		t.Error("bool round trip false failed")
	}
}

func TestAccessFlagsOf(t *testing.T) {
	loader := classfile.MapLoader{}
	mustRegister(t, loader, classfile.NewBuilder("A", "").WithAccess(types.Public|types.Final))

	table := classloader.NewClassTable(loader, classfile.DefaultParser{})
	a, err := table.Resolve(types.NewClass("A"))
	if err != nil {
		t.Fatalf("resolve A: %v", err)
	}

	flags := AccessFlagsOf(a)
	if !flags.Has(types.Public) || !flags.Has(types.Final) {
		t.Errorf("AccessFlagsOf = %v, want Public|Final", flags)
	}
}
