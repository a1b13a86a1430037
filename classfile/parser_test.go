/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"testing"

	"github.com/corvuslang/corvus/types"
)

func TestBuilderRoundTripsThroughDefaultParser(t *testing.T) {
	loader := MapLoader{}
	sig := types.Signature{Name: "answer", Descriptor: types.Descriptor{Return: types.NewPrimitive(types.Int)}}
	err := NewBuilder("M", types.ObjectClassName).
		Method(sig, types.Static, 2, 0, []byte{0x10, 42, 0xac}).
		Register(loader)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	data, ok := loader.Load("M")
	if !ok {
		t.Fatalf("expected M to be registered")
	}

	cd, err := DefaultParser{}.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cd.Name != "M" {
		t.Errorf("Name = %q, want M", cd.Name)
	}
	m, ok := cd.FindMethod(sig)
	if !ok {
		t.Fatalf("expected method %s to round-trip", sig)
	}
	if m.Code == nil || len(m.Code.Bytes) != 3 {
		t.Fatalf("expected 3-byte code body, got %+v", m.Code)
	}
}

func TestDefaultParserRejectsGarbage(t *testing.T) {
	if _, err := (DefaultParser{}).Parse([]byte("not a class file")); err == nil {
		t.Fatal("expected a parse error for garbage input")
	}
}

func TestParseFieldTypeAndDescriptor(t *testing.T) {
	desc, err := types.ParseDescriptor("(ILjava/lang/String;)[J")
	if err != nil {
		t.Fatalf("ParseDescriptor: %v", err)
	}
	if len(desc.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(desc.Params))
	}
	if !desc.Params[0].Equal(types.NewPrimitive(types.Int)) {
		t.Errorf("param 0 = %v, want int", desc.Params[0])
	}
	if !desc.Params[1].Equal(types.NewClass("java/lang/String")) {
		t.Errorf("param 1 = %v, want java/lang/String", desc.Params[1])
	}
	want := types.NewArray(types.NewPrimitive(types.Long))
	if !desc.Return.Equal(want) {
		t.Errorf("return = %v, want %v", desc.Return, want)
	}
	if got := desc.String(); got != "(ILjava/lang/String;)[J" {
		t.Errorf("round-trip String() = %q", got)
	}
}
