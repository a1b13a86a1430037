/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"testing"

	"github.com/corvuslang/corvus/classfile"
	"github.com/corvuslang/corvus/classloader"
	"github.com/corvuslang/corvus/frames"
	"github.com/corvuslang/corvus/gfunction"
	"github.com/corvuslang/corvus/heap"
	"github.com/corvuslang/corvus/object"
	"github.com/corvuslang/corvus/opcodes"
	"github.com/corvuslang/corvus/stringpool"
	"github.com/corvuslang/corvus/types"
	"github.com/corvuslang/corvus/vmerrors"
)

func newTestInterpreter(t *testing.T, loader classfile.MapLoader) *Interpreter {
	t.Helper()
	h := heap.New(1 << 10)
	table := classloader.NewClassTable(loader, classfile.DefaultParser{})
	reg := gfunction.NewRegistry(nil)
	return New(h, table, stringpool.New(), reg, nil)
}

func TestInvokeDivisionByZeroThrowsArithmeticException(t *testing.T) {
	loader := classfile.MapLoader{}
	if err := classfile.NewBuilder("java/lang/ArithmeticException", "").Register(loader); err != nil {
		t.Fatalf("Register: %v", err)
	}
	sig := types.Signature{Name: "test", Descriptor: types.Descriptor{Return: types.NewPrimitive(types.Int)}}
	code := []byte{
		byte(opcodes.Iconst1),
		byte(opcodes.Iconst0),
		byte(opcodes.Idiv),
		byte(opcodes.Ireturn),
	}
	if err := classfile.NewBuilder("Main", "").
		Method(sig, types.Static, 2, 0, code).
		Register(loader); err != nil {
		t.Fatalf("Register Main: %v", err)
	}

	vm := newTestInterpreter(t, loader)
	_, err := vm.Invoke("Main", sig, nil)
	if err == nil {
		t.Fatal("expected an uncaught ArithmeticException")
	}
	uncaught, ok := err.(*vmerrors.UncaughtException)
	if !ok {
		t.Fatalf("error = %T (%v), want *vmerrors.UncaughtException", err, err)
	}
	if uncaught.ClassName != arithmeticExceptionName {
		t.Errorf("ClassName = %q, want %q", uncaught.ClassName, arithmeticExceptionName)
	}
}

func TestInvokeArrayStoreAndLoadRoundTrip(t *testing.T) {
	loader := classfile.MapLoader{}
	sig := types.Signature{Name: "test", Descriptor: types.Descriptor{Return: types.NewPrimitive(types.Int)}}
	code := []byte{
		byte(opcodes.Iconst5),       // length 5
		byte(opcodes.Newarray), 10,  // arbitrary atype byte, unused
		byte(opcodes.Dup),
		byte(opcodes.Iconst2),       // index 2
		byte(opcodes.Bipush), 42,    // value 42
		byte(opcodes.Iastore),
		byte(opcodes.Iconst2),       // index 2 again
		byte(opcodes.Iaload),
		byte(opcodes.Ireturn),
	}
	if err := classfile.NewBuilder("Main", "").
		Method(sig, types.Static, 4, 0, code).
		Register(loader); err != nil {
		t.Fatalf("Register Main: %v", err)
	}

	vm := newTestInterpreter(t, loader)
	result, err := vm.Invoke("Main", sig, nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got := int32(result.Bits()); got != 42 {
		t.Errorf("result = %d, want 42", got)
	}
}

func TestInvokeNegativeArraySizeThrows(t *testing.T) {
	loader := classfile.MapLoader{}
	if err := classfile.NewBuilder("java/lang/NegativeArraySizeException", "").Register(loader); err != nil {
		t.Fatalf("Register: %v", err)
	}
	sig := types.Signature{Name: "test", Descriptor: types.Descriptor{Return: types.NewPrimitive(types.Void)}}
	code := []byte{
		byte(opcodes.IconstM1),
		byte(opcodes.Newarray), 10,
		byte(opcodes.Return),
	}
	if err := classfile.NewBuilder("Main", "").
		Method(sig, types.Static, 2, 0, code).
		Register(loader); err != nil {
		t.Fatalf("Register Main: %v", err)
	}

	vm := newTestInterpreter(t, loader)
	_, err := vm.Invoke("Main", sig, nil)
	uncaught, ok := err.(*vmerrors.UncaughtException)
	if !ok {
		t.Fatalf("error = %T (%v), want *vmerrors.UncaughtException", err, err)
	}
	if uncaught.ClassName != negativeArraySizeExceptionName {
		t.Errorf("ClassName = %q, want %q", uncaught.ClassName, negativeArraySizeExceptionName)
	}
}

func TestInstanceofArrayIntoObjectIsTrue(t *testing.T) {
	loader := classfile.MapLoader{}
	sig := types.Signature{Name: "test", Descriptor: types.Descriptor{Return: types.NewPrimitive(types.Boolean)}}
	refs := []classfile.Ref{
		{Kind: classfile.RefClass, ClassName: types.ObjectClassName},
	}
	code := []byte{
		byte(opcodes.Iconst1),
		byte(opcodes.Newarray), 10,
		byte(opcodes.Instanceof), 0x00, 0x00,
		byte(opcodes.Ireturn),
	}
	if err := classfile.NewBuilder("Main", "").
		MethodWithRefs(sig, types.Static, 2, 0, code, refs).
		Register(loader); err != nil {
		t.Fatalf("Register Main: %v", err)
	}

	vm := newTestInterpreter(t, loader)
	result, err := vm.Invoke("Main", sig, nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !object.DecodeBool(result.Bits()) {
		t.Error("expected an array to test instanceof java/lang/Object as true")
	}
}

func TestInstanceofNullIsAlwaysFalse(t *testing.T) {
	loader := classfile.MapLoader{}
	if err := classfile.NewBuilder(types.ObjectClassName, "").Register(loader); err != nil {
		t.Fatalf("Register Object: %v", err)
	}
	sig := types.Signature{Name: "test", Descriptor: types.Descriptor{Return: types.NewPrimitive(types.Boolean)}}
	refs := []classfile.Ref{
		{Kind: classfile.RefClass, ClassName: types.ObjectClassName},
	}
	code := []byte{
		byte(opcodes.AconstNull),
		byte(opcodes.Instanceof), 0x00, 0x00,
		byte(opcodes.Ireturn),
	}
	if err := classfile.NewBuilder("Main", "").
		MethodWithRefs(sig, types.Static, 2, 0, code, refs).
		Register(loader); err != nil {
		t.Fatalf("Register Main: %v", err)
	}

	vm := newTestInterpreter(t, loader)
	result, err := vm.Invoke("Main", sig, nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if object.DecodeBool(result.Bits()) {
		t.Error("null instanceof java/lang/Object must be false")
	}
}

func TestCheckcastNullAlwaysSucceeds(t *testing.T) {
	loader := classfile.MapLoader{}
	if err := classfile.NewBuilder(types.ObjectClassName, "").Register(loader); err != nil {
		t.Fatalf("Register Object: %v", err)
	}
	sig := types.Signature{Name: "test", Descriptor: types.Descriptor{Return: types.NewClass(types.ObjectClassName)}}
	refs := []classfile.Ref{
		{Kind: classfile.RefClass, ClassName: types.ObjectClassName},
	}
	code := []byte{
		byte(opcodes.AconstNull),
		byte(opcodes.Checkcast), 0x00, 0x00,
		byte(opcodes.Areturn),
	}
	if err := classfile.NewBuilder("Main", "").
		MethodWithRefs(sig, types.Static, 1, 0, code, refs).
		Register(loader); err != nil {
		t.Fatalf("Register Main: %v", err)
	}

	vm := newTestInterpreter(t, loader)
	result, err := vm.Invoke("Main", sig, nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if result.Reference() != heap.Null {
		t.Errorf("result = %v, want null reference", result.Reference())
	}
}

func TestFremComputesFractionalRemainder(t *testing.T) {
	loader := classfile.MapLoader{}
	sig := types.Signature{Name: "test", Descriptor: types.Descriptor{
		Params: []types.Type{types.NewPrimitive(types.Float), types.NewPrimitive(types.Float)},
		Return: types.NewPrimitive(types.Float),
	}}
	code := []byte{
		byte(opcodes.Fload), 0,
		byte(opcodes.Fload), 1,
		byte(opcodes.Frem),
		byte(opcodes.Freturn),
	}
	if err := classfile.NewBuilder("Main", "").
		Method(sig, types.Static, 2, 2, code).
		Register(loader); err != nil {
		t.Fatalf("Register Main: %v", err)
	}

	vm := newTestInterpreter(t, loader)
	args := []frames.Value{
		frames.PrimitiveValue(object.EncodeFloat32(5.5), 1),
		frames.PrimitiveValue(object.EncodeFloat32(2.0), 1),
	}
	result, err := vm.Invoke("Main", sig, args)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got := object.DecodeFloat32(result.Bits()); got != 1.5 {
		t.Errorf("frem(5.5, 2.0) = %v, want 1.5", got)
	}
}

func TestDremComputesFractionalRemainder(t *testing.T) {
	loader := classfile.MapLoader{}
	sig := types.Signature{Name: "test", Descriptor: types.Descriptor{
		Params: []types.Type{types.NewPrimitive(types.Double), types.NewPrimitive(types.Double)},
		Return: types.NewPrimitive(types.Double),
	}}
	code := []byte{
		byte(opcodes.Dload), 0,
		byte(opcodes.Dload), 2,
		byte(opcodes.Drem),
		byte(opcodes.Dreturn),
	}
	if err := classfile.NewBuilder("Main", "").
		Method(sig, types.Static, 2, 4, code).
		Register(loader); err != nil {
		t.Fatalf("Register Main: %v", err)
	}

	vm := newTestInterpreter(t, loader)
	args := []frames.Value{
		frames.PrimitiveValue(object.EncodeFloat64(5.5), 2),
		frames.PrimitiveValue(object.EncodeFloat64(2.0), 2),
	}
	result, err := vm.Invoke("Main", sig, args)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got := object.DecodeFloat64(result.Bits()); got != 1.5 {
		t.Errorf("drem(5.5, 2.0) = %v, want 1.5", got)
	}
}

func TestPutfieldGetfieldRoundTrip(t *testing.T) {
	loader := classfile.MapLoader{}
	sig := types.Signature{Name: "test", Descriptor: types.Descriptor{Return: types.NewPrimitive(types.Int)}}
	newRefs := []classfile.Ref{{Kind: classfile.RefClass, ClassName: "C"}}
	fieldRefs := []classfile.Ref{
		{Kind: classfile.RefClass, ClassName: "C"},
		{Kind: classfile.RefField, ClassName: "C", Name: "x", Descriptor: "I"},
	}
	allRefs := append(newRefs, fieldRefs...)
	code := []byte{
		byte(opcodes.New), 0x00, 0x00, // refs[0] = C
		byte(opcodes.Dup),
		byte(opcodes.Bipush), 9,
		byte(opcodes.Putfield), 0x00, 0x02, // refs[2] = field C.x
		byte(opcodes.Getfield), 0x00, 0x02,
		byte(opcodes.Ireturn),
	}
	if err := classfile.NewBuilder("C", "").
		Field("x", types.NewPrimitive(types.Int), types.Public).
		Register(loader); err != nil {
		t.Fatalf("Register C: %v", err)
	}
	if err := classfile.NewBuilder("Main", "").
		MethodWithRefs(sig, types.Static, 3, 0, code, allRefs).
		Register(loader); err != nil {
		t.Fatalf("Register Main: %v", err)
	}

	vm := newTestInterpreter(t, loader)
	result, err := vm.Invoke("Main", sig, nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got := int32(result.Bits()); got != 9 {
		t.Errorf("result = %d, want 9", got)
	}
}
