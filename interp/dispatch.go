/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"math"

	"github.com/corvuslang/corvus/classfile"
	"github.com/corvuslang/corvus/frames"
	"github.com/corvuslang/corvus/heap"
	"github.com/corvuslang/corvus/object"
	"github.com/corvuslang/corvus/opcodes"
	"github.com/corvuslang/corvus/subtype"
	"github.com/corvuslang/corvus/types"
	"github.com/corvuslang/corvus/vmerrors"
)

// Exception class names the dispatch loop itself raises, for conditions a
// real class-file compiler would have had the JDK's own classes name.
// Inlined as literals rather than imported constants, matching jacobin's own
// excNames.ClassCastException-style naming but without a shared catalogue
// package in scope here.
const (
	arithmeticExceptionName        = "java/lang/ArithmeticException"
	classCastExceptionName         = "java/lang/ClassCastException"
	negativeArraySizeExceptionName = "java/lang/NegativeArraySizeException"
)

func u16(code []byte, pc int) int {
	return int(code[pc])<<8 | int(code[pc+1])
}

func s16(code []byte, pc int) int {
	return int(int16(uint16(code[pc])<<8 | uint16(code[pc+1])))
}

func s32(code []byte, pc int) int32 {
	return int32(uint32(code[pc])<<24 | uint32(code[pc+1])<<16 | uint32(code[pc+2])<<8 | uint32(code[pc+3]))
}

func refAt(refs []classfile.Ref, code []byte, pc int) (classfile.Ref, error) {
	idx := u16(code, pc+1)
	if idx < 0 || idx >= len(refs) {
		return classfile.Ref{}, &vmerrors.InternalError{Reason: "symbolic reference index out of range"}
	}
	return refs[idx], nil
}

func vi32(x int32) frames.Value { return frames.PrimitiveValue(object.EncodeInt32(x), 1) }
func vi64(x int64) frames.Value { return frames.PrimitiveValue(object.EncodeInt64(x), 2) }
func vf32(x float32) frames.Value { return frames.PrimitiveValue(object.EncodeFloat32(x), 1) }
func vf64(x float64) frames.Value { return frames.PrimitiveValue(object.EncodeFloat64(x), 2) }

func i32(v frames.Value) int32     { return object.DecodeInt32(v.Bits()) }
func i64(v frames.Value) int64     { return object.DecodeInt64(v.Bits()) }
func f32(v frames.Value) float32   { return object.DecodeFloat32(v.Bits()) }
func f64(v frames.Value) float64   { return object.DecodeFloat64(v.Bits()) }

// rawCellOf converts a Value to the raw 64-bit cell a heap write expects.
func rawCellOf(v frames.Value) uint64 {
	if v.IsReference() {
		return uint64(v.Reference())
	}
	return v.Bits()
}

// valueFromCell reconstructs a typed Value from a raw heap cell, given the
// declared field/element type.
func valueFromCell(raw uint64, t types.Type) frames.Value {
	if t.IsPrimitive() {
		width := t.Slots()
		if width == 0 {
			width = 1
		}
		return frames.PrimitiveValue(raw, width)
	}
	return frames.ReferenceValue(heap.Reference(raw))
}

func localAt(f *frames.Frame, n int) (frames.Value, error) {
	if n < 0 || n >= len(f.Locals) {
		return frames.Value{}, &vmerrors.InternalError{Reason: "local variable index out of range"}
	}
	return f.Locals[n], nil
}

func setLocalAt(f *frames.Frame, n int, v frames.Value) error {
	if n < 0 || n >= len(f.Locals) {
		return &vmerrors.InternalError{Reason: "local variable index out of range"}
	}
	f.Locals[n] = v
	return nil
}

// popArrayLoad pops an array reference and an index (index on top), the
// operand order every Xaload instruction shares.
func popArrayLoad(f *frames.Frame) (heap.Reference, int, error) {
	idxV, err := f.Pop()
	if err != nil {
		return 0, 0, err
	}
	arrV, err := f.Pop()
	if err != nil {
		return 0, 0, err
	}
	return arrV.Reference(), int(i32(idxV)), nil
}

// popArrayStore pops an array reference, an index, and a value (value on
// top), the operand order every Xastore instruction shares.
func popArrayStore(f *frames.Frame) (heap.Reference, int, frames.Value, error) {
	value, err := f.Pop()
	if err != nil {
		return 0, 0, frames.Value{}, err
	}
	idxV, err := f.Pop()
	if err != nil {
		return 0, 0, frames.Value{}, err
	}
	arrV, err := f.Pop()
	if err != nil {
		return 0, 0, frames.Value{}, err
	}
	return arrV.Reference(), int(i32(idxV)), value, nil
}

// handleThrow implements spec §4.7's exception-propagation search over a
// single frame's handler table: walk handlers whose PC range covers pc,
// matching on ancestry (or catch-all when CatchType is empty). A match
// clears the operand stack, pushes the exception reference, and transfers
// control to the handler PC. No match returns a *thrownException for the
// caller to propagate to the enclosing frame.
func (vm *Interpreter) handleThrow(f *frames.Frame, pc int, ref heap.Reference) error {
	rc, err := object.ClassOf(vm.Heap, vm.Classes, ref)
	if err != nil {
		return vmerrors.WrapInternal(err)
	}
	className := rc.Name()
	ancestry, ancErr := vm.Classes.Ancestry(className)

	for _, h := range f.Handlers {
		if pc < h.StartPC || pc >= h.EndPC {
			continue
		}
		if h.CatchType == "" || (ancErr == nil && ancestry[h.CatchType]) {
			f.Clear()
			f.Push(frames.ReferenceValue(ref))
			f.PC = h.HandlerPC
			return nil
		}
	}
	return &thrownException{ref: ref, className: className}
}

// throwNamed allocates a bare instance of className and routes it through
// handleThrow, the way the dispatch loop raises exceptions of its own
// (division by zero, a failed checkcast) rather than ones a GFunction or
// Athrow already produced.
func (vm *Interpreter) throwNamed(f *frames.Frame, pc int, className string) error {
	te, err := vm.newThrown(className)
	if err != nil {
		return err
	}
	return vm.handleThrow(f, pc, te.ref)
}

// runFrame is the dispatch loop of spec §4.7: it executes f's bytecode until
// a return instruction yields a result or an exception unwinds past every
// handler in f, in which case the returned error is a *thrownException for
// invokeBytecode's caller to either catch (if it is itself a nested call
// inside another frame) or let reach Invoke, which converts it into
// *vmerrors.UncaughtException.
func (vm *Interpreter) runFrame(f *frames.Frame, refs []classfile.Ref) (frames.Value, error) {
	for {
		if f.PC < 0 || f.PC >= len(f.Code) {
			return frames.Value{}, vmerrors.WrapInternal(&vmerrors.InternalError{Reason: "program counter ran past the end of the method body"})
		}
		pc := f.PC
		op := opcodes.Opcode(f.Code[pc])

		switch op {
		case opcodes.Nop:
			f.PC++

		case opcodes.AconstNull:
			f.Push(frames.ReferenceValue(heap.Null))
			f.PC++

		case opcodes.IconstM1, opcodes.Iconst0, opcodes.Iconst1, opcodes.Iconst2, opcodes.Iconst3, opcodes.Iconst4, opcodes.Iconst5:
			f.Push(vi32(int32(op) - int32(opcodes.Iconst0)))
			f.PC++

		case opcodes.Lconst0, opcodes.Lconst1:
			f.Push(vi64(int64(op) - int64(opcodes.Lconst0)))
			f.PC++

		case opcodes.Fconst0, opcodes.Fconst1, opcodes.Fconst2:
			f.Push(vf32(float32(int(op) - int(opcodes.Fconst0))))
			f.PC++

		case opcodes.Dconst0, opcodes.Dconst1:
			f.Push(vf64(float64(int(op) - int(opcodes.Dconst0))))
			f.PC++

		case opcodes.Bipush:
			f.Push(vi32(int32(int8(f.Code[pc+1]))))
			f.PC += 2

		case opcodes.Sipush:
			f.Push(vi32(int32(s16(f.Code, pc+1))))
			f.PC += 3

		case opcodes.Ldc:
			return frames.Value{}, vmerrors.WrapInternal(&vmerrors.InternalError{Reason: "ldc: constant-pool literal loading is not modeled; build string/numeric constants through invocation instead"})

		case opcodes.Iload, opcodes.Lload, opcodes.Fload, opcodes.Dload, opcodes.Aload:
			v, err := localAt(f, int(f.Code[pc+1]))
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.Push(v)
			f.PC += 2

		case opcodes.Iload0, opcodes.Iload1, opcodes.Iload2, opcodes.Iload3:
			v, err := localAt(f, int(op-opcodes.Iload0))
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.Push(v)
			f.PC++

		case opcodes.Aload0, opcodes.Aload1, opcodes.Aload2, opcodes.Aload3:
			v, err := localAt(f, int(op-opcodes.Aload0))
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.Push(v)
			f.PC++

		case opcodes.Iaload, opcodes.Faload, opcodes.Baload, opcodes.Caload, opcodes.Saload:
			arr, idx, err := popArrayLoad(f)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			raw, err := object.GetElement(vm.Heap, arr, idx)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.Push(frames.PrimitiveValue(raw, 1))
			f.PC++

		case opcodes.Laload, opcodes.Daload:
			arr, idx, err := popArrayLoad(f)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			raw, err := object.GetElement(vm.Heap, arr, idx)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.Push(frames.PrimitiveValue(raw, 2))
			f.PC++

		case opcodes.Aaload:
			arr, idx, err := popArrayLoad(f)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			raw, err := object.GetElement(vm.Heap, arr, idx)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.Push(frames.ReferenceValue(heap.Reference(raw)))
			f.PC++

		case opcodes.Istore, opcodes.Lstore, opcodes.Fstore, opcodes.Dstore, opcodes.Astore:
			v, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			if err := setLocalAt(f, int(f.Code[pc+1]), v); err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.PC += 2

		case opcodes.Istore0, opcodes.Istore1, opcodes.Istore2, opcodes.Istore3:
			v, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			if err := setLocalAt(f, int(op-opcodes.Istore0), v); err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.PC++

		case opcodes.Astore0, opcodes.Astore1, opcodes.Astore2, opcodes.Astore3:
			v, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			if err := setLocalAt(f, int(op-opcodes.Astore0), v); err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.PC++

		case opcodes.Iastore, opcodes.Fastore, opcodes.Bastore, opcodes.Castore, opcodes.Sastore,
			opcodes.Lastore, opcodes.Dastore:
			arr, idx, value, err := popArrayStore(f)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			if err := object.PutElement(vm.Heap, arr, idx, value.Bits()); err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.PC++

		case opcodes.Aastore:
			arr, idx, value, err := popArrayStore(f)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			if err := object.PutElement(vm.Heap, arr, idx, uint64(value.Reference())); err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.PC++

		case opcodes.Pop:
			if _, err := f.Pop(); err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.PC++

		case opcodes.Pop2:
			a, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			if a.Width() == 1 {
				if _, err := f.Pop(); err != nil {
					return frames.Value{}, vmerrors.WrapInternal(err)
				}
			}
			f.PC++

		case opcodes.Dup:
			a, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.Push(a)
			f.Push(a)
			f.PC++

		case opcodes.DupX1:
			a, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			b, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.Push(a)
			f.Push(b)
			f.Push(a)
			f.PC++

		case opcodes.Dup2:
			a, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			if a.Width() == 2 {
				f.Push(a)
				f.Push(a)
			} else {
				b, err := f.Pop()
				if err != nil {
					return frames.Value{}, vmerrors.WrapInternal(err)
				}
				f.Push(b)
				f.Push(a)
				f.Push(b)
				f.Push(a)
			}
			f.PC++

		case opcodes.Swap:
			a, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			b, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.Push(a)
			f.Push(b)
			f.PC++

		case opcodes.DupX2, opcodes.Dup2X1, opcodes.Dup2X2:
			return frames.Value{}, vmerrors.WrapInternal(&vmerrors.InternalError{Reason: "unimplemented stack-manipulation opcode"})

		case opcodes.Iadd, opcodes.Isub, opcodes.Imul, opcodes.Idiv, opcodes.Irem:
			b, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			a, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			if (op == opcodes.Idiv || op == opcodes.Irem) && i32(b) == 0 {
				if err := vm.throwNamed(f, pc, arithmeticExceptionName); err != nil {
					return frames.Value{}, err
				}
				continue
			}
			var r int32
			switch op {
			case opcodes.Iadd:
				r = i32(a) + i32(b)
			case opcodes.Isub:
				r = i32(a) - i32(b)
			case opcodes.Imul:
				r = i32(a) * i32(b)
			case opcodes.Idiv:
				r = i32(a) / i32(b)
			case opcodes.Irem:
				r = i32(a) % i32(b)
			}
			f.Push(vi32(r))
			f.PC++

		case opcodes.Ineg:
			a, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.Push(vi32(-i32(a)))
			f.PC++

		case opcodes.Ladd, opcodes.Lsub, opcodes.Lmul, opcodes.Ldiv, opcodes.Lrem:
			b, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			a, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			if (op == opcodes.Ldiv || op == opcodes.Lrem) && i64(b) == 0 {
				if err := vm.throwNamed(f, pc, arithmeticExceptionName); err != nil {
					return frames.Value{}, err
				}
				continue
			}
			var r int64
			switch op {
			case opcodes.Ladd:
				r = i64(a) + i64(b)
			case opcodes.Lsub:
				r = i64(a) - i64(b)
			case opcodes.Lmul:
				r = i64(a) * i64(b)
			case opcodes.Ldiv:
				r = i64(a) / i64(b)
			case opcodes.Lrem:
				r = i64(a) % i64(b)
			}
			f.Push(vi64(r))
			f.PC++

		case opcodes.Lneg:
			a, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.Push(vi64(-i64(a)))
			f.PC++

		case opcodes.Fadd, opcodes.Fsub, opcodes.Fmul, opcodes.Fdiv, opcodes.Frem:
			b, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			a, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			var r float32
			switch op {
			case opcodes.Fadd:
				r = f32(a) + f32(b)
			case opcodes.Fsub:
				r = f32(a) - f32(b)
			case opcodes.Fmul:
				r = f32(a) * f32(b)
			case opcodes.Fdiv:
				r = f32(a) / f32(b)
			case opcodes.Frem:
				r = float32(math.Mod(float64(f32(a)), float64(f32(b))))
			}
			f.Push(vf32(r))
			f.PC++

		case opcodes.Fneg:
			a, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.Push(vf32(-f32(a)))
			f.PC++

		case opcodes.Dadd, opcodes.Dsub, opcodes.Dmul, opcodes.Ddiv, opcodes.Drem:
			b, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			a, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			var r float64
			switch op {
			case opcodes.Dadd:
				r = f64(a) + f64(b)
			case opcodes.Dsub:
				r = f64(a) - f64(b)
			case opcodes.Dmul:
				r = f64(a) * f64(b)
			case opcodes.Ddiv:
				r = f64(a) / f64(b)
			case opcodes.Drem:
				r = math.Mod(f64(a), f64(b))
			}
			f.Push(vf64(r))
			f.PC++

		case opcodes.Dneg:
			a, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.Push(vf64(-f64(a)))
			f.PC++

		case opcodes.Iinc:
			n := int(f.Code[pc+1])
			delta := int32(int8(f.Code[pc+2]))
			v, err := localAt(f, n)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			if err := setLocalAt(f, n, vi32(i32(v)+delta)); err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.PC += 3

		case opcodes.Ifeq, opcodes.Ifne, opcodes.Iflt, opcodes.Ifge, opcodes.Ifgt, opcodes.Ifle:
			v, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			if branchUnary(op, i32(v)) {
				f.PC = pc + s16(f.Code, pc+1)
			} else {
				f.PC += 3
			}

		case opcodes.IfIcmpeq, opcodes.IfIcmpne, opcodes.IfIcmplt, opcodes.IfIcmpge, opcodes.IfIcmpgt, opcodes.IfIcmple:
			b, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			a, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			if branchBinary(op, i32(a), i32(b)) {
				f.PC = pc + s16(f.Code, pc+1)
			} else {
				f.PC += 3
			}

		case opcodes.IfAcmpeq, opcodes.IfAcmpne:
			b, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			a, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			eq := a.Reference() == b.Reference()
			if (op == opcodes.IfAcmpeq) == eq {
				f.PC = pc + s16(f.Code, pc+1)
			} else {
				f.PC += 3
			}

		case opcodes.Goto:
			f.PC = pc + s16(f.Code, pc+1)

		case opcodes.Tableswitch:
			newPC, err := vm.dispatchTableswitch(f, pc)
			if err != nil {
				return frames.Value{}, err
			}
			f.PC = newPC

		case opcodes.Lookupswitch:
			newPC, err := vm.dispatchLookupswitch(f, pc)
			if err != nil {
				return frames.Value{}, err
			}
			f.PC = newPC

		case opcodes.Ireturn, opcodes.Freturn:
			v, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			return v, nil

		case opcodes.Lreturn, opcodes.Dreturn:
			v, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			return v, nil

		case opcodes.Areturn:
			v, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			return v, nil

		case opcodes.Return:
			return frames.PrimitiveValue(0, 0), nil

		case opcodes.Getstatic:
			ref, err := refAt(refs, f.Code, pc)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			rc, err := vm.Classes.Resolve(types.NewClass(ref.ClassName))
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			fieldType, _, err := types.ParseFieldType(ref.Descriptor)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			raw := rc.StaticGet(ref.Name)
			if raw == nil {
				f.Push(zeroValue(fieldType))
			} else {
				f.Push(raw.(frames.Value))
			}
			f.PC += 3

		case opcodes.Putstatic:
			ref, err := refAt(refs, f.Code, pc)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			rc, err := vm.Classes.Resolve(types.NewClass(ref.ClassName))
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			v, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			rc.StaticPut(ref.Name, v)
			f.PC += 3

		case opcodes.Getfield:
			ref, err := refAt(refs, f.Code, pc)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			rc, err := vm.Classes.Resolve(types.NewClass(ref.ClassName))
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			fieldType, _, err := types.ParseFieldType(ref.Descriptor)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			objV, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			raw, err := object.GetField(vm.Heap, rc, objV.Reference(), ref.Name)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.Push(valueFromCell(raw, fieldType))
			f.PC += 3

		case opcodes.Putfield:
			ref, err := refAt(refs, f.Code, pc)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			rc, err := vm.Classes.Resolve(types.NewClass(ref.ClassName))
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			v, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			objV, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			if err := object.PutField(vm.Heap, rc, objV.Reference(), ref.Name, rawCellOf(v)); err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.PC += 3

		case opcodes.Invokestatic:
			ref, err := refAt(refs, f.Code, pc)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			desc, err := types.ParseDescriptor(ref.Descriptor)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			args, err := popInvokeArgs(f, desc, false)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			sig := types.Signature{Name: ref.Name, Descriptor: desc}
			rc, err := vm.Classes.Resolve(types.NewClass(ref.ClassName))
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			rm, err := resolveDirectRef(vm.Natives, rc, sig)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			rv, err := vm.invokeResolved(rm, ref.ClassName, sig, args)
			if err != nil {
				if te, ok := err.(*thrownException); ok {
					if herr := vm.handleThrow(f, pc, te.ref); herr != nil {
						return frames.Value{}, herr
					}
					continue
				}
				return frames.Value{}, err
			}
			if desc.Return.Primitive() != types.Void {
				f.Push(rv)
			}
			f.PC += 3

		case opcodes.Invokespecial:
			ref, err := refAt(refs, f.Code, pc)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			desc, err := types.ParseDescriptor(ref.Descriptor)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			args, err := popInvokeArgs(f, desc, true)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			sig := types.Signature{Name: ref.Name, Descriptor: desc}
			rc, err := vm.Classes.Resolve(types.NewClass(ref.ClassName))
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			rm, err := resolveDirectRef(vm.Natives, rc, sig)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			rv, err := vm.invokeResolved(rm, ref.ClassName, sig, args)
			if err != nil {
				if te, ok := err.(*thrownException); ok {
					if herr := vm.handleThrow(f, pc, te.ref); herr != nil {
						return frames.Value{}, herr
					}
					continue
				}
				return frames.Value{}, err
			}
			if desc.Return.Primitive() != types.Void {
				f.Push(rv)
			}
			f.PC += 3

		case opcodes.Invokevirtual, opcodes.Invokeinterface:
			ref, err := refAt(refs, f.Code, pc)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			desc, err := types.ParseDescriptor(ref.Descriptor)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			args, err := popInvokeArgs(f, desc, true)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			sig := types.Signature{Name: ref.Name, Descriptor: desc}
			receiverClass, err := object.ClassOf(vm.Heap, vm.Classes, args[0].Reference())
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			rm, err := resolveVirtual(vm.Classes, vm.Natives, receiverClass, sig)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			rv, err := vm.invokeResolved(rm, rm.owner.Name(), sig, args)
			if err != nil {
				if te, ok := err.(*thrownException); ok {
					if herr := vm.handleThrow(f, pc, te.ref); herr != nil {
						return frames.Value{}, herr
					}
					continue
				}
				return frames.Value{}, err
			}
			if desc.Return.Primitive() != types.Void {
				f.Push(rv)
			}
			if op == opcodes.Invokeinterface {
				f.PC += 5
			} else {
				f.PC += 3
			}

		case opcodes.New:
			ref, err := refAt(refs, f.Code, pc)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			rc, err := vm.Classes.Resolve(types.NewClass(ref.ClassName))
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			objRef, err := object.AllocateObject(vm.Heap, rc)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.Push(frames.ReferenceValue(objRef))
			f.PC += 3

		case opcodes.Newarray:
			lengthV, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			length := i32(lengthV)
			if length < 0 {
				if err := vm.throwNamed(f, pc, negativeArraySizeExceptionName); err != nil {
					return frames.Value{}, err
				}
				continue
			}
			arrRef, err := object.AllocateArray(vm.Heap, int(length))
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.Push(frames.ReferenceValue(arrRef))
			f.PC += 2

		case opcodes.Anewarray:
			if _, err := refAt(refs, f.Code, pc); err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			lengthV, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			length := i32(lengthV)
			if length < 0 {
				if err := vm.throwNamed(f, pc, negativeArraySizeExceptionName); err != nil {
					return frames.Value{}, err
				}
				continue
			}
			arrRef, err := object.AllocateArray(vm.Heap, int(length))
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.Push(frames.ReferenceValue(arrRef))
			f.PC += 3

		case opcodes.Arraylength:
			arrV, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			length, err := object.ArrayLength(vm.Heap, arrV.Reference())
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.Push(vi32(int32(length)))
			f.PC++

		case opcodes.Athrow:
			v, err := f.Pop()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			if err := vm.handleThrow(f, pc, v.Reference()); err != nil {
				return frames.Value{}, err
			}

		case opcodes.Checkcast, opcodes.Instanceof:
			ref, err := refAt(refs, f.Code, pc)
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			v, err := f.Peek()
			if err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			isNull := v.Reference() == heap.Null
			var assignable bool
			switch {
			case isNull && op == opcodes.Checkcast:
				// null casts successfully to any type (jvms-6.5.checkcast).
				assignable = true
			case isNull:
				// null instanceof T is always false (jvms-6.5.instanceof),
				// unlike checkcast's "null always succeeds" rule.
				assignable = false
			default:
				isArr, err := object.IsArray(vm.Heap, v.Reference())
				if err != nil {
					return frames.Value{}, vmerrors.WrapInternal(err)
				}
				if isArr {
					// A symbolic Ref only ever names a class (spec §3's
					// array types carry no such reference), so the only
					// reachable assignability rule for an array operand is
					// "array into Object/Cloneable/Serializable".
					assignable = ref.ClassName == types.ObjectClassName ||
						ref.ClassName == types.CloneableClassName ||
						ref.ClassName == types.SerializableClassName
				} else {
					objClass, err := object.ClassOf(vm.Heap, vm.Classes, v.Reference())
					if err != nil {
						return frames.Value{}, vmerrors.WrapInternal(err)
					}
					assignable = subtype.Check(vm.Classes, types.NewClass(objClass.Name()), types.NewClass(ref.ClassName))
				}
			}
			if op == opcodes.Checkcast {
				if !assignable {
					if err := vm.throwNamed(f, pc, classCastExceptionName); err != nil {
						return frames.Value{}, err
					}
					continue
				}
				f.PC += 3
			} else {
				if _, err := f.Pop(); err != nil {
					return frames.Value{}, vmerrors.WrapInternal(err)
				}
				f.Push(vi32(boolToInt32(assignable)))
				f.PC += 3
			}

		case opcodes.Monitorenter, opcodes.Monitorexit:
			if _, err := f.Pop(); err != nil {
				return frames.Value{}, vmerrors.WrapInternal(err)
			}
			f.PC++

		default:
			return frames.Value{}, vmerrors.WrapInternal(&vmerrors.InternalError{Reason: "unsupported opcode"})
		}
	}
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func branchUnary(op opcodes.Opcode, v int32) bool {
	switch op {
	case opcodes.Ifeq:
		return v == 0
	case opcodes.Ifne:
		return v != 0
	case opcodes.Iflt:
		return v < 0
	case opcodes.Ifge:
		return v >= 0
	case opcodes.Ifgt:
		return v > 0
	case opcodes.Ifle:
		return v <= 0
	default:
		return false
	}
}

func branchBinary(op opcodes.Opcode, a, b int32) bool {
	switch op {
	case opcodes.IfIcmpeq:
		return a == b
	case opcodes.IfIcmpne:
		return a != b
	case opcodes.IfIcmplt:
		return a < b
	case opcodes.IfIcmpge:
		return a >= b
	case opcodes.IfIcmpgt:
		return a > b
	case opcodes.IfIcmple:
		return a <= b
	default:
		return false
	}
}

func zeroValue(t types.Type) frames.Value {
	if t.IsPrimitive() {
		width := t.Slots()
		if width == 0 {
			width = 1
		}
		return frames.PrimitiveValue(0, width)
	}
	return frames.ReferenceValue(heap.Null)
}

// popInvokeArgs pops an invocation's arguments off the operand stack in the
// order they were pushed (receiver first, if withReceiver, then each
// parameter left to right).
func popInvokeArgs(f *frames.Frame, desc types.Descriptor, withReceiver bool) ([]frames.Value, error) {
	n := len(desc.Params)
	if withReceiver {
		n++
	}
	args := make([]frames.Value, n)
	for i := n - 1; i >= 0; i-- {
		v, err := f.Pop()
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// dispatchTableswitch reads the 4-byte-aligned default offset, low and high
// bounds, and jump table that follow a tableswitch instruction, and returns
// the absolute PC to transfer control to for the popped key.
func (vm *Interpreter) dispatchTableswitch(f *frames.Frame, pc int) (int, error) {
	keyV, err := f.Pop()
	if err != nil {
		return 0, vmerrors.WrapInternal(err)
	}
	key := i32(keyV)

	pad := (4 - (pc+1)%4) % 4
	p := pc + 1 + pad
	defaultOffset := int(s32(f.Code, p))
	p += 4
	low := s32(f.Code, p)
	p += 4
	high := s32(f.Code, p)
	p += 4

	if key < low || key > high {
		return pc + defaultOffset, nil
	}
	offset := int(s32(f.Code, p+int(key-low)*4))
	return pc + offset, nil
}

func (vm *Interpreter) dispatchLookupswitch(f *frames.Frame, pc int) (int, error) {
	keyV, err := f.Pop()
	if err != nil {
		return 0, vmerrors.WrapInternal(err)
	}
	key := i32(keyV)

	pad := (4 - (pc+1)%4) % 4
	p := pc + 1 + pad
	defaultOffset := int(s32(f.Code, p))
	p += 4
	npairs := int(s32(f.Code, p))
	p += 4
	for i := 0; i < npairs; i++ {
		match := s32(f.Code, p)
		offset := int(s32(f.Code, p+4))
		p += 8
		if match == key {
			return pc + offset, nil
		}
	}
	return pc + defaultOffset, nil
}
