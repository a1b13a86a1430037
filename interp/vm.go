/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package interp is the interpreter thread of spec §4.7: the frame stack,
// the dispatch loop, and the top-level invoke operation tying class
// resolution, method resolution, and bytecode execution together. The
// call/return structure is grounded on jacobin's jvm package
// (runJavaInitializer/runNativeInitializer in initializerBlock.go: create a
// frame, push it, runFrame, pop it), reshaped to operate over Corvus's own
// heap-indexed object model instead of jacobin's Go-struct objects. Class
// static initializers (<clinit>) are not run.
package interp

import (
	"github.com/corvuslang/corvus/classfile"
	"github.com/corvuslang/corvus/classloader"
	"github.com/corvuslang/corvus/corvuslog"
	"github.com/corvuslang/corvus/frames"
	"github.com/corvuslang/corvus/gfunction"
	"github.com/corvuslang/corvus/heap"
	"github.com/corvuslang/corvus/object"
	"github.com/corvuslang/corvus/stringpool"
	"github.com/corvuslang/corvus/types"
	"github.com/corvuslang/corvus/vmerrors"
)

// Thread is the interpreter's single execution context: a stack of frames,
// the topmost current (spec §4.7 "State"). Corvus runs one thread per VM
// instance; spec §9's open question on multi-threading is deliberately left
// unaddressed here, matching the source's own never-exercised sketch.
type Thread struct {
	Stack *frames.FrameStack
}

// NewThread returns an idle thread (empty frame stack).
func NewThread() *Thread {
	return &Thread{Stack: frames.CreateFrameStack()}
}

// Interpreter ties together the class table, heap, interning table, native
// registry, and thread a running program needs. Per spec §9's "Global
// state" design note, each Interpreter is wholly self-contained: nothing
// here is a package-level variable, so constructing a second Interpreter
// never shares state with the first.
type Interpreter struct {
	Heap    *heap.Heap
	Classes *classloader.ClassTable
	Strings *stringpool.Pool
	Natives *gfunction.Registry
	Logger  *corvuslog.Logger
	Thread  *Thread
}

// New builds an Interpreter over the given collaborators. A nil logger is
// valid (corvuslog.Logger tolerates nil receivers).
func New(h *heap.Heap, classes *classloader.ClassTable, strings *stringpool.Pool, natives *gfunction.Registry, logger *corvuslog.Logger) *Interpreter {
	return &Interpreter{
		Heap:    h,
		Classes: classes,
		Strings: strings,
		Natives: natives,
		Logger:  logger,
		Thread:  NewThread(),
	}
}

// Invoke implements spec §4.7's top-level operation: resolve the class,
// resolve the method (native or bytecode), and either apply the native
// function directly or run the dispatch loop over a fresh frame. Fatal
// causes (ClassNotFound, MalformedClass, NoSuchMethod, OutOfMemory,
// InternalError) are wrapped in vmerrors.InternalException; a program
// exception that unwinds the whole call surfaces as *vmerrors.UncaughtException
// unwrapped, so callers can distinguish the two by type alone.
func (vm *Interpreter) Invoke(className string, sig types.Signature, args []frames.Value) (frames.Value, error) {
	rc, err := vm.Classes.Resolve(types.NewClass(className))
	if err != nil {
		return frames.Value{}, vmerrors.WrapInternal(err)
	}

	rm, err := resolveDirectRef(vm.Natives, rc, sig)
	if err != nil {
		return frames.Value{}, vmerrors.WrapInternal(err)
	}

	rv, err := vm.invokeResolved(rm, className, sig, args)
	if te, ok := err.(*thrownException); ok {
		return frames.Value{}, &vmerrors.UncaughtException{ClassName: te.className}
	}
	return rv, err
}

// thrownException carries a live exception object up through nested
// invokeBytecode/runFrame calls while each enclosing frame's handler table
// gets a chance at it (spec §4.7's propagation steps). It is never returned
// across Invoke's own boundary: Invoke converts it to *vmerrors.UncaughtException.
type thrownException struct {
	ref       heap.Reference
	className string
}

func (t *thrownException) Error() string {
	return "interp: thrown " + t.className
}

// invokeResolved applies an already-resolved method, native or bytecode,
// sharing the same native-marshaling and frame-construction logic the
// dispatch loop's invocation opcodes use.
func (vm *Interpreter) invokeResolved(rm resolvedMethod, className string, sig types.Signature, args []frames.Value) (frames.Value, error) {
	if rm.isNative() {
		return vm.invokeNative(className, sig, args, *rm.native)
	}
	return vm.invokeBytecode(rm.owner, sig, rm.code, args)
}

// invokeNative applies a trapped native and marshals its three-way return
// contract (frames.Value, raw Go value, or *gfunction.GErrBlk) into a
// frames.Value or an error, per spec §4.8.
func (vm *Interpreter) invokeNative(className string, sig types.Signature, args []frames.Value, m gfunction.GMeth) (frames.Value, error) {
	raw, ok := vm.Natives.Invoke(className, sig.String(), args)
	if !ok {
		return frames.Value{}, vmerrors.WrapInternal(&vmerrors.NoSuchMethodError{ClassName: className, Signature: sig.String()})
	}
	return vm.marshalNativeResult(raw)
}

func (vm *Interpreter) marshalNativeResult(raw interface{}) (frames.Value, error) {
	switch r := raw.(type) {
	case frames.Value:
		return r, nil
	case *gfunction.GErrBlk:
		te, err := vm.newThrown(r.ExceptionClass)
		if err != nil {
			return frames.Value{}, err
		}
		return frames.Value{}, te
	case string:
		ref, err := vm.internGoString(r)
		if err != nil {
			return frames.Value{}, vmerrors.WrapInternal(err)
		}
		return frames.ReferenceValue(ref), nil
	case int32:
		return frames.PrimitiveValue(object.EncodeInt32(r), 1), nil
	case int64:
		return frames.PrimitiveValue(object.EncodeInt64(r), 2), nil
	case bool:
		return frames.PrimitiveValue(object.EncodeBool(r), 1), nil
	case float32:
		return frames.PrimitiveValue(object.EncodeFloat32(r), 1), nil
	case float64:
		return frames.PrimitiveValue(object.EncodeFloat64(r), 2), nil
	case nil:
		return frames.ReferenceValue(heap.Null), nil
	default:
		return frames.Value{}, vmerrors.WrapInternal(&vmerrors.InternalError{Reason: "native leaf returned an unmarshalable value"})
	}
}

// newThrown allocates a bare instance of className and wraps it as the
// in-flight exception carried up through nested invocations, the same shape
// Athrow and the dispatch loop's own raised exceptions use.
func (vm *Interpreter) newThrown(className string) (*thrownException, error) {
	rc, err := vm.Classes.Resolve(types.NewClass(className))
	if err != nil {
		return nil, vmerrors.WrapInternal(err)
	}
	ref, err := object.AllocateObject(vm.Heap, rc)
	if err != nil {
		return nil, vmerrors.WrapInternal(err)
	}
	return &thrownException{ref: ref, className: className}, nil
}

// internGoString allocates and interns a string object from a raw Go
// string, the bridge a native leaf's plain string return value needs to
// become a heap-resident, interned java/lang/String.
func (vm *Interpreter) internGoString(s string) (heap.Reference, error) {
	stringClass, err := vm.Classes.Resolve(types.NewClass(types.StringClassName))
	if err != nil {
		return 0, err
	}
	ref, err := stringpool.NewString(vm.Heap, stringClass, s)
	if err != nil {
		return 0, err
	}
	return vm.Strings.Intern(vm.Heap, stringClass, ref)
}

// invokeBytecode pushes a new frame with args bound to locals 0..k (spec
// §4.7 step 4: two-word primitives occupy two slots) and runs the dispatch
// loop until the frame returns or an exception escapes it.
func (vm *Interpreter) invokeBytecode(rc *classloader.RuntimeClass, sig types.Signature, code *classfile.Code, args []frames.Value) (frames.Value, error) {
	f := frames.CreateFrame(code.MaxStack)
	f.ClName = rc.Name()
	f.MethName = sig.Name
	f.Code = code.Bytes
	f.Handlers = code.Handlers
	f.Locals = make([]frames.Value, code.MaxLocals)

	slot := 0
	for _, a := range args {
		if slot >= len(f.Locals) {
			break
		}
		f.Locals[slot] = a
		slot += a.Width()
	}

	if err := frames.PushFrame(vm.Thread.Stack, f); err != nil {
		return frames.Value{}, vmerrors.WrapInternal(&vmerrors.InternalError{Reason: err.Error()})
	}
	defer frames.PopFrame(vm.Thread.Stack)

	return vm.runFrame(f, code.References)
}
