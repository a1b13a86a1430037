/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"math"
	"time"

	"github.com/corvuslang/corvus/classloader"
	"github.com/corvuslang/corvus/frames"
	"github.com/corvuslang/corvus/heap"
	"github.com/corvuslang/corvus/object"
	"github.com/corvuslang/corvus/stringpool"
	"github.com/corvuslang/corvus/types"
)

// justReturn is a no-op native returning nothing of consequence, used for
// <clinit>/registerNatives leaves that exist only so resolution finds
// something rather than falling through to a missing bytecode body.
func justReturn(_ []frames.Value) interface{} {
	return frames.ReferenceValue(heap.Null)
}

// NoOp, NoOp1, and NoOp2 are the arity-named no-op natives spec §4.8
// requires "at minimum", matching jacobin's noOp/noOp1/noOp2 convention.
func NoOp(_ []frames.Value) interface{}  { return frames.ReferenceValue(heap.Null) }
func NoOp1(_ []frames.Value) interface{} { return frames.ReferenceValue(heap.Null) }
func NoOp2(_ []frames.Value) interface{} { return frames.ReferenceValue(heap.Null) }

// LoadNoOps registers the three arity-named no-op natives under className
// (e.g. for platform classes whose static initializers do nothing Corvus
// needs to model).
func LoadNoOps(reg *Registry, className string) {
	reg.Register(className, "noOp()V", GMeth{ParamSlots: 0, GFunction: NoOp})
	reg.Register(className, "noOp1()V", GMeth{ParamSlots: 1, GFunction: NoOp1})
	reg.Register(className, "noOp2()V", GMeth{ParamSlots: 2, GFunction: NoOp2})
}

// Load_Lang_Object binds java/lang/Object's natives: identity hash and the
// registerNatives/<clinit> leaves every platform class needs trapped.
func Load_Lang_Object(reg *Registry) {
	reg.Register(types.ObjectClassName, "<clinit>()V", GMeth{ParamSlots: 0, GFunction: justReturn})
	reg.Register(types.ObjectClassName, "registerNatives()V", GMeth{ParamSlots: 0, GFunction: justReturn})

	// hashCode()I — identity hash. The receiver's own heap reference serves
	// as a stable, unique identity hash, since the heap never moves or
	// reclaims live objects (spec §4.3 policy).
	reg.Register(types.ObjectClassName, "hashCode()I", GMeth{
		ParamSlots: 1,
		GFunction: func(params []frames.Value) interface{} {
			recv := params[0].Reference()
			return frames.PrimitiveValue(object.EncodeInt32(int32(recv)), 1)
		},
	})
}

// classes is the minimal classloader view the reflective bindings below
// need, declared locally the way package object does for the same reason.
type classes interface {
	ByIndex(i int) (*classloader.RuntimeClass, error)
}

// Load_Lang_Class binds java/lang/Class's metadata-query natives: class
// name, array-ness, declared fields, and primitive-class lookup (spec §4.8
// "class-metadata queries"), all read straight off the already-resolved
// RuntimeClass. A "Class handle" here is simply the heap reference of the
// object whose header names the class to report on — Corvus has no
// separate java/lang/Class instance layer, matching Load_Lang_Class's
// existing isArray() treatment of the receiver.
func Load_Lang_Class(reg *Registry, h *heap.Heap, cl classes, stringClass *classloader.RuntimeClass, pool *stringpool.Pool) {
	reg.Register("java/lang/Class", "getName()Ljava/lang/String;", GMeth{
		ParamSlots: 1,
		GFunction: func(params []frames.Value) interface{} {
			rc, err := object.ClassOf(h, cl, params[0].Reference())
			if err != nil {
				return NewGErrBlk(types.ThrowableClassName, err.Error())
			}
			return rc.Name()
		},
	})

	reg.Register("java/lang/Class", "isArray()Z", GMeth{
		ParamSlots: 1,
		GFunction: func(params []frames.Value) interface{} {
			// Arrays are never resolved as RuntimeClass entries (spec §3
			// draws array types and class types as distinct kinds), so a
			// Class object reached through this binding always names a
			// class; Corvus reports false rather than guessing.
			return frames.PrimitiveValue(object.EncodeBool(false), 1)
		},
	})

	reg.Register("java/lang/Class", "getModifiers()I", GMeth{
		ParamSlots: 1,
		GFunction: func(params []frames.Value) interface{} {
			rc, err := object.ClassOf(h, cl, params[0].Reference())
			if err != nil {
				return NewGErrBlk(types.ThrowableClassName, err.Error())
			}
			return frames.PrimitiveValue(uint64(object.AccessFlagsOf(rc)), 1)
		},
	})

	// getDeclaredFields reports the receiver's instance field layout as an
	// array of interned field-name strings rather than real
	// java/lang/reflect/Field instances: Corvus's object model has no
	// reflective Field type (spec §3 describes a field only as a named heap
	// slot), so the names themselves are the useful part of this query.
	reg.Register("java/lang/Class", "getDeclaredFields()[Ljava/lang/String;", GMeth{
		ParamSlots: 1,
		GFunction: func(params []frames.Value) interface{} {
			rc, err := object.ClassOf(h, cl, params[0].Reference())
			if err != nil {
				return NewGErrBlk(types.ThrowableClassName, err.Error())
			}
			layout := rc.FieldLayout()
			arr, err := object.AllocateArray(h, len(layout))
			if err != nil {
				return NewGErrBlk(types.ThrowableClassName, err.Error())
			}
			for i, slot := range layout {
				nameRef, err := stringpool.NewString(h, stringClass, slot.Name)
				if err != nil {
					return NewGErrBlk(types.ThrowableClassName, err.Error())
				}
				canonical, err := pool.Intern(h, stringClass, nameRef)
				if err != nil {
					return NewGErrBlk(types.ThrowableClassName, err.Error())
				}
				if err := object.PutElement(h, arr, i, uint64(canonical)); err != nil {
					return NewGErrBlk(types.ThrowableClassName, err.Error())
				}
			}
			return frames.ReferenceValue(arr)
		},
	})

	// getPrimitiveClass backs the eight boxed types' Integer.TYPE-style
	// lookups (e.g. Class.getPrimitiveClass("int")). Primitive types never
	// get a RuntimeClass entry (spec §3 keeps primitives and class types
	// distinct), so there is no class handle to hand back; Corvus reports
	// null rather than inventing one, the same stance getCallerClass takes
	// for a query it cannot answer honestly.
	reg.Register("java/lang/Class", "getPrimitiveClass(Ljava/lang/String;)Ljava/lang/Class;", GMeth{
		ParamSlots: 1,
		GFunction: func(_ []frames.Value) interface{} {
			return frames.ReferenceValue(heap.Null)
		},
	})
}

// Load_Lang_Float binds java/lang/Float's raw bit-conversion native (spec
// §4.8 "floating-point bit conversions") to Go's own IEEE 754 bit layout,
// which matches the JVM's.
func Load_Lang_Float(reg *Registry) {
	reg.Register("java/lang/Float", "floatToRawIntBits(F)I", GMeth{
		ParamSlots: 1,
		GFunction: func(params []frames.Value) interface{} {
			return int32(math.Float32bits(object.DecodeFloat32(params[0].Bits())))
		},
	})
}

// Load_Lang_Double binds java/lang/Double's raw bit-conversion native,
// mirroring Load_Lang_Float.
func Load_Lang_Double(reg *Registry) {
	reg.Register("java/lang/Double", "doubleToRawLongBits(D)J", GMeth{
		ParamSlots: 1,
		GFunction: func(params []frames.Value) interface{} {
			return int64(math.Float64bits(object.DecodeFloat64(params[0].Bits())))
		},
	})
}

// Load_Lang_Throwable binds java/lang/Throwable.fillInStackTrace (spec §4.8
// "stack-trace fill-in") to a no-op that returns the receiver unchanged:
// Corvus's interpreter does not keep a Go-level call stack it could render
// as a Java stack trace (the same limitation Load_Lang_Reflect_Reflection's
// getCallerClass stub documents), so there is nothing for this call to fill
// in beyond handing the exception back to its caller.
func Load_Lang_Throwable(reg *Registry) {
	reg.Register(types.ThrowableClassName, "fillInStackTrace()Ljava/lang/Throwable;", GMeth{
		ParamSlots: 1,
		GFunction: func(params []frames.Value) interface{} {
			return frames.ReferenceValue(params[0].Reference())
		},
	})
}

// Load_Lang_System binds java/lang/System's natives: array-copy and time
// queries (spec §4.8).
func Load_Lang_System(reg *Registry, h *heap.Heap) {
	reg.Register("java/lang/System", "arraycopy(Ljava/lang/Object;ILjava/lang/Object;II)V", GMeth{
		ParamSlots: 5,
		GFunction: func(params []frames.Value) interface{} {
			src := params[0].Reference()
			srcPos := int(object.DecodeInt32(params[1].Bits()))
			dst := params[2].Reference()
			dstPos := int(object.DecodeInt32(params[3].Bits()))
			length := int(object.DecodeInt32(params[4].Bits()))
			for i := 0; i < length; i++ {
				v, err := object.GetElement(h, src, srcPos+i)
				if err != nil {
					return NewGErrBlk(types.ThrowableClassName, err.Error())
				}
				if err := object.PutElement(h, dst, dstPos+i, v); err != nil {
					return NewGErrBlk(types.ThrowableClassName, err.Error())
				}
			}
			return frames.ReferenceValue(heap.Null)
		},
	})

	reg.Register("java/lang/System", "currentTimeMillis()J", GMeth{
		ParamSlots: 0,
		GFunction: func(_ []frames.Value) interface{} {
			return frames.PrimitiveValue(object.EncodeInt64(time.Now().UnixMilli()), 2)
		},
	})

	reg.Register("java/lang/System", "nanoTime()J", GMeth{
		ParamSlots: 0,
		GFunction: func(_ []frames.Value) interface{} {
			return frames.PrimitiveValue(object.EncodeInt64(time.Now().UnixNano()), 2)
		},
	})

	reg.Register("java/lang/System", "identityHashCode(Ljava/lang/Object;)I", GMeth{
		ParamSlots: 1,
		GFunction: func(params []frames.Value) interface{} {
			return frames.PrimitiveValue(object.EncodeInt32(int32(params[0].Reference())), 1)
		},
	})
}

// Load_Lang_Thread binds java/lang/Thread's natives to no-ops: spec §5
// states monitor opcodes and thread scheduling are accepted but inert in
// this single-threaded interpreter.
func Load_Lang_Thread(reg *Registry) {
	reg.Register("java/lang/Thread", "registerNatives()V", GMeth{ParamSlots: 0, GFunction: justReturn})
	reg.Register("java/lang/Thread", "currentThread()Ljava/lang/Thread;", GMeth{
		ParamSlots: 0,
		GFunction: func(_ []frames.Value) interface{} {
			return frames.ReferenceValue(heap.Null)
		},
	})
}

// Load_Lang_String binds java/lang/String.intern()— spec §4.8's "string
// interning" binding — to the VM's own interning table.
func Load_Lang_String(reg *Registry, h *heap.Heap, stringClass *classloader.RuntimeClass, pool *stringpool.Pool) {
	reg.Register(types.StringClassName, "intern()Ljava/lang/String;", GMeth{
		ParamSlots: 1,
		GFunction: func(params []frames.Value) interface{} {
			canonical, err := pool.Intern(h, stringClass, params[0].Reference())
			if err != nil {
				return NewGErrBlk(types.ThrowableClassName, err.Error())
			}
			return frames.ReferenceValue(canonical)
		},
	})
}

// Load_Sun_Misc_Unsafe binds a handful of sun/misc/Unsafe's natives: pointer
// width, and compare-and-swap / field-offset stubs (spec §4.8). These are
// platform-dependent by nature, so Corvus reports fixed, documented
// constants rather than emulating real memory layout.
func Load_Sun_Misc_Unsafe(reg *Registry) {
	reg.Register("sun/misc/Unsafe", "addressSize()I", GMeth{
		ParamSlots: 1,
		GFunction: func(_ []frames.Value) interface{} {
			return frames.PrimitiveValue(object.EncodeInt32(4), 1)
		},
	})

	reg.Register("sun/misc/Unsafe", "objectFieldOffset(Ljava/lang/reflect/Field;)J", GMeth{
		ParamSlots: 2,
		GFunction: func(_ []frames.Value) interface{} {
			return frames.PrimitiveValue(object.EncodeInt64(0), 2)
		},
	})

	reg.Register("sun/misc/Unsafe", "compareAndSwapInt(Ljava/lang/Object;JII)Z", GMeth{
		ParamSlots: 5,
		GFunction: func(params []frames.Value) interface{} {
			// Single-threaded execution (spec §5) makes every compare-and-
			// swap trivially successful: nothing else can race it.
			return frames.PrimitiveValue(object.EncodeBool(true), 1)
		},
	})
}

// Load_Jdk_Internal_Misc_ScopedMemoryAccess traps an internal JDK class's
// static setup to a no-op, mirroring jacobin's own treatment of it (see
// jdkInternalMiscScopedMemoryAccess.go): Corvus has no off-heap memory
// model, so there is nothing for this binding to actually do.
func Load_Jdk_Internal_Misc_ScopedMemoryAccess(reg *Registry) {
	const cls = "jdk/internal/misc/ScopedMemoryAccess"
	reg.Register(cls, "<clinit>()V", GMeth{ParamSlots: 0, GFunction: justReturn})
	reg.Register(cls, "registerNatives()V", GMeth{ParamSlots: 0, GFunction: justReturn})
}

// PrivilegedInvoker runs a java/security/PrivilegedAction's run() method and
// returns its result, supplied by the interpreter so this package's
// doPrivileged trampoline never needs to import it back (avoiding a cycle).
type PrivilegedInvoker func(action heap.Reference) (frames.Value, error)

// Load_Security_AccessController binds doPrivileged's trampoline (spec §4.8
// "privileged-action trampolining"): Corvus has no real security manager, so
// this simply runs the action's run() method via invoke and returns its
// result unchanged.
func Load_Security_AccessController(reg *Registry, invoke PrivilegedInvoker) {
	reg.Register("java/security/AccessController",
		"doPrivileged(Ljava/security/PrivilegedAction;)Ljava/lang/Object;", GMeth{
			ParamSlots: 1,
			GFunction: func(params []frames.Value) interface{} {
				result, err := invoke(params[0].Reference())
				if err != nil {
					return NewGErrBlk(types.ThrowableClassName, err.Error())
				}
				return result
			},
		})
}

// Load_Lang_Reflect_Reflection binds reflection's caller-class query (spec
// §4.8) to a stub: Corvus's interpreter does not track a Go-level call
// stack the way a hosted reflective implementation would, so it reports no
// caller rather than guessing one.
func Load_Lang_Reflect_Reflection(reg *Registry) {
	reg.Register("sun/reflect/Reflection", "getCallerClass()Ljava/lang/Class;", GMeth{
		ParamSlots: 0,
		GFunction: func(_ []frames.Value) interface{} {
			return frames.ReferenceValue(heap.Null)
		},
	})
}
