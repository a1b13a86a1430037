/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package corvus is the embedding API named throughout the spec: a VM type
// that owns one heap, one class table, one interning table, one native
// registry, and one interpreter thread, and exposes Invoke as the single
// entry point a host program calls. Wiring the collaborators together here
// mirrors jacobin's own startup sequence (globals.InitGlobals, then
// classloader.Init, then loading the supported gfunction packages) reshaped
// per spec §9's design note into values returned by a constructor rather
// than package-level state initialized by an init() function.
package corvus

import (
	"io"

	"github.com/corvuslang/corvus/classfile"
	"github.com/corvuslang/corvus/classloader"
	"github.com/corvuslang/corvus/corvuslog"
	"github.com/corvuslang/corvus/frames"
	"github.com/corvuslang/corvus/gfunction"
	"github.com/corvuslang/corvus/heap"
	"github.com/corvuslang/corvus/interp"
	"github.com/corvuslang/corvus/object"
	"github.com/corvuslang/corvus/stringpool"
	"github.com/corvuslang/corvus/types"
	"github.com/corvuslang/corvus/vmerrors"
)

// defaultHeapCells is the bump allocator's starting capacity, generous
// enough for the literal scenarios spec §8 describes without forcing every
// embedder to size it by hand.
const defaultHeapCells = 1 << 20

// VM is the top-level embedding handle. It is never a package-level
// variable: every field is instance state, so two *VM values never share a
// heap, class table, or native registry.
type VM struct {
	Heap    *heap.Heap
	Classes *classloader.ClassTable
	Strings *stringpool.Pool
	Natives *gfunction.Registry
	Logger  *corvuslog.Logger

	interp *interp.Interpreter
}

// Option configures a VM at construction time.
type Option func(*options)

type options struct {
	heapCells int
	logger    *corvuslog.Logger
	parser    classfile.Parser
	loader    classfile.Loader
}

// WithHeapCells overrides the heap's starting capacity (default
// defaultHeapCells).
func WithHeapCells(cells int) Option {
	return func(o *options) { o.heapCells = cells }
}

// WithLogger overrides the default stderr logger.
func WithLogger(l *corvuslog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithParser selects the class-descriptor decoder: classfile.DefaultParser
// (the gob-encoded fixture format Builder produces, the default) or
// classfile.ExternalParser (real compiled .class byte streams).
func WithParser(p classfile.Parser) Option {
	return func(o *options) { o.parser = p }
}

// WithLoader selects where class bytes come from (classfile.NewDirLoader
// for a classpath, classfile.MapLoader for in-memory fixtures). Required:
// New returns an error if no loader is given.
func WithLoader(l classfile.Loader) Option {
	return func(o *options) { o.loader = l }
}

// New builds a VM ready to Invoke once at least a loader has been supplied
// via WithLoader.
func New(opts ...Option) (*VM, error) {
	o := &options{
		heapCells: defaultHeapCells,
		logger:    corvuslog.Default(),
		parser:    classfile.DefaultParser{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.loader == nil {
		return nil, &vmerrors.InternalError{Reason: "corvus: New requires WithLoader"}
	}

	h := heap.New(o.heapCells)
	classes := classloader.NewClassTable(o.loader, o.parser)
	natives := gfunction.NewRegistry(o.logger)
	pool := stringpool.New()

	vm := &VM{
		Heap:    h,
		Classes: classes,
		Strings: pool,
		Natives: natives,
		Logger:  o.logger,
	}

	gfunction.LoadNoOps(natives, types.ObjectClassName)
	gfunction.Load_Lang_Object(natives)
	gfunction.Load_Lang_System(natives, h)
	gfunction.Load_Lang_Thread(natives)
	gfunction.Load_Sun_Misc_Unsafe(natives)
	gfunction.Load_Jdk_Internal_Misc_ScopedMemoryAccess(natives)
	gfunction.Load_Lang_Reflect_Reflection(natives)
	gfunction.Load_Lang_Float(natives)
	gfunction.Load_Lang_Double(natives)
	gfunction.Load_Lang_Throwable(natives)
	gfunction.Load_Security_AccessController(natives, vm.runPrivileged)

	vm.interp = interp.New(h, classes, pool, natives, o.logger)

	stringClass, err := classes.Resolve(types.NewClass(types.StringClassName))
	if err != nil {
		return nil, vmerrors.WrapInternal(err)
	}
	gfunction.Load_Lang_String(natives, h, stringClass, pool)
	gfunction.Load_Lang_Class(natives, h, classes, stringClass, pool)

	return vm, nil
}

// runPrivileged implements the trampoline java/security/AccessController's
// doPrivileged binding needs: run the action's own run() method through the
// same interpreter every other invocation uses.
func (vm *VM) runPrivileged(action heap.Reference) (frames.Value, error) {
	rc, err := object.ClassOf(vm.Heap, vm.Classes, action)
	if err != nil {
		return frames.Value{}, err
	}
	sig := types.Signature{Name: "run", Descriptor: types.Descriptor{Return: types.NewClass(types.ObjectClassName)}}
	return vm.interp.Invoke(rc.Name(), sig, []frames.Value{frames.ReferenceValue(action)})
}

// Invoke runs a static or instance method to completion, the single
// embedding entry point spec §4.7 describes: resolve className, resolve
// sig (native or bytecode), and execute it with args bound to locals 0..k.
// A *vmerrors.UncaughtException return means the program itself threw past
// every handler; any other error is an internal VM failure
// (ClassNotFound, MalformedClass, NoSuchMethod, OutOfMemory).
func (vm *VM) Invoke(className string, sig types.Signature, args []frames.Value) (frames.Value, error) {
	return vm.interp.Invoke(className, sig, args)
}

// DumpHeap writes the live portion of the heap to w, the diagnostic spec §6
// names for inspecting VM state from a test or CLI subcommand.
func (vm *VM) DumpHeap(w io.Writer) error {
	return vm.Heap.Dump(w)
}
