/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"sync"

	"github.com/corvuslang/corvus/classfile"
	"github.com/corvuslang/corvus/types"
)

// FieldSlot locates one instance field within an object's field-cell run
// (spec §3 "Heap object": one cell per instance field, in layout order).
type FieldSlot struct {
	Name   string
	Type   types.Type
	Offset int // index into the field-cell run, after the header cell
}

// RuntimeClass is created by the ClassTable exactly once per class name and
// never destroyed during the VM's lifetime (spec §3). It carries the parsed
// descriptor, a stable load-order index, the lazily-computed and then cached
// ancestry set, and the instance-field layout the object model needs.
type RuntimeClass struct {
	Descriptor *classfile.ClassDescriptor
	Index      int

	table *ClassTable // back-reference, needed to resolve ancestor classes

	ancestryOnce sync.Once
	ancestry     map[string]bool

	layout     []FieldSlot
	layoutOnce sync.Once

	// Statics holds the class's static field values, keyed by name. Real
	// JVMs keep these in the method area rather than the per-object heap;
	// Corvus follows suit rather than inventing a heap-resident static
	// area spec §3/§4.4 never describes.
	Statics   map[string]interface{}
	staticsMu sync.Mutex

	// ClInitStatus mirrors jacobin's ClData.ClInit byte (initializerBlock.go).
	// The interpreter does not run <clinit> methods and never reads or updates
	// this field, so it stays ClInitNotRun.
	ClInitStatus ClInitState
}

// ClInitState is the three-valued state of a class's static initializer.
type ClInitState int

const (
	ClInitNotRun ClInitState = iota
	ClInitInProgress
	ClInitRun
)

// Name returns the class's internal (slash-separated) name.
func (rc *RuntimeClass) Name() string { return rc.Descriptor.Name }

// Ancestry returns the transitive closure of self, super-class, and all
// interfaces (spec §3 "type-ancestry set"), computed lazily on first call
// and cached thereafter. It is reflexive: rc.Name() is always a member.
func (rc *RuntimeClass) Ancestry() map[string]bool {
	rc.ancestryOnce.Do(func() {
		set := map[string]bool{rc.Name(): true}
		rc.collectAncestry(set)
		rc.ancestry = set
	})
	return rc.ancestry
}

func (rc *RuntimeClass) collectAncestry(into map[string]bool) {
	super := rc.Descriptor.SuperClass
	if super == "" && rc.Name() != types.ObjectClassName {
		// Only java/lang/Object itself may legitimately have no declared
		// super (spec §8 "a class with no declared super contains exactly
		// itself and the root object class"); anything else with an empty
		// SuperClass is a malformed descriptor, so Object is synthesized in
		// rather than leaving the universal check(C, Object) invariant broken.
		super = types.ObjectClassName
	}
	if super != "" && !into[super] {
		into[super] = true
		if superClass, err := rc.table.ByName(super); err == nil {
			superClass.collectAncestry(into)
		}
	}
	for _, iface := range rc.Descriptor.Interfaces {
		if into[iface] {
			continue
		}
		into[iface] = true
		if ifaceClass, err := rc.table.ByName(iface); err == nil {
			ifaceClass.collectAncestry(into)
		}
	}
}

// IsAssignableTo reports whether className appears in rc's ancestry.
func (rc *RuntimeClass) IsAssignableTo(className string) bool {
	return rc.Ancestry()[className]
}

// FieldLayout returns the ordered list of instance (non-static) fields this
// class's objects carry on the heap, including inherited fields from the
// superclass chain (superclass fields first, own fields last — the
// conventional JVM object layout), computed lazily and cached.
func (rc *RuntimeClass) FieldLayout() []FieldSlot {
	rc.layoutOnce.Do(func() {
		var layout []FieldSlot
		if super := rc.Descriptor.SuperClass; super != "" {
			if superClass, err := rc.table.ByName(super); err == nil {
				layout = append(layout, superClass.FieldLayout()...)
			}
		}
		for _, f := range rc.Descriptor.Fields {
			if f.Access.Has(types.Static) {
				continue
			}
			layout = append(layout, FieldSlot{Name: f.Name, Type: f.Type, Offset: len(layout)})
		}
		rc.layout = layout
	})
	return rc.layout
}

// InstanceCellCount is the number of field cells an allocateObject call for
// this class needs, excluding the header cell.
func (rc *RuntimeClass) InstanceCellCount() int {
	return len(rc.FieldLayout())
}

// FieldSlotByName looks up a field's layout slot by name.
func (rc *RuntimeClass) FieldSlotByName(name string) (FieldSlot, bool) {
	for _, slot := range rc.FieldLayout() {
		if slot.Name == name {
			return slot, true
		}
	}
	return FieldSlot{}, false
}

// StaticGet reads a static field. It returns nil for a field that was never
// assigned and stores nothing on a read; the interpreter's getstatic
// substitutes the field type's zero value for nil.
func (rc *RuntimeClass) StaticGet(name string) interface{} {
	rc.staticsMu.Lock()
	defer rc.staticsMu.Unlock()
	return rc.Statics[name]
}

// StaticPut assigns a static field's value.
func (rc *RuntimeClass) StaticPut(name string, value interface{}) {
	rc.staticsMu.Lock()
	defer rc.staticsMu.Unlock()
	if rc.Statics == nil {
		rc.Statics = make(map[string]interface{})
	}
	rc.Statics[name] = value
}
