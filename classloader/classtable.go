/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classloader implements spec §4.1's class table: the transitive
// loader and registry that turns a class name into a runtime class with a
// stable numeric index. The algorithm mirrors jacobin's classloader.go
// (LoadClassFromNameOnly's recursive super/interface resolution, the 'I'
// in-progress status to detect re-entrant loads) reshaped, per spec §9's
// "Global state" design note, into state owned by one *ClassTable instance
// rather than jacobin's package-level `classloader.Classes` map — each VM
// instance gets its own table, never shared across instances.
package classloader

import (
	"sync"

	"github.com/corvuslang/corvus/classfile"
	"github.com/corvuslang/corvus/types"
)

// ClassTable is the resolution cache of spec §4.1. It is injective on class
// names: Resolve never produces two distinct *RuntimeClass values for the
// same name.
type ClassTable struct {
	loader classfile.Loader
	parser classfile.Parser

	mu      sync.RWMutex
	cache   map[string]*RuntimeClass
	byIndex []*RuntimeClass

	loading map[string]bool // names currently mid-resolution, for cycle detection
}

// NewClassTable builds an empty table that will load class bytes via loader
// and decode them via parser.
func NewClassTable(loader classfile.Loader, parser classfile.Parser) *ClassTable {
	return &ClassTable{
		loader:  loader,
		parser:  parser,
		cache:   make(map[string]*RuntimeClass),
		loading: make(map[string]bool),
	}
}

// Resolve implements spec §4.1's algorithm: return the cached class if
// present; otherwise load, parse, recursively resolve the super-class and
// every declared interface (so ancestry is always available super-before-sub
// per spec §3's invariant), assign the next load-order index, cache it, and
// return it. Resolve is idempotent and total for well-formed inputs.
func (t *ClassTable) Resolve(classType types.Type) (*RuntimeClass, error) {
	if !classType.IsClass() {
		return nil, &MalformedClassError{ClassName: classType.String(), Reason: "not a class type"}
	}
	return t.resolveByName(classType.ClassName())
}

func (t *ClassTable) resolveByName(name string) (*RuntimeClass, error) {
	t.mu.RLock()
	if rc, ok := t.cache[name]; ok {
		t.mu.RUnlock()
		return rc, nil
	}
	t.mu.RUnlock()

	t.mu.Lock()
	if rc, ok := t.cache[name]; ok { // re-check: another call may have raced us to the lock
		t.mu.Unlock()
		return rc, nil
	}
	if t.loading[name] {
		t.mu.Unlock()
		return nil, &MalformedClassError{ClassName: name, Reason: "cyclic inheritance"}
	}
	t.loading[name] = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.loading, name)
		t.mu.Unlock()
	}()

	data, ok := t.loader.Load(name)
	if !ok {
		return nil, &ClassNotFoundError{ClassName: name}
	}
	descriptor, err := t.parser.Parse(data)
	if err != nil {
		return nil, &MalformedClassError{ClassName: name, Reason: err.Error()}
	}
	if descriptor.Name != name {
		return nil, &MalformedClassError{ClassName: name, Reason: "parsed name does not match requested name"}
	}

	// Super-before-sub: resolve the super-class and every interface before
	// this class becomes usable, so ancestry queries never need to load a
	// class mid-lookup (spec §4.1 Rationale).
	if descriptor.SuperClass != "" {
		if _, err := t.resolveByName(descriptor.SuperClass); err != nil {
			return nil, err
		}
	}
	for _, iface := range descriptor.Interfaces {
		if _, err := t.resolveByName(iface); err != nil {
			return nil, err
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if rc, ok := t.cache[name]; ok { // lost the race to a concurrent resolver
		return rc, nil
	}
	rc := &RuntimeClass{
		Descriptor: descriptor,
		Index:      len(t.byIndex),
		table:      t,
	}
	t.cache[name] = rc
	t.byIndex = append(t.byIndex, rc)
	return rc, nil
}

// ByName looks up an already-resolved class by name without triggering a
// load; it is how ancestry/layout computation reaches already-resolved
// ancestors (guaranteed present by Resolve's super-before-sub ordering).
func (t *ClassTable) ByName(name string) (*RuntimeClass, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rc, ok := t.cache[name]
	if !ok {
		return nil, &ClassNotFoundError{ClassName: name}
	}
	return rc, nil
}

// ByIndex returns the runtime class with the given load-order index. It is
// defined for indices previously assigned by Resolve.
func (t *ClassTable) ByIndex(i int) (*RuntimeClass, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= len(t.byIndex) {
		return nil, &ClassNotFoundError{ClassName: "<invalid index>"}
	}
	return t.byIndex[i], nil
}

// Ancestry returns the ancestry set of an already-resolved class, satisfying
// the subtype package's ClassTable interface without that package importing
// classloader (which would cycle back through RuntimeClass's own use of
// subtype-adjacent lookups).
func (t *ClassTable) Ancestry(name string) (map[string]bool, error) {
	rc, err := t.ByName(name)
	if err != nil {
		return nil, err
	}
	return rc.Ancestry(), nil
}

// Len reports how many classes have been resolved so far.
func (t *ClassTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byIndex)
}
