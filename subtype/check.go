/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package subtype implements spec §4.2's assignability predicate: whether a
// value statically of type s may flow into a slot of type t.
package subtype

import "github.com/corvuslang/corvus/types"

// ClassTable is the minimal view of classloader.ClassTable this package
// needs: the ancestry set of an already-resolved class. Declared locally to
// avoid a dependency cycle (classloader never needs to import subtype).
type ClassTable interface {
	// Ancestry returns the transitive ancestry set of the class named
	// className. An error means className is unknown to the table.
	Ancestry(className string) (map[string]bool, error)
}

// Check implements the five ordered rules of spec §4.2. Rule order matters:
// the first matching rule decides the result.
func Check(table ClassTable, s, t types.Type) bool {
	// Rule 1: class into class.
	if s.IsClass() && t.IsClass() {
		ancestry, err := table.Ancestry(s.ClassName())
		return err == nil && ancestry[t.ClassName()]
	}

	// Rules 2-4 only apply when s is an array.
	if !s.IsArray() {
		return false
	}

	// Rule 2: array into Object, Cloneable, or Serializable.
	if t.IsClass() {
		switch t.ClassName() {
		case types.ObjectClassName, types.CloneableClassName, types.SerializableClassName:
			return true
		}
		return false
	}

	if !t.IsArray() {
		return false
	}
	sElem, tElem := s.Elem(), t.Elem()

	// Rule 3: array of primitives into array of primitives.
	if sElem.IsPrimitive() || tElem.IsPrimitive() {
		return sElem.IsPrimitive() && tElem.IsPrimitive() && sElem.Primitive() == tElem.Primitive()
	}

	// Rule 4: array of references into array of references, recursively.
	return Check(table, sElem, tElem)
}
