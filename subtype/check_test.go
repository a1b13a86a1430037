/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package subtype

import (
	"testing"

	"github.com/corvuslang/corvus/types"
)

// fakeTable is a minimal in-test stand-in for classloader.ClassTable.
type fakeTable map[string]map[string]bool

func (f fakeTable) Ancestry(name string) (map[string]bool, error) {
	a, ok := f[name]
	if !ok {
		return nil, errNotFound{name}
	}
	return a, nil
}

type errNotFound struct{ name string }

func (e errNotFound) Error() string { return "not found: " + e.name }

func newFakeTable() fakeTable {
	return fakeTable{
		types.ObjectClassName:    {types.ObjectClassName: true},
		"java/lang/Cloneable":    {"java/lang/Cloneable": true},
		"java/io/Serializable":   {"java/io/Serializable": true},
		"X": {"X": true, types.ObjectClassName: true},
		"Y": {"Y": true, "X": true, types.ObjectClassName: true},
	}
}

func TestCheckClassIntoClass(t *testing.T) {
	table := newFakeTable()
	if !Check(table, types.NewClass("X"), types.NewClass("X")) {
		t.Error("a class must check against itself")
	}
	if !Check(table, types.NewClass("Y"), types.NewClass("X")) {
		t.Error("Y extends X: Check(Y, X) should be true")
	}
	if Check(table, types.NewClass("X"), types.NewClass("Y")) {
		t.Error("X does not extend Y: Check(X, Y) should be false")
	}
	if !Check(table, types.NewClass("Y"), types.NewClass(types.ObjectClassName)) {
		t.Error("every class must check against Object")
	}
}

func TestCheckArrayIntoObjectFamily(t *testing.T) {
	table := newFakeTable()
	arr := types.NewArray(types.NewClass("X"))
	for _, target := range []string{types.ObjectClassName, types.CloneableClassName, types.SerializableClassName} {
		if !Check(table, arr, types.NewClass(target)) {
			t.Errorf("array must check into %s", target)
		}
	}
	if Check(table, arr, types.NewClass("X")) {
		t.Error("an array is not assignable into a plain (non-root) class")
	}
}

func TestCheckArrayOfPrimitives(t *testing.T) {
	table := newFakeTable()
	if Check(table, types.NewArray(types.NewPrimitive(types.Int)), types.NewArray(types.NewPrimitive(types.Long))) {
		t.Error("int[] must not check into long[]")
	}
	if !Check(table, types.NewArray(types.NewPrimitive(types.Int)), types.NewArray(types.NewPrimitive(types.Int))) {
		t.Error("int[] must check into int[]")
	}
}

func TestCheckArrayOfReferencesRecursive(t *testing.T) {
	table := newFakeTable()
	if !Check(table, types.NewArray(types.NewClass("Y")), types.NewArray(types.NewClass("X"))) {
		t.Error("Y[] must check into X[] since Y extends X")
	}
	if !Check(table, types.NewArray(types.NewClass("X")), types.NewArray(types.NewClass(types.ObjectClassName))) {
		t.Error("X[] must check into Object[]")
	}
}

func TestCheckIsTransitive(t *testing.T) {
	table := newFakeTable()
	a, b, c := types.NewClass("Y"), types.NewClass("X"), types.NewClass(types.ObjectClassName)
	if Check(table, a, b) && Check(table, b, c) && !Check(table, a, c) {
		t.Error("subtype check must be transitive")
	}
}
