/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package object

import "fmt"

// NoSuchFieldError is an internal-invariant violation: bytecode referenced a
// field name absent from the resolved class's layout. The interpreter wraps
// this as InternalError (spec §7).
type NoSuchFieldError struct {
	Class string
	Field string
}

func (e *NoSuchFieldError) Error() string {
	return fmt.Sprintf("object: class %s has no field %s", e.Class, e.Field)
}

// ArrayIndexError mirrors the platform's ArrayIndexOutOfBoundsException at
// the object-model layer. The interpreter's array load and store opcodes
// wrap it with vmerrors.WrapInternal, so it aborts the invocation as an
// InternalException; it is not raised as a catchable heap exception.
type ArrayIndexError struct {
	Index  int
	Length int
}

func (e *ArrayIndexError) Error() string {
	return fmt.Sprintf("object: array index %d out of bounds for length %d", e.Index, e.Length)
}
