/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import "fmt"

// ClassNotFoundError is returned when the loader has nothing for a required
// class (spec §7).
type ClassNotFoundError struct {
	ClassName string
}

func (e *ClassNotFoundError) Error() string {
	return fmt.Sprintf("classloader: class not found: %s", e.ClassName)
}

// MalformedClassError wraps a parser rejection or a cyclic-inheritance
// detection (spec §7, §4.1 Failure).
type MalformedClassError struct {
	ClassName string
	Reason    string
}

func (e *MalformedClassError) Error() string {
	return fmt.Sprintf("classloader: malformed class %s: %s", e.ClassName, e.Reason)
}
