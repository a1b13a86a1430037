/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classfile is the external collaborator named in spec §1/§6: it
// decodes a class byte stream into the immutable descriptor shape of §3. The
// VM core never reaches past this package's interfaces into the actual byte
// layout of a class file — that stays out of scope, exactly as jacobin keeps
// its constant-pool decoding (classloader.go, CPutils.go) behind a handful of
// entry points the rest of the interpreter calls by name.
package classfile

import "github.com/corvuslang/corvus/types"

// FieldDescriptor is one entry of ClassDescriptor.Fields.
type FieldDescriptor struct {
	Name   string
	Type   types.Type
	Access types.AccessFlag
}

// ExceptionHandler is one entry of a method's exception-handler table: the PC
// range it covers, the PC it transfers control to, and the class name of the
// exception it catches (empty CatchType means catch-all, i.e. `finally`).
type ExceptionHandler struct {
	StartPC   int
	EndPC     int
	HandlerPC int
	CatchType string
}

// RefKind discriminates the three shapes a symbolic Ref can take.
type RefKind int

const (
	RefClass RefKind = iota
	RefField
	RefMethod
)

// Ref is a symbolic operand a bytecode instruction resolves by index rather
// than by an inline constant-pool reference. Corvus's own Code format owns
// its fixtures end to end (through Builder and DefaultParser's gob wire
// format), so a flat per-method reference table stands in for a real
// class-file constant pool: the class-file byte layout itself stays out of
// scope, as package classfile's own doc comment says, and every reference
// an instruction needs is still fully resolved by name before execution.
type Ref struct {
	Kind       RefKind
	ClassName  string
	Name       string // field or method name; unused for RefClass
	Descriptor string // field type descriptor or method descriptor; unused for RefClass
}

// Code is the bytecode body of a non-abstract, non-native method.
type Code struct {
	MaxStack   int
	MaxLocals  int
	Bytes      []byte
	Handlers   []ExceptionHandler
	References []Ref // indexed by an instruction's 2-byte operand
}

// MethodDescriptor is one entry of ClassDescriptor.Methods.
type MethodDescriptor struct {
	Signature types.Signature
	Access    types.AccessFlag
	Code      *Code // nil for abstract or native methods
}

// ClassDescriptor is the immutable record produced by Parser.Parse, holding
// everything spec §3 requires: internal name, optional super-class, declared
// interfaces, and ordered fields and methods. It is never mutated after
// parsing; the class table copies out of it but never back into it.
type ClassDescriptor struct {
	Name       string
	SuperClass string // empty only for java/lang/Object itself
	Interfaces []string
	Fields     []FieldDescriptor
	Methods    []MethodDescriptor
	Access     types.AccessFlag
}

// FindMethod returns the method matching sig and whether it was found.
func (c *ClassDescriptor) FindMethod(sig types.Signature) (MethodDescriptor, bool) {
	for _, m := range c.Methods {
		if m.Signature.Equal(sig) {
			return m, true
		}
	}
	return MethodDescriptor{}, false
}
