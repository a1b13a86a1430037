/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package types holds the immutable value objects shared across the VM: type
// descriptors, method signatures, and the access-flag bit set. None of it
// depends on the heap, the class table, or the interpreter, so every other
// package can import it without risk of a cycle.
package types

import (
	"bytes"
	"encoding/gob"
	"strings"
)

// Kind discriminates the three Type variants.
type Kind int

const (
	KindPrimitive Kind = iota
	KindClass
	KindArray
)

// Primitive is one of the closed set of primitive type names.
type Primitive string

const (
	Boolean Primitive = "boolean"
	Byte    Primitive = "byte"
	Short   Primitive = "short"
	Char    Primitive = "char"
	Int     Primitive = "int"
	Long    Primitive = "long"
	Float   Primitive = "float"
	Double  Primitive = "double"
	Void    Primitive = "void"
)

// Widths, in 32-bit slots, used by the interpreter to size locals. Long and
// double occupy two slots. The object model does not use them: every field
// takes one heap cell.
var primitiveSlots = map[Primitive]int{
	Boolean: 1, Byte: 1, Short: 1, Char: 1, Int: 1,
	Long: 2, Float: 1, Double: 2, Void: 0,
}

// Slots reports how many local-variable or operand-stack slots a primitive
// occupies. Two-word primitives (long, double) report 2.
func (p Primitive) Slots() int {
	return primitiveSlots[p]
}

// Type is a tagged value naming a primitive type, a class type (by internal
// slash-form name), or an array type with a recursive component. Types are
// value-equal by structural contents, immutable, and cheap to copy.
type Type struct {
	kind      Kind
	primitive Primitive
	className string // internal name, "/" separated; valid when kind == KindClass
	elem      *Type  // component type; valid when kind == KindArray
}

// NewPrimitive constructs a primitive Type.
func NewPrimitive(p Primitive) Type {
	return Type{kind: KindPrimitive, primitive: p}
}

// NewClass constructs a class Type from an internal name such as "java/lang/Object".
func NewClass(internalName string) Type {
	return Type{kind: KindClass, className: internalName}
}

// NewArray constructs an array Type whose component is elem. Nesting (arrays of
// arrays) is unbounded: elem may itself be an array Type.
func NewArray(elem Type) Type {
	e := elem
	return Type{kind: KindArray, elem: &e}
}

func (t Type) Kind() Kind { return t.kind }

func (t Type) IsPrimitive() bool { return t.kind == KindPrimitive }
func (t Type) IsClass() bool     { return t.kind == KindClass }
func (t Type) IsArray() bool     { return t.kind == KindArray }

// Primitive returns the primitive kind. Only meaningful when IsPrimitive.
func (t Type) Primitive() Primitive { return t.primitive }

// ClassName returns the internal class name. Only meaningful when IsClass.
func (t Type) ClassName() string { return t.className }

// Elem returns the array's component type. Only meaningful when IsArray.
func (t Type) Elem() Type {
	if t.elem == nil {
		return Type{}
	}
	return *t.elem
}

// Equal reports structural equality: same kind and, recursively, same payload.
func (t Type) Equal(o Type) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case KindPrimitive:
		return t.primitive == o.primitive
	case KindClass:
		return t.className == o.className
	case KindArray:
		return t.Elem().Equal(o.Elem())
	default:
		return false
	}
}

// Slots reports the local-variable/operand-stack width of this type: 2 for
// long/double primitives, 0 for void, 1 for everything else (references are
// one slot).
func (t Type) Slots() int {
	if t.kind == KindPrimitive {
		if w := t.primitive.Slots(); w > 0 {
			return w
		}
		return 0
	}
	return 1
}

// String renders a human-readable form, e.g. "int", "java/lang/Object", or
// "java/lang/Object[]" for an array of that class.
func (t Type) String() string {
	switch t.kind {
	case KindPrimitive:
		return string(t.primitive)
	case KindClass:
		return t.className
	case KindArray:
		return t.Elem().String() + "[]"
	default:
		return "<invalid type>"
	}
}

// gobType mirrors Type with exported fields, since Type's fields are
// unexported to keep construction going through NewPrimitive/NewClass/
// NewArray. GobEncode/GobDecode let Type travel through encoding/gob (used by
// classfile.DefaultParser's wire format) without widening its public API.
type gobType struct {
	Kind      Kind
	Primitive Primitive
	ClassName string
	Elem      *gobType
}

func (t Type) toGob() *gobType {
	g := &gobType{Kind: t.kind, Primitive: t.primitive, ClassName: t.className}
	if t.elem != nil {
		g.Elem = t.elem.toGob()
	}
	return g
}

func (g *gobType) toType() Type {
	t := Type{kind: g.Kind, primitive: g.Primitive, className: g.ClassName}
	if g.Elem != nil {
		e := g.Elem.toType()
		t.elem = &e
	}
	return t
}

func (t Type) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(t.toGob()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t *Type) GobDecode(data []byte) error {
	var g gobType
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return err
	}
	*t = g.toType()
	return nil
}

// Well-known root types used throughout class-ancestry and subtype checks.
const (
	ObjectClassName       = "java/lang/Object"
	CloneableClassName    = "java/lang/Cloneable"
	SerializableClassName = "java/io/Serializable"
	StringClassName       = "java/lang/String"
	ThrowableClassName    = "java/lang/Throwable"
)

// descriptorLetters maps the single-letter JVM field-descriptor codes onto
// Primitive names, used by ParseFieldType below.
var descriptorLetters = map[byte]Primitive{
	'Z': Boolean, 'B': Byte, 'S': Short, 'C': Char,
	'I': Int, 'J': Long, 'F': Float, 'D': Double, 'V': Void,
}

// ParseFieldType parses a single JVM field-descriptor type, returning the
// parsed Type and the number of bytes consumed. This is the conventional
// wire encoding used by descriptor strings; it is not itself part of the
// class-file byte format (that remains the parser's concern, see classfile).
func ParseFieldType(s string) (Type, int, error) {
	if len(s) == 0 {
		return Type{}, 0, errShortDescriptor
	}
	switch s[0] {
	case 'L':
		end := strings.IndexByte(s, ';')
		if end < 0 {
			return Type{}, 0, errShortDescriptor
		}
		return NewClass(s[1:end]), end + 1, nil
	case '[':
		elem, n, err := ParseFieldType(s[1:])
		if err != nil {
			return Type{}, 0, err
		}
		return NewArray(elem), n + 1, nil
	default:
		if p, ok := descriptorLetters[s[0]]; ok {
			return NewPrimitive(p), 1, nil
		}
		return Type{}, 0, errShortDescriptor
	}
}
