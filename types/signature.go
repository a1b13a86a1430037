/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package types

import (
	"errors"
	"strings"
)

var errShortDescriptor = errors.New("types: truncated descriptor")

// Descriptor is the ordered parameter list and return type of a method.
type Descriptor struct {
	Params []Type
	Return Type
}

// Equal reports whether two descriptors name the same parameter list and
// return type, component by component.
func (d Descriptor) Equal(o Descriptor) bool {
	if len(d.Params) != len(o.Params) {
		return false
	}
	for i := range d.Params {
		if !d.Params[i].Equal(o.Params[i]) {
			return false
		}
	}
	return d.Return.Equal(o.Return)
}

// String renders the JVM wire form, e.g. "(I)I" or "(Ljava/lang/String;I)V".
func (d Descriptor) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range d.Params {
		b.WriteString(encodeFieldType(p))
	}
	b.WriteByte(')')
	b.WriteString(encodeFieldType(d.Return))
	return b.String()
}

func encodeFieldType(t Type) string {
	switch t.Kind() {
	case KindPrimitive:
		for letter, prim := range descriptorLetters {
			if prim == t.Primitive() {
				return string(letter)
			}
		}
		return "V"
	case KindClass:
		return "L" + t.ClassName() + ";"
	case KindArray:
		return "[" + encodeFieldType(t.Elem())
	default:
		return "V"
	}
}

// ParseDescriptor parses a JVM method-descriptor string such as "(I)I" or
// "()V" into a Descriptor. It is the conventional wire format method
// signatures use; class-file byte decoding remains the parser's concern.
func ParseDescriptor(s string) (Descriptor, error) {
	if len(s) == 0 || s[0] != '(' {
		return Descriptor{}, errShortDescriptor
	}
	rest := s[1:]
	var params []Type
	for len(rest) > 0 && rest[0] != ')' {
		t, n, err := ParseFieldType(rest)
		if err != nil {
			return Descriptor{}, err
		}
		params = append(params, t)
		rest = rest[n:]
	}
	if len(rest) == 0 {
		return Descriptor{}, errShortDescriptor
	}
	rest = rest[1:] // consume ')'
	ret, _, err := ParseFieldType(rest)
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{Params: params, Return: ret}, nil
}

// Signature is a method's name paired with its descriptor. Two signatures
// are equal iff both components are equal.
type Signature struct {
	Name       string
	Descriptor Descriptor
}

// Equal reports component-wise equality.
func (s Signature) Equal(o Signature) bool {
	return s.Name == o.Name && s.Descriptor.Equal(o.Descriptor)
}

// String renders "name" + descriptor, e.g. "addressSize()I", matching the
// native-binding leaf-naming convention of §4.8.
func (s Signature) String() string {
	return s.Name + s.Descriptor.String()
}
