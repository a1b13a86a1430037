/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Parser is the external collaborator consumed per §6: a function from a
// byte sequence to an immutable ClassDescriptor, or a parse error. The exact
// byte layout it decodes is explicitly out of scope (spec §1, §6) — only the
// descriptor shape it must produce is specified.
type Parser interface {
	Parse(data []byte) (*ClassDescriptor, error)
}

// ParseError wraps a parser failure; the class table reports these as
// MalformedClass.
type ParseError struct {
	Detail string
}

func (e *ParseError) Error() string { return "classfile: parse error: " + e.Detail }

// DefaultParser decodes the gob wire encoding produced by Encode below. A
// full byte-for-byte JVM class-file grammar is several hundred pages and,
// per spec §1/§6, is explicitly out of scope for this core: all the core
// needs is *some* faithful, lossless encode/decode of the §3 descriptor
// shape, and encoding/gob is the standard-library mechanism for exactly
// that — there is no pack example of a hand-rolled binary-format decoder
// this small a job would justify reaching for a third-party serializer over.
// Real .class byte streams are handled instead by ExternalParser (see
// externalparser.go), which wraps a real class-file-parsing library.
type DefaultParser struct{}

func (DefaultParser) Parse(data []byte) (*ClassDescriptor, error) {
	dec := gob.NewDecoder(bytes.NewReader(data))
	var cd ClassDescriptor
	if err := dec.Decode(&cd); err != nil {
		return nil, &ParseError{Detail: err.Error()}
	}
	return &cd, nil
}

// Encode serializes a ClassDescriptor to DefaultParser's wire format. This is
// how MapLoader fixtures produce bytes a DefaultParser can later decode.
func Encode(cd *ClassDescriptor) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cd); err != nil {
		return nil, fmt.Errorf("classfile: encode: %w", err)
	}
	return buf.Bytes(), nil
}
