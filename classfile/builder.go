/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import "github.com/corvuslang/corvus/types"

// Builder assembles a ClassDescriptor programmatically and registers its
// encoded bytes into a MapLoader. It exists so tests can construct classes
// without hand-writing a byte stream, the way jacobin's own test suite builds Klass values directly
// (see errors_test.go) rather than parsing fixture files for every case.
type Builder struct {
	cd ClassDescriptor
}

// NewBuilder starts a class named name (internal slash form) extending super
// (empty means java/lang/Object itself).
func NewBuilder(name, super string) *Builder {
	return &Builder{cd: ClassDescriptor{Name: name, SuperClass: super, Access: types.Public}}
}

// WithAccess overrides the class-level access flags (default types.Public).
func (b *Builder) WithAccess(access types.AccessFlag) *Builder {
	b.cd.Access = access
	return b
}

func (b *Builder) Implements(interfaceNames ...string) *Builder {
	b.cd.Interfaces = append(b.cd.Interfaces, interfaceNames...)
	return b
}

func (b *Builder) Field(name string, t types.Type, access types.AccessFlag) *Builder {
	b.cd.Fields = append(b.cd.Fields, FieldDescriptor{Name: name, Type: t, Access: access})
	return b
}

// Method adds a bytecode-backed method.
func (b *Builder) Method(sig types.Signature, access types.AccessFlag, maxStack, maxLocals int, code []byte, handlers ...ExceptionHandler) *Builder {
	return b.MethodWithRefs(sig, access, maxStack, maxLocals, code, nil, handlers...)
}

// MethodWithRefs adds a bytecode-backed method whose instructions resolve
// symbolic operands (class/field/method names) by indexing into refs.
func (b *Builder) MethodWithRefs(sig types.Signature, access types.AccessFlag, maxStack, maxLocals int, code []byte, refs []Ref, handlers ...ExceptionHandler) *Builder {
	b.cd.Methods = append(b.cd.Methods, MethodDescriptor{
		Signature: sig,
		Access:    access,
		Code: &Code{
			MaxStack:   maxStack,
			MaxLocals:  maxLocals,
			Bytes:      code,
			Handlers:   handlers,
			References: refs,
		},
	})
	return b
}

// NativeMethod declares a method with no bytecode body (native or abstract);
// the method resolver is expected to find a trapped binding for it.
func (b *Builder) NativeMethod(sig types.Signature, access types.AccessFlag) *Builder {
	b.cd.Methods = append(b.cd.Methods, MethodDescriptor{Signature: sig, Access: access | types.Native})
	return b
}

// Build returns the assembled descriptor.
func (b *Builder) Build() *ClassDescriptor {
	cd := b.cd
	return &cd
}

// Register encodes the built descriptor and stores it into loader under its
// own internal name, so that a subsequent ClassTable.Resolve for that name
// loads and parses it via DefaultParser.
func (b *Builder) Register(loader MapLoader) error {
	data, err := Encode(b.Build())
	if err != nil {
		return err
	}
	loader[b.cd.Name] = data
	return nil
}
