/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interp

import (
	"github.com/corvuslang/corvus/classfile"
	"github.com/corvuslang/corvus/classloader"
	"github.com/corvuslang/corvus/gfunction"
	"github.com/corvuslang/corvus/types"
	"github.com/corvuslang/corvus/vmerrors"
)

// resolvedMethod is the tagged result of resolveDirectRef (spec §4.6): either
// a trapped native leaf or a bytecode-backed method, always paired with the
// RuntimeClass that declares it.
type resolvedMethod struct {
	owner  *classloader.RuntimeClass
	native *gfunction.GMeth
	code   *classfile.Code
}

func (rm resolvedMethod) isNative() bool { return rm.native != nil }

// resolveDirectRef implements spec §4.6 exactly: check the native registry
// first (trapped natives shadow bytecode with the same signature), then the
// owner class's own declared methods, never its ancestry.
func resolveDirectRef(registry *gfunction.Registry, owner *classloader.RuntimeClass, sig types.Signature) (resolvedMethod, error) {
	if m, ok := registry.Lookup(owner.Name(), sig.String()); ok {
		return resolvedMethod{owner: owner, native: &m}, nil
	}

	md, ok := owner.Descriptor.FindMethod(sig)
	if !ok {
		return resolvedMethod{}, &vmerrors.NoSuchMethodError{ClassName: owner.Name(), Signature: sig.String()}
	}
	if md.Access.IsNative() || md.Code == nil {
		return resolvedMethod{}, &vmerrors.NoSuchMethodError{ClassName: owner.Name(), Signature: sig.String()}
	}
	return resolvedMethod{owner: owner, code: md.Code}, nil
}

// resolveVirtual implements the layer above direct resolution spec §4.7
// describes: walk the receiver's actual runtime class upward through its
// superclass chain, returning the first class at which resolveDirectRef
// succeeds (the most specific override).
func resolveVirtual(table *classloader.ClassTable, registry *gfunction.Registry, receiverClass *classloader.RuntimeClass, sig types.Signature) (resolvedMethod, error) {
	class := receiverClass
	for {
		rm, err := resolveDirectRef(registry, class, sig)
		if err == nil {
			return rm, nil
		}
		super := class.Descriptor.SuperClass
		if super == "" {
			return resolvedMethod{}, &vmerrors.NoSuchMethodError{ClassName: receiverClass.Name(), Signature: sig.String()}
		}
		next, err := table.ByName(super)
		if err != nil {
			return resolvedMethod{}, &vmerrors.NoSuchMethodError{ClassName: receiverClass.Name(), Signature: sig.String()}
		}
		class = next
	}
}
