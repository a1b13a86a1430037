/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"bytes"
	"fmt"

	parser "github.com/wreulicke/classfile-parser"

	"github.com/corvuslang/corvus/types"
)

// ExternalParser decodes real JVM .class byte streams using
// github.com/wreulicke/classfile-parser rather than DefaultParser's gob
// wire format. It is the adapter an embedder opts into (cmd/corvus
// --external-parser) when it needs to load actual compiled .class files
// instead of Corvus-authored fixtures.
type ExternalParser struct{}

func (ExternalParser) Parse(data []byte) (*ClassDescriptor, error) {
	p := parser.New(bytes.NewReader(data))
	cf, err := p.Parse()
	if err != nil {
		return nil, &ParseError{Detail: err.Error()}
	}
	cp := cf.ConstantPool

	name, err := cf.ThisClassName()
	if err != nil {
		return nil, &ParseError{Detail: "missing this_class: " + err.Error()}
	}

	var super string
	if cf.SuperClass != 0 {
		super, err = cf.SuperClassName()
		if err != nil {
			return nil, &ParseError{Detail: "malformed super_class: " + err.Error()}
		}
	}

	interfaces := make([]string, 0, len(cf.Interfaces))
	for _, idx := range cf.Interfaces {
		iName, err := cp.GetClassName(idx)
		if err != nil {
			return nil, &ParseError{Detail: fmt.Sprintf("malformed interface ref %d: %v", idx, err)}
		}
		interfaces = append(interfaces, iName)
	}

	fields := make([]FieldDescriptor, 0, len(cf.Fields))
	for _, f := range cf.Fields {
		fname, err := f.Name(cp)
		if err != nil {
			return nil, &ParseError{Detail: "malformed field name: " + err.Error()}
		}
		desc, err := f.Descriptor(cp)
		if err != nil {
			return nil, &ParseError{Detail: "malformed field descriptor: " + err.Error()}
		}
		ftype, _, err := types.ParseFieldType(desc)
		if err != nil {
			return nil, &ParseError{Detail: "unparseable field type " + desc}
		}
		fields = append(fields, FieldDescriptor{
			Name:   fname,
			Type:   ftype,
			Access: types.AccessFlag(f.AccessFlags),
		})
	}

	methods := make([]MethodDescriptor, 0, len(cf.Methods))
	for _, m := range cf.Methods {
		mname, err := m.Name(cp)
		if err != nil {
			return nil, &ParseError{Detail: "malformed method name: " + err.Error()}
		}
		desc, err := m.Descriptor(cp)
		if err != nil {
			return nil, &ParseError{Detail: "malformed method descriptor: " + err.Error()}
		}
		sigDesc, err := types.ParseDescriptor(desc)
		if err != nil {
			return nil, &ParseError{Detail: "unparseable method descriptor " + desc}
		}

		md := MethodDescriptor{
			Signature: types.Signature{Name: mname, Descriptor: sigDesc},
			Access:    types.AccessFlag(m.AccessFlags),
		}

		if codeAttr := m.Code(); codeAttr != nil {
			code := &Code{
				MaxStack:  int(codeAttr.MaxStack),
				MaxLocals: int(codeAttr.MaxLocals),
				Bytes:     append([]byte(nil), codeAttr.Codes...),
			}
			for _, h := range codeAttr.ExceptionTable {
				catch := ""
				if h.CatchType != 0 {
					catch, _ = cp.GetClassName(h.CatchType)
				}
				code.Handlers = append(code.Handlers, ExceptionHandler{
					StartPC:   int(h.StartPc),
					EndPC:     int(h.EndPc),
					HandlerPC: int(h.HandlerPc),
					CatchType: catch,
				})
			}
			md.Code = code
		}

		methods = append(methods, md)
	}

	return &ClassDescriptor{
		Name:       name,
		SuperClass: super,
		Interfaces: interfaces,
		Fields:     fields,
		Methods:    methods,
		Access:     types.AccessFlag(cf.AccessFlags),
	}, nil
}
