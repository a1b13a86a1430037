/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package gfunction is the native-binding registry of spec §4.8: a table
// from "owner-class.name+descriptor" leaves to host-implemented functions
// that shadow bytecode at method resolution. Keying and the GMeth/GFunction
// shape are grounded directly on jacobin's own gfunction package (see
// Load_Lang_String, MethodSignatures["java/lang/String.<init>([B)V"] =
// GMeth{ParamSlots: 1, GFunction: newStringFromBytes} in javaLangString.go)
// reshaped per spec §9 into a *Registry instance field rather than a
// package-level MethodSignatures map.
package gfunction

import (
	"fmt"

	"github.com/corvuslang/corvus/corvuslog"
	"github.com/corvuslang/corvus/frames"
)

// GFunction is a host-implemented leaf. It receives exactly ParamSlots
// arguments (padded or truncated by Registry.Invoke) and returns one of: a
// frames.Value result, a raw Go value (string, int64, bool, ...) for the
// interpreter to marshal into the caller's expected type, or a *GErrBlk
// describing an exception to raise. This three-way contract mirrors
// jacobin's own `func(params []interface{}) interface{}` leaves, which
// return the same mix of wire-level and raw Go values.
type GFunction func(params []frames.Value) interface{}

// GMeth is one registry entry: the leaf function plus the parameter count
// the interpreter must supply. For instance methods the count includes the
// receiver, which callers pass as params[0] by convention, matching jacobin.
type GMeth struct {
	ParamSlots int
	GFunction  GFunction
}

// GErrBlk is the sentinel a GFunction returns instead of a value when it
// wants to raise a host-recognized exception, mirroring jacobin's
// getGErrBlk(excNames.X, msg) convention (see javaLangString.go,
// javaIoInputStreamReader.go).
type GErrBlk struct {
	ExceptionClass string
	Message        string
}

// NewGErrBlk builds a GErrBlk, the idiomatic way gfunction leaves signal a
// thrown exception rather than a returned value.
func NewGErrBlk(exceptionClass, message string) *GErrBlk {
	return &GErrBlk{ExceptionClass: exceptionClass, Message: message}
}

// Registry is the per-VM-instance native-binding table (spec §9 "Global
// state"): distinct VM instances never share registered leaves.
type Registry struct {
	methods map[string]GMeth
	logger  *corvuslog.Logger
}

// NewRegistry builds an empty registry that logs arity mismatches through
// logger (spec §9 "Native leaf arity mismatch" design note). A nil logger is
// valid and silently discards mismatch reports.
func NewRegistry(logger *corvuslog.Logger) *Registry {
	return &Registry{methods: make(map[string]GMeth), logger: logger}
}

// key builds the lookup leaf name: owner class name, a literal dot, then
// name+descriptor — exactly the shape spec §4.8 describes splitting on '/'
// up to (but not into) the descriptor's parenthesis.
func key(className, nameAndDescriptor string) string {
	return className + "." + nameAndDescriptor
}

// Register installs a leaf for className's nameAndDescriptor (e.g.
// "<init>([B)V" or "addressSize()I").
func (r *Registry) Register(className, nameAndDescriptor string, m GMeth) {
	r.methods[key(className, nameAndDescriptor)] = m
}

// Lookup reports whether a trapped native exists for the given owner class
// and name+descriptor, implementing step 1 of spec §4.6's resolveDirectRef.
func (r *Registry) Lookup(className, nameAndDescriptor string) (GMeth, bool) {
	m, ok := r.methods[key(className, nameAndDescriptor)]
	return m, ok
}

// Invoke applies the bound leaf to args using the arity-tolerant curried
// application spec §4.8 describes: missing trailing arguments are padded
// with a null reference, and surplus arguments are dropped, so that neither
// direction of arity drift breaks an existing leaf. A mismatch is logged
// through the registry's logger, per spec §9's design note; a registry built
// with a nil logger drops the report.
func (r *Registry) Invoke(className, nameAndDescriptor string, args []frames.Value) (interface{}, bool) {
	m, ok := r.Lookup(className, nameAndDescriptor)
	if !ok {
		return nil, false
	}

	if len(args) != m.ParamSlots {
		r.logger.Log(fmt.Sprintf("native arity mismatch for %s.%s: got %d args, want %d",
			className, nameAndDescriptor, len(args), m.ParamSlots), corvuslog.Warning)
	}

	padded := make([]frames.Value, m.ParamSlots)
	for i := range padded {
		if i < len(args) {
			padded[i] = args[i]
		} else {
			padded[i] = frames.ReferenceValue(0)
		}
	}
	return m.GFunction(padded), true
}

// Len reports how many leaves are currently registered.
func (r *Registry) Len() int { return len(r.methods) }
