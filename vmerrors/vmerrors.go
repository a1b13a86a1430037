/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package vmerrors implements spec §7's error taxonomy and propagation
// policy: the five fatal causes (ClassNotFound, MalformedClass, NoSuchMethod,
// OutOfMemory, InternalError) are wrapped in an InternalException envelope
// that preserves the original cause, while a thrown-and-unwound heap
// exception is wrapped in the distinct UncaughtException envelope. Wrapping
// uses github.com/pkg/errors, the way the retrieval pack's own error-envelope
// code (see other_examples) layers a stack-carrying cause onto a plain error
// rather than hand-rolling a %w chain.
package vmerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// NoSuchMethodError is returned when method resolution (spec §4.6) finds
// neither a trapped native nor a bytecode-backed match: in the owner class
// alone for direct resolution, or along the receiver's superclass chain for
// virtual dispatch.
type NoSuchMethodError struct {
	ClassName string
	Signature string
}

func (e *NoSuchMethodError) Error() string {
	return fmt.Sprintf("vmerrors: no such method: %s.%s", e.ClassName, e.Signature)
}

// InternalError is an interpreter invariant violation: a bad opcode, a
// stack-depth underflow, or an operand-type mismatch the dispatch loop
// detected while executing otherwise well-formed bytecode.
type InternalError struct {
	Reason string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("vmerrors: internal error: %s", e.Reason)
}

// InternalException envelopes a fatal cause (ClassNotFound, MalformedClass,
// NoSuchMethod, OutOfMemory, or InternalError) so that callers of Invoke can
// distinguish interpreter failures from a program's own uncaught exception
// by envelope type alone (spec §7 propagation policy).
type InternalException struct {
	cause error
}

// WrapInternal builds an InternalException preserving cause, or returns nil
// if cause is nil.
func WrapInternal(cause error) error {
	if cause == nil {
		return nil
	}
	return &InternalException{cause: errors.WithStack(cause)}
}

func (e *InternalException) Error() string {
	return fmt.Sprintf("vmerrors: invoke aborted: %v", e.cause)
}

func (e *InternalException) Unwrap() error { return e.cause }

// Cause returns the original fatal error this envelope preserves.
func (e *InternalException) Cause() error { return errors.Cause(e.cause) }

// UncaughtException envelopes a thrown heap-object exception that unwound
// past the entry frame with no matching handler (spec §4.7, §8 scenario 6).
// ClassName is the internal name of the exception object's runtime class.
type UncaughtException struct {
	ClassName string
	Message   string
}

func (e *UncaughtException) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("vmerrors: uncaught exception: %s", e.ClassName)
	}
	return fmt.Sprintf("vmerrors: uncaught exception: %s: %s", e.ClassName, e.Message)
}
