/*
 * Corvus VM - a metacircular-style bytecode interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frames

import (
	"container/list"
	"errors"

	"github.com/corvuslang/corvus/classfile"
)

// Frame is the per-invocation record spec §4.7/the glossary describes: the
// owning method's identity, its bytecode and exception table, the program
// counter, the local-variable slots, and an operand stack. Field naming
// (ClName, MethName, PC) mirrors jacobin's own Frame (see
// jvm/initializerBlock.go, jvm/errors_test.go).
type Frame struct {
	ClName   string
	MethName string
	PC       int

	Code     []byte
	Handlers []classfile.ExceptionHandler

	Locals  []Value
	opStack []Value
	maxSize int
}

// CreateFrame allocates a Frame whose operand stack may grow up to
// maxStackSize elements (a maxStackSize of 0 or less leaves it unbounded),
// mirroring jacobin's frames.CreateFrame(size).
func CreateFrame(maxStackSize int) *Frame {
	return &Frame{maxSize: maxStackSize}
}

// Push appends a value to the operand stack, erroring on overflow past the
// frame's declared maximum (an InternalError condition per spec §7).
func (f *Frame) Push(v Value) error {
	if len(f.opStack) >= f.maxSize && f.maxSize > 0 {
		return errors.New("frames: operand stack overflow")
	}
	f.opStack = append(f.opStack, v)
	return nil
}

// Pop removes and returns the top of the operand stack, erroring on
// underflow (an InternalError condition per spec §7).
func (f *Frame) Pop() (Value, error) {
	if len(f.opStack) == 0 {
		return Value{}, errors.New("frames: operand stack underflow")
	}
	top := f.opStack[len(f.opStack)-1]
	f.opStack = f.opStack[:len(f.opStack)-1]
	return top, nil
}

// Peek returns the top of the operand stack without removing it.
func (f *Frame) Peek() (Value, error) {
	if len(f.opStack) == 0 {
		return Value{}, errors.New("frames: operand stack underflow")
	}
	return f.opStack[len(f.opStack)-1], nil
}

// StackDepth reports the current operand-stack size.
func (f *Frame) StackDepth() int { return len(f.opStack) }

// Clear empties the operand stack, as exception propagation does before
// transferring control to a handler (spec §4.7 "clear the operand stack").
func (f *Frame) Clear() { f.opStack = f.opStack[:0] }

// FrameStack is a thread's call stack: most-recent invocation at the front,
// matching jacobin's use of container/list for thread.ExecThread.Stack.
type FrameStack = list.List

// CreateFrameStack returns an empty frame stack.
func CreateFrameStack() *FrameStack {
	return list.New()
}

// PushFrame installs f as the new top of the stack.
func PushFrame(fs *FrameStack, f *Frame) error {
	if fs == nil {
		return errors.New("frames: nil frame stack")
	}
	fs.PushFront(f)
	return nil
}

// PopFrame removes and discards the top frame.
func PopFrame(fs *FrameStack) {
	if fs == nil || fs.Len() == 0 {
		return
	}
	fs.Remove(fs.Front())
}

// CurrentFrame returns the top frame without removing it, or nil if the
// stack is empty.
func CurrentFrame(fs *FrameStack) *Frame {
	if fs == nil || fs.Len() == 0 {
		return nil
	}
	return fs.Front().Value.(*Frame)
}
