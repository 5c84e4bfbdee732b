// Package codegen implements the code generator (spec §4.5-4.6): one
// pass per function over a typed syntax tree, emitting textual
// System-V-style x86-64 assembly for an external assembler, in the
// address/value accumulator-with-spill-stack style spec §4.5 describes.
package codegen

import (
	"bytes"
	"fmt"
)

// Emitter accumulates assembly text into an in-memory buffer, the way
// the teacher's ygen.Emitter wraps a bufio.Writer — buffered here
// instead of streamed because codegen interleaves a .data section
// (globals, then anonymous string labels discovered while walking
// function bodies) ahead of the .text section it was generated after.
type Emitter struct {
	buf        bytes.Buffer
	labelCount int
}

// NewEmitter creates an empty Emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// NewLabel generates a unique local label with the given prefix.
func (e *Emitter) NewLabel(prefix string) string {
	label := fmt.Sprintf(".L%s%d", prefix, e.labelCount)
	e.labelCount++
	return label
}

// Directive emits an assembler directive, e.g. `.text`.
func (e *Emitter) Directive(format string, args ...any) {
	fmt.Fprintf(&e.buf, "\t%s\n", fmt.Sprintf(format, args...))
}

// Label emits a label definition.
func (e *Emitter) Label(name string) {
	fmt.Fprintf(&e.buf, "%s:\n", name)
}

// Instr emits one instruction line.
func (e *Emitter) Instr(format string, args ...any) {
	fmt.Fprintf(&e.buf, "\t%s\n", fmt.Sprintf(format, args...))
}

// Comment emits a trailing-style comment line.
func (e *Emitter) Comment(format string, args ...any) {
	fmt.Fprintf(&e.buf, "\t# %s\n", fmt.Sprintf(format, args...))
}

// Blank emits a blank line, used to separate functions for readability.
func (e *Emitter) Blank() {
	e.buf.WriteByte('\n')
}

// Bytes returns the accumulated assembly text.
func (e *Emitter) Bytes() []byte {
	return e.buf.Bytes()
}
