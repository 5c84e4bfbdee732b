package codegen

import (
	"fmt"
	"io"

	"github.com/gmofishsauce/subc/internal/ast"
	"github.com/gmofishsauce/subc/internal/parser"
)

// pendingString is an anonymous string literal discovered while walking
// a function body; its data is emitted once, after every function, into
// the .data section alongside the declared globals (spec §4.5's "Global
// emission" rule for string literals).
type pendingString struct {
	label string
	bytes []byte
}

// Generator walks a parsed Unit once and produces textual assembly. It
// buffers .data and .text separately because string literals are only
// discovered mid-function, after the .text section has already started.
type Generator struct {
	text *Emitter
	data *Emitter

	fn             *ast.Func
	epilogueLabel  string
	pendingStrings []pendingString
}

// Generate runs code generation over unit and writes the resulting
// assembly to w.
func Generate(unit *parser.Unit, w io.Writer) error {
	g := &Generator{text: NewEmitter(), data: NewEmitter()}

	g.text.Directive(".text")
	for _, fn := range unit.Funcs {
		if err := g.genFunc(fn); err != nil {
			return err
		}
	}

	g.data.Directive(".data")
	for _, gv := range unit.Globals {
		g.genGlobal(gv)
	}
	for _, ps := range g.pendingStrings {
		g.data.Label(ps.label)
		emitByteData(g.data, ps.bytes)
	}

	if _, err := w.Write(g.data.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(g.text.Bytes())
	return err
}

// internString registers a string literal's bytes for later emission
// into .data and returns the label codegen should take the address of.
func (g *Generator) internString(bytes []byte) string {
	label := g.text.NewLabel("str")
	g.pendingStrings = append(g.pendingStrings, pendingString{label: label, bytes: bytes})
	return label
}

// genGlobal emits one global's labeled data directive: a flat byte
// image of exactly its type's size, zero-filled wherever the
// initializer (if any) left bytes unmentioned (spec §3's zero-init
// default and §4.3's initializer engine).
func (g *Generator) genGlobal(gv *ast.GlobalVar) {
	size := gv.Typ.Size()
	buf := make([]byte, size)
	if gv.Init != nil {
		for _, c := range gv.Init.Chunk {
			copy(buf[c.Offset:], c.Bytes)
		}
	}
	g.data.Directive(".globl %s", gv.Name)
	g.data.Label(gv.Name)
	if size == 0 {
		return
	}
	if isZero(buf) {
		g.data.Directive(".zero %d", size)
		return
	}
	emitByteData(g.data, buf)
}

func isZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}

// emitByteData emits buf as a sequence of `.byte` directives, 16 values
// to a line for readability, matching the teacher's habit (ygen.Emitter
// Words()) of wrapping data directives rather than emitting one value
// per line.
func emitByteData(e *Emitter, buf []byte) {
	const perLine = 16
	for i := 0; i < len(buf); i += perLine {
		end := i + perLine
		if end > len(buf) {
			end = len(buf)
		}
		line := make([]byte, 0, (end-i)*5)
		for j := i; j < end; j++ {
			if j > i {
				line = append(line, ',')
			}
			line = append(line, []byte(fmt.Sprintf("0x%02x", buf[j]))...)
		}
		e.Directive(".byte %s", string(line))
	}
}
