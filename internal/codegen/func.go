package codegen

import (
	"github.com/gmofishsauce/subc/internal/ast"
	"github.com/gmofishsauce/subc/internal/types"
)

// genFunc emits one function's prologue, body, and epilogue (spec
// §4.5's frame layout): parameters arrive in the fixed argument
// registers and are spilled to their local slots at entry, and every
// `return` — however deeply nested in ifs, loops, or block expressions
// — jumps to the function's single epilogue label rather than unwinding
// the frame at each return site.
func (g *Generator) genFunc(fn *ast.Func) error {
	g.fn = fn
	g.epilogueLabel = g.text.NewLabel("epilogue")

	g.text.Directive(".globl %s", fn.Name)
	g.text.Label(fn.Name)
	g.text.Instr("pushq %s", "%rbp")
	g.text.Instr("movq %%rsp, %%rbp")
	if fn.FrameSize > 0 {
		g.text.Instr("subq $%d, %%rsp", fn.FrameSize)
	}

	if err := g.spillParams(fn); err != nil {
		return err
	}

	if err := g.genStmt(fn.Body); err != nil {
		return err
	}

	g.text.Label(g.epilogueLabel)
	g.text.Instr("movq %%rbp, %%rsp")
	g.text.Instr("popq %%rbp")
	g.text.Instr("ret")
	g.text.Blank()
	return nil
}

// spillParams stores each incoming argument register into its
// parameter's frame slot. A char parameter's register still carries a
// full 64-bit value (the System-V ABI passes narrow integers this way
// too); only the low byte is stored, truncating per spec §4.3's
// assignment-to-char rule.
func (g *Generator) spillParams(fn *ast.Func) error {
	for i, t := range fn.ParamTypes {
		if i >= maxArgs {
			break
		}
		off := fn.ParamOffsets[i]
		if t.Kind == types.Char {
			g.text.Instr("movb %s, %d(%%rbp)", argRegs8[i], off)
		} else {
			g.text.Instr("movq %s, %d(%%rbp)", argRegs64[i], off)
		}
	}
	return nil
}
