package codegen

import (
	"encoding/binary"
	"fmt"

	"github.com/gmofishsauce/subc/internal/ast"
)

// genStmt emits one statement. Every control-flow construct uses fresh
// numbered labels (spec §4.5: `else_N`/`end_N` for if, `begin_N`/`end_N`
// for loops) drawn from the generator's label counter, which every
// function in the unit shares.
func (g *Generator) genStmt(s ast.Stmt) error {
	switch n := s.(type) {
	case nil:
		return nil

	case *ast.Block:
		for _, sub := range n.Stmts {
			if err := g.genStmt(sub); err != nil {
				return err
			}
		}
		return nil

	case *ast.ExprStmt:
		if n.X == nil {
			return nil
		}
		return g.emitValue(n.X)

	case *ast.LocalInitStmt:
		g.zeroFill(n.Offset, n.Size)
		if n.Image != nil {
			for _, c := range n.Image.Chunk {
				g.applyChunk(n.Offset, c)
			}
		}
		return nil

	case *ast.IfStmt:
		return g.genIf(n)

	case *ast.WhileStmt:
		return g.genWhile(n)

	case *ast.ForStmt:
		return g.genFor(n)

	case *ast.ReturnStmt:
		if n.Value != nil {
			if err := g.emitValue(n.Value); err != nil {
				return err
			}
		}
		g.text.Instr("jmp %s", g.epilogueLabel)
		return nil

	default:
		return fmt.Errorf("codegen: unhandled statement kind %T", s)
	}
}

func (g *Generator) genIf(n *ast.IfStmt) error {
	if err := g.emitValue(n.Cond); err != nil {
		return err
	}
	g.text.Instr("testq %%rax, %%rax")

	if n.Else == nil {
		end := g.text.NewLabel("end")
		g.text.Instr("jz %s", end)
		if err := g.genStmt(n.Then); err != nil {
			return err
		}
		g.text.Label(end)
		return nil
	}

	elseLabel := g.text.NewLabel("else")
	end := g.text.NewLabel("end")
	g.text.Instr("jz %s", elseLabel)
	if err := g.genStmt(n.Then); err != nil {
		return err
	}
	g.text.Instr("jmp %s", end)
	g.text.Label(elseLabel)
	if err := g.genStmt(n.Else); err != nil {
		return err
	}
	g.text.Label(end)
	return nil
}

func (g *Generator) genWhile(n *ast.WhileStmt) error {
	begin := g.text.NewLabel("begin")
	end := g.text.NewLabel("end")
	g.text.Label(begin)
	if err := g.emitValue(n.Cond); err != nil {
		return err
	}
	g.text.Instr("testq %%rax, %%rax")
	g.text.Instr("jz %s", end)
	if err := g.genStmt(n.Body); err != nil {
		return err
	}
	g.text.Instr("jmp %s", begin)
	g.text.Label(end)
	return nil
}

// genFor implements spec §4.5's for-loop shape; an absent condition
// (`for(;;)`) is an unconditional loop, matching `infinite_loop_0`'s
// reliance on an inner `return` to ever leave it.
func (g *Generator) genFor(n *ast.ForStmt) error {
	if n.Init != nil {
		if err := g.emitValue(n.Init); err != nil {
			return err
		}
	}
	begin := g.text.NewLabel("begin")
	end := g.text.NewLabel("end")
	g.text.Label(begin)
	if n.Cond != nil {
		if err := g.emitValue(n.Cond); err != nil {
			return err
		}
		g.text.Instr("testq %%rax, %%rax")
		g.text.Instr("jz %s", end)
	}
	if err := g.genStmt(n.Body); err != nil {
		return err
	}
	if n.Post != nil {
		if err := g.emitValue(n.Post); err != nil {
			return err
		}
	}
	g.text.Instr("jmp %s", begin)
	g.text.Label(end)
	return nil
}

// zeroFill implements the zero-initialization default (spec §3) every
// declared local gets before any constant image is overlaid on top.
func (g *Generator) zeroFill(offset, size int) {
	off := 0
	for size-off >= 8 {
		g.text.Instr("movq $0, %d(%%rbp)", offset+off)
		off += 8
	}
	for size-off >= 1 {
		g.text.Instr("movb $0, %d(%%rbp)", offset+off)
		off++
	}
}

// applyChunk stores one initimg chunk over a local's zero-filled slot.
// Scalar chunks are always exactly 1 or 8 bytes (internal/initimg
// encodes every scalar at its type's own size); anything else is a
// string literal's byte run, stored one byte at a time.
func (g *Generator) applyChunk(base int, c ast.InitChunk) {
	switch len(c.Bytes) {
	case 8:
		v := int64(binary.LittleEndian.Uint64(c.Bytes))
		g.text.Instr("movq $%d, %d(%%rbp)", v, base+c.Offset)
	case 1:
		g.text.Instr("movb $%d, %d(%%rbp)", int8(c.Bytes[0]), base+c.Offset)
	default:
		for i, b := range c.Bytes {
			g.text.Instr("movb $%d, %d(%%rbp)", int8(b), base+c.Offset+i)
		}
	}
}
