package codegen

import (
	"fmt"

	"github.com/gmofishsauce/subc/internal/ast"
	"github.com/gmofishsauce/subc/internal/types"
)

// emitValue emits e's rvalue into %rax: for a scalar lvalue this is
// emitAddr followed by a width-appropriate load (spec §4.5's
// "address/value" pattern); every other expression kind computes its
// value directly.
func (g *Generator) emitValue(e ast.Expr) error {
	switch n := e.(type) {
	case *ast.IntLit:
		g.text.Instr("movq $%d, %%rax", n.Value)
		return nil

	case *ast.StringLit:
		label := g.internString(n.Bytes)
		g.text.Instr("leaq %s(%%rip), %%rax", label)
		return nil

	case *ast.Ident:
		if err := g.emitAddr(n); err != nil {
			return err
		}
		g.loadFrom(n.Type())
		return nil

	case *ast.DerefExpr:
		if err := g.emitValue(n.Operand); err != nil {
			return err
		}
		g.loadFrom(n.Type())
		return nil

	case *ast.IndexExpr:
		if err := g.emitAddr(n); err != nil {
			return err
		}
		g.loadFrom(n.Type())
		return nil

	case *ast.MemberExpr:
		if err := g.emitAddr(n); err != nil {
			return err
		}
		if !n.Type().IsAggregate() {
			g.loadFrom(n.Type())
		}
		return nil

	case *ast.ArrowExpr:
		if err := g.emitAddr(n); err != nil {
			return err
		}
		if !n.Type().IsAggregate() {
			g.loadFrom(n.Type())
		}
		return nil

	case *ast.DecayExpr:
		return g.emitAddr(n.Operand)

	case *ast.AddrExpr:
		return g.emitAddr(n.Operand)

	case *ast.NegExpr:
		if err := g.emitValue(n.Operand); err != nil {
			return err
		}
		g.text.Instr("negq %%rax")
		return nil

	case *ast.BinaryExpr:
		return g.emitBinary(n)

	case *ast.AssignExpr:
		return g.emitAssign(n)

	case *ast.CommaExpr:
		for i, sub := range n.Exprs {
			if i == len(n.Exprs)-1 {
				return g.emitValue(sub)
			}
			if err := g.emitValue(sub); err != nil {
				return err
			}
		}
		return nil

	case *ast.CallExpr:
		return g.emitCall(n)

	case *ast.BlockExpr:
		for _, s := range n.Stmts {
			if err := g.genStmt(s); err != nil {
				return err
			}
		}
		if n.Value == nil {
			g.text.Instr("movq $0, %%rax")
			return nil
		}
		return g.emitValue(n.Value)

	case *ast.SizeofExpr:
		g.text.Instr("movq $%d, %%rax", n.Operand.Type().Size())
		return nil

	case *ast.SizeofTypeExpr:
		g.text.Instr("movq $%d, %%rax", n.Target.Size())
		return nil

	default:
		return fmt.Errorf("codegen: unhandled expression kind %T", e)
	}
}

// loadFrom emits a load of the appropriate width from the address
// currently in %rax into %rax itself, sign-extending a char load (spec
// §4.5's "1 byte for char with sign-extension; 8 bytes for int/pointer").
func (g *Generator) loadFrom(t *types.Type) {
	if t != nil && t.Kind == types.Char {
		g.text.Instr("movsbq (%%rax), %%rax")
		return
	}
	g.text.Instr("movq (%%rax), %%rax")
}

// emitAddr emits e's address into %rax; e must be an lvalue (or, for
// DecayExpr/CommaExpr/BlockExpr, something codegen treats as one since
// its "value" already is an address per spec §3 invariant 3).
func (g *Generator) emitAddr(e ast.Expr) error {
	switch n := e.(type) {
	case *ast.Ident:
		switch n.Storage {
		case ast.StorageLocal, ast.StorageParam:
			g.text.Instr("leaq %d(%%rbp), %%rax", n.Offset)
		default:
			g.text.Instr("leaq %s(%%rip), %%rax", n.Name)
		}
		return nil

	case *ast.StringLit:
		label := g.internString(n.Bytes)
		g.text.Instr("leaq %s(%%rip), %%rax", label)
		return nil

	case *ast.DerefExpr:
		return g.emitValue(n.Operand)

	case *ast.DecayExpr:
		return g.emitAddr(n.Operand)

	case *ast.IndexExpr:
		return g.emitIndexAddr(n)

	case *ast.MemberExpr:
		f := n.Object.Type().Field(n.Field)
		if f == nil {
			return fmt.Errorf("codegen: unknown member %q", n.Field)
		}
		if err := g.emitAddr(n.Object); err != nil {
			return err
		}
		if f.Offset != 0 {
			g.text.Instr("addq $%d, %%rax", f.Offset)
		}
		return nil

	case *ast.ArrowExpr:
		agg := n.Object.Type().Elem
		f := agg.Field(n.Field)
		if f == nil {
			return fmt.Errorf("codegen: unknown member %q", n.Field)
		}
		if err := g.emitValue(n.Object); err != nil {
			return err
		}
		if f.Offset != 0 {
			g.text.Instr("addq $%d, %%rax", f.Offset)
		}
		return nil

	case *ast.AssignExpr:
		// Only reachable for chained aggregate assignment (`z = y = x`):
		// the copy is the side effect, and the expression's address is
		// the destination's, letting the chain continue leftward.
		return g.emitAssign(n)

	case *ast.CommaExpr:
		for i, sub := range n.Exprs {
			if i == len(n.Exprs)-1 {
				return g.emitAddr(sub)
			}
			if err := g.emitValue(sub); err != nil {
				return err
			}
		}
		return nil

	case *ast.BlockExpr:
		for _, s := range n.Stmts {
			if err := g.genStmt(s); err != nil {
				return err
			}
		}
		if n.Value == nil {
			return fmt.Errorf("codegen: %T is not addressable", e)
		}
		return g.emitAddr(n.Value)

	default:
		return fmt.Errorf("codegen: %T is not addressable", e)
	}
}

// emitIndexAddr implements `a[b] ≡ *(a+b)` (spec §4.3): Array already
// decayed to a pointer value by the parser, Index is the raw (unscaled)
// integer offset, so codegen itself scales by the element size.
func (g *Generator) emitIndexAddr(n *ast.IndexExpr) error {
	if err := g.emitValue(n.Array); err != nil {
		return err
	}
	g.text.Instr("pushq %%rax")
	if err := g.emitValue(n.Index); err != nil {
		return err
	}
	if size := n.Type().Size(); size != 1 {
		g.text.Instr("imulq $%d, %%rax", size)
	}
	g.text.Instr("popq %%rbx")
	g.text.Instr("addq %%rbx, %%rax")
	return nil
}

// emitBinary implements spec §4.5's binary-operator evaluation order:
// lhs into A, push A, rhs into A, pop into B, then combine with
// A := B op A — pointer-arithmetic scaling is already lowered into
// explicit multiply/divide nodes by the parser, so this never special
// cases a pointer operand.
func (g *Generator) emitBinary(n *ast.BinaryExpr) error {
	if err := g.emitValue(n.Left); err != nil {
		return err
	}
	g.text.Instr("pushq %%rax")
	if err := g.emitValue(n.Right); err != nil {
		return err
	}
	g.text.Instr("popq %%rbx")

	switch n.Op {
	case ast.OpAdd:
		g.text.Instr("addq %%rbx, %%rax")
	case ast.OpSub:
		g.text.Instr("subq %%rax, %%rbx")
		g.text.Instr("movq %%rbx, %%rax")
	case ast.OpMul:
		g.text.Instr("imulq %%rbx, %%rax")
	case ast.OpDiv:
		g.text.Instr("movq %%rax, %%rcx")
		g.text.Instr("movq %%rbx, %%rax")
		g.text.Instr("cqto")
		g.text.Instr("idivq %%rcx")
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		g.text.Instr("cmpq %%rax, %%rbx")
		g.text.Instr("%s %%al", setccFor(n.Op))
		g.text.Instr("movzbq %%al, %%rax")
	default:
		return fmt.Errorf("codegen: unhandled binary operator %v", n.Op)
	}
	return nil
}

func setccFor(op ast.BinaryOp) string {
	switch op {
	case ast.OpEq:
		return "sete"
	case ast.OpNe:
		return "setne"
	case ast.OpLt:
		return "setl"
	case ast.OpLe:
		return "setle"
	case ast.OpGt:
		return "setg"
	case ast.OpGe:
		return "setge"
	default:
		return "sete"
	}
}

// emitAssign implements spec §4.3's assignment and aggregate-copy
// rules. A scalar assignment stores the evaluated rhs through the
// lhs's address and leaves the stored value in %rax; an aggregate
// assignment is a byte-for-byte copy and leaves the destination's
// address in %rax so `z = y = x;` can chain leftward.
func (g *Generator) emitAssign(n *ast.AssignExpr) error {
	if n.Type().IsAggregate() {
		return g.emitAggregateCopy(n)
	}

	if err := g.emitValue(n.RHS); err != nil {
		return err
	}
	g.text.Instr("pushq %%rax")
	if err := g.emitAddr(n.LHS); err != nil {
		return err
	}
	g.text.Instr("popq %%rbx")
	if n.Type().Kind == types.Char {
		g.text.Instr("movb %%bl, (%%rax)")
	} else {
		g.text.Instr("movq %%rbx, (%%rax)")
	}
	g.text.Instr("movq %%rbx, %%rax")
	return nil
}

// emitAggregateCopy copies n.Type().Size() bytes from RHS's address to
// LHS's address in descending-width chunks, matching spec §4.5's
// "byte-count-driven memory copy" rule.
func (g *Generator) emitAggregateCopy(n *ast.AssignExpr) error {
	if err := g.emitAddr(n.RHS); err != nil {
		return err
	}
	g.text.Instr("pushq %%rax")
	if err := g.emitAddr(n.LHS); err != nil {
		return err
	}
	g.text.Instr("movq %%rax, %%rdi") // dest
	g.text.Instr("popq %%rsi")        // src

	size := n.Type().Size()
	off := 0
	for size-off >= 8 {
		g.text.Instr("movq %d(%%rsi), %%rax", off)
		g.text.Instr("movq %%rax, %d(%%rdi)", off)
		off += 8
	}
	for size-off >= 1 {
		g.text.Instr("movb %d(%%rsi), %%al", off)
		g.text.Instr("movb %%al, %d(%%rdi)", off)
		off++
	}
	g.text.Instr("movq %%rdi, %%rax")
	return nil
}

// emitCall evaluates every argument left-to-right onto the spill
// stack first, then pops them into argument registers in reverse —
// pushing first avoids a later argument's own call clobbering an
// earlier argument already parked in its register (spec §4.5's
// "Arguments evaluated left-to-right" rule says nothing about this, but
// naively moving straight into argument registers as each is evaluated
// breaks as soon as one argument is itself a call).
func (g *Generator) emitCall(n *ast.CallExpr) error {
	if len(n.Args) > maxArgs {
		return fmt.Errorf("codegen: call to %q has more than %d arguments", n.Callee, maxArgs)
	}
	for _, a := range n.Args {
		if err := g.emitValue(a); err != nil {
			return err
		}
		g.text.Instr("pushq %%rax")
	}
	for i := len(n.Args) - 1; i >= 0; i-- {
		g.text.Instr("popq %s", argRegs64[i])
	}
	g.text.Instr("call %s", n.Callee)
	return nil
}
