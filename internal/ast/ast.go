// Package ast defines the tree the parser builds while it resolves
// symbols and types in the same pass (spec §3): every Expr already
// carries its resolved Type and lvalue-ness by the time the parser
// produces it, there is no separate "check" pass over an untyped tree.
package ast

import (
	"github.com/gmofishsauce/subc/internal/token"
	"github.com/gmofishsauce/subc/internal/types"
)

// Decl is a top-level declaration: a global variable or a function.
type Decl interface {
	declNode()
	Pos() token.Position
}

// Stmt is anything that can appear in a function body.
type Stmt interface {
	stmtNode()
	Pos() token.Position
}

// Expr is anything with a value, resolved type, and lvalue-ness. The
// lvalue flag (rather than a separate lvalue/rvalue type hierarchy) is
// how assignability and address-of are checked — an expression's Type
// never changes based on whether it is used as an lvalue.
type Expr interface {
	exprNode()
	Pos() token.Position
	Type() *types.Type
	IsLValue() bool
}

// ============================================================
// Declarations
// ============================================================

// GlobalVar is a file-scope variable declaration, with an optional
// initializer built by internal/initimg into a flat byte image.
type GlobalVar struct {
	Name string
	Typ  *types.Type
	Init *InitImage
	Loc  token.Position
}

func (d *GlobalVar) declNode()          {}
func (d *GlobalVar) Pos() token.Position { return d.Loc }

// InitImage is the flat (offset, bytes) initializer image spec §4.3
// describes; internal/initimg is the only package that constructs one.
type InitImage struct {
	Size  int
	Chunk []InitChunk
}

// InitChunk places literal bytes at a byte offset within the image.
type InitChunk struct {
	Offset int
	Bytes  []byte
}

// Func is a function definition: parameters, locals are resolved via
// internal/sym during parsing; only the parameter list with its frame
// offsets, the computed frame size, and the body survive into the tree
// codegen walks.
type Func struct {
	Name         string
	ReturnType   *types.Type
	ParamNames   []string
	ParamTypes   []*types.Type
	ParamOffsets []int // frame offset of each parameter's spilled slot
	FrameSize    int   // total bytes of local storage, computed while parsing
	Body         *Block
	Loc          token.Position
}

func (d *Func) declNode()          {}
func (d *Func) Pos() token.Position { return d.Loc }

// ============================================================
// Statements
// ============================================================

// ExprStmt is an expression evaluated for its side effects. X is nil
// for the empty statement ";".
type ExprStmt struct {
	X   Expr
	Loc token.Position
}

func (s *ExprStmt) stmtNode()          {}
func (s *ExprStmt) Pos() token.Position { return s.Loc }

// LocalInitStmt is one declared local's storage initialization (spec
// §3's zero-initialization default plus §4.3's initializer engine): the
// codegen walk always zero-fills Size bytes at Offset first, then
// applies Image's chunks on top when Image is non-nil. It only ever
// carries a compile-time-constant Image — a scalar local initialized
// from a runtime expression (`int x = f();`) is an ordinary AssignExpr
// ExprStmt instead, since the brace form is the only one the source
// language restricts to constants.
type LocalInitStmt struct {
	Offset int
	Size   int
	Image  *InitImage // nil means no initializer: zero only
	Loc    token.Position
}

func (s *LocalInitStmt) stmtNode()          {}
func (s *LocalInitStmt) Pos() token.Position { return s.Loc }

// Block is a brace-delimited statement sequence; it also marks the
// scope boundary internal/sym pushes and pops while parsing.
type Block struct {
	Stmts []Stmt
	Loc   token.Position
}

func (s *Block) stmtNode()          {}
func (s *Block) Pos() token.Position { return s.Loc }

type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt // nil if no else clause
	Loc  token.Position
}

func (s *IfStmt) stmtNode()          {}
func (s *IfStmt) Pos() token.Position { return s.Loc }

type WhileStmt struct {
	Cond Expr
	Body Stmt
	Loc  token.Position
}

func (s *WhileStmt) stmtNode()          {}
func (s *WhileStmt) Pos() token.Position { return s.Loc }

type ForStmt struct {
	Init Expr // nil if omitted
	Cond Expr // nil if omitted
	Post Expr // nil if omitted
	Body Stmt
	Loc  token.Position
}

func (s *ForStmt) stmtNode()          {}
func (s *ForStmt) Pos() token.Position { return s.Loc }

type ReturnStmt struct {
	Value Expr // nil for a function returning no useful value
	Loc   token.Position
}

func (s *ReturnStmt) stmtNode()          {}
func (s *ReturnStmt) Pos() token.Position { return s.Loc }

// ============================================================
// Expressions
// ============================================================

// Base is the common head every concrete Expr embeds. It is exported
// (unlike a typical unexported mixin) because internal/parser builds
// every node from outside this package as it resolves types in the
// same pass that constructs the tree.
type Base struct {
	Typ    *types.Type
	Lvalue bool
	Loc    token.Position
}

func (e *Base) Pos() token.Position { return e.Loc }
func (e *Base) Type() *types.Type   { return e.Typ }
func (e *Base) IsLValue() bool      { return e.Lvalue }

// NewBase is the constructor every concrete Expr embeds through, kept
// as a free function (rather than exported fields set ad hoc) so every
// node's type/lvalue-ness is assigned at construction, never forgotten.
func NewBase(loc token.Position, typ *types.Type, lvalue bool) Base {
	return Base{Typ: typ, Lvalue: lvalue, Loc: loc}
}

type BinaryOp int

const (
	OpInvalid BinaryOp = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpGt:
		return ">"
	case OpLe:
		return "<="
	case OpGe:
		return ">="
	default:
		return "?"
	}
}

// BinaryExpr is a scalar arithmetic or comparison expression. Pointer
// arithmetic is represented here too — the parser scales Left/Right by
// the pointee's size when building the node, spec §4.3/§4.5.
type BinaryExpr struct {
	Base
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (e *BinaryExpr) exprNode() {}

// AssignExpr is `lhs = rhs`; for an aggregate LHS this is a byte copy
// of the whole object at codegen time rather than a single accumulator
// store.
type AssignExpr struct {
	Base
	LHS Expr
	RHS Expr
}

func (e *AssignExpr) exprNode() {}

// CommaExpr is the sequencing operator: every operand but the last is
// evaluated for effect, the result is the last operand's value.
type CommaExpr struct {
	Base
	Exprs []Expr
}

func (e *CommaExpr) exprNode() {}

// BlockExpr is the `({ stmts...; expr })` GNU-style block expression
// (spec §4.3): a statement sequence whose value is its final
// expression statement's value.
type BlockExpr struct {
	Base
	Stmts []Stmt
	Value Expr
}

func (e *BlockExpr) exprNode() {}

// AddrExpr is `&operand`: Operand must be an lvalue; the result type is
// a pointer to the operand's (undecayed) type.
type AddrExpr struct {
	Base
	Operand Expr
}

func (e *AddrExpr) exprNode() {}

// DerefExpr is `*operand`: the result is an lvalue of the pointee type.
type DerefExpr struct {
	Base
	Operand Expr
}

func (e *DerefExpr) exprNode() {}

// DecayExpr makes the array-to-pointer decay (spec §4.3) an explicit
// node rather than a silent type change: its Operand keeps its natural
// (undecayed) array type, while DecayExpr.Type() is a pointer to the
// element type. Codegen emits it exactly like computing Operand's
// address — the array's own storage location already is the address of
// element 0 (spec §3 invariant 3) — but keeping it as a node means
// sizeof and & can walk straight past it to the original array type by
// simply never being asked to insert one.
type DecayExpr struct {
	Base
	Operand Expr
}

func (e *DecayExpr) exprNode() {}

// NegExpr is unary minus.
type NegExpr struct {
	Base
	Operand Expr
}

func (e *NegExpr) exprNode() {}

// CallExpr is a function call; Callee is always an identifier naming a
// declared function (spec carries no function pointers).
type CallExpr struct {
	Base
	Callee string
	Args   []Expr
}

func (e *CallExpr) exprNode() {}

// IndexExpr is `array[index]`, lowered into pointer arithmetic plus a
// dereference at codegen time; the parser keeps it as its own node so `a[i]` and `i[a]` (spec's commutativity rule) both produce
// the same shape before that lowering.
type IndexExpr struct {
	Base
	Array Expr
	Index Expr
}

func (e *IndexExpr) exprNode() {}

// MemberExpr is `object.field`; Object must be a Record or Union
// lvalue (or rvalue, for read-only access of a returned aggregate).
type MemberExpr struct {
	Base
	Object Expr
	Field  string
}

func (e *MemberExpr) exprNode() {}

// ArrowExpr is `pointer->field`, equivalent to `(*pointer).field` but
// kept distinct since Object's type is a pointer, not the aggregate.
type ArrowExpr struct {
	Base
	Object Expr
	Field  string
}

func (e *ArrowExpr) exprNode() {}

// IdentStorage tells codegen where an Ident's storage lives, so it never
// needs to re-resolve a name against a symbol table of its own.
type IdentStorage int

const (
	// StorageGlobal covers both global variables (Offset unused, Name is
	// the data label) and functions (Name is the call target).
	StorageGlobal IdentStorage = iota
	StorageLocal
	StorageParam
)

// Ident is a reference to a declared variable, parameter, or function.
// Storage/Offset are resolved once, during parsing, from internal/sym —
// codegen reads them directly instead of re-resolving names.
type Ident struct {
	Base
	Name    string
	Storage IdentStorage
	Offset  int // frame offset, meaningful for StorageLocal/StorageParam
}

func (e *Ident) exprNode() {}

// IntLit is an integer literal (spec's `int` is 64-bit).
type IntLit struct {
	Base
	Value int64
}

func (e *IntLit) exprNode() {}

// StringLit is a string literal; its Type is `char[len(Bytes)]`
// (including the implicit trailing NUL) before decay.
type StringLit struct {
	Base
	Bytes []byte
}

func (e *StringLit) exprNode() {}

// SizeofExpr is `sizeof expr`; the operand is never evaluated, only
// its type is inspected (spec §4.4) — and unlike every other operand,
// an array operand here does NOT decay to a pointer.
type SizeofExpr struct {
	Base
	Operand Expr
}

func (e *SizeofExpr) exprNode() {}

// SizeofTypeExpr is `sizeof(type-name)`.
type SizeofTypeExpr struct {
	Base
	Target *types.Type
}

func (e *SizeofTypeExpr) exprNode() {}
