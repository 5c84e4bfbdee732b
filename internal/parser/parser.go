// Package parser implements the recursive-descent parser (spec §4.3):
// it interleaves symbol/type resolution with parsing, so every Expr it
// hands back from an expression-grammar method already carries its
// resolved type and lvalue flag — there is no separate checking pass
// over an untyped tree.
package parser

import (
	"github.com/gmofishsauce/subc/internal/ast"
	"github.com/gmofishsauce/subc/internal/diag"
	"github.com/gmofishsauce/subc/internal/initimg"
	"github.com/gmofishsauce/subc/internal/sym"
	"github.com/gmofishsauce/subc/internal/token"
	"github.com/gmofishsauce/subc/internal/types"
)

// Unit is a fully parsed translation unit.
type Unit struct {
	Globals []*ast.GlobalVar
	Funcs   []*ast.Func
}

// Parser walks a flat token stream (already expanded by internal/cpp)
// and produces a Unit.
type Parser struct {
	toks  []token.Token
	pos   int
	scope *sym.Scope

	curFunc    *sym.Symbol
	frameOff   int // next free (negative-growing) stack offset
}

// Parse runs the parser over toks to completion.
func Parse(toks []token.Token) (*Unit, error) {
	p := &Parser{toks: toks, scope: sym.NewScope()}
	return p.parseUnit()
}

// ---- token stream helpers, mirroring the teacher's Peek/Next/Expect ----

func (p *Parser) peek() token.Token  { return p.toks[p.pos] }
func (p *Parser) peekN(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) next() token.Token {
	t := p.peek()
	if t.Kind != token.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) atEOF() bool { return p.peek().Kind == token.EOF }

func (p *Parser) expectPunct(s string) (token.Token, error) {
	t := p.next()
	if !t.IsPunct(s) {
		return t, diag.At(t, "expected %q, got %q", s, t.Lexeme)
	}
	return t, nil
}

func (p *Parser) expectKeyword(s string) (token.Token, error) {
	t := p.next()
	if !t.IsKeyword(s) {
		return t, diag.At(t, "expected keyword %q, got %q", s, t.Lexeme)
	}
	return t, nil
}

func (p *Parser) expectIdent() (token.Token, error) {
	t := p.next()
	if t.Kind != token.Ident {
		return t, diag.At(t, "expected identifier, got %q", t.Lexeme)
	}
	return t, nil
}

// ---- top level ----

func (p *Parser) parseUnit() (*Unit, error) {
	u := &Unit{}
	for !p.atEOF() {
		// A bare tag declaration/definition at file scope: `struct X { ... };`
		if (p.peek().IsKeyword("struct") || p.peek().IsKeyword("union")) && p.peekN(2).IsPunct("{") {
			if _, err := p.parseTypeSpecifier(); err != nil {
				return nil, err
			}
			if _, err := p.expectPunct(";"); err != nil {
				return nil, err
			}
			continue
		}

		baseType, err := p.parseTypeSpecifier()
		if err != nil {
			return nil, err
		}
		declType, name, isFunc, err := p.parseDeclarator(baseType)
		if err != nil {
			return nil, err
		}
		if isFunc {
			fn, err := p.parseFunctionBody(declType, name)
			if err != nil {
				return nil, err
			}
			u.Funcs = append(u.Funcs, fn)
			continue
		}
		gv, err := p.parseGlobalTail(declType, name)
		if err != nil {
			return nil, err
		}
		u.Globals = append(u.Globals, gv...)
	}
	return u, nil
}

// parseTypeSpecifier parses `int`, `char`, `struct TAG ({ fields })?`,
// or `union TAG ({ fields })?`, declaring or resolving the tag as it goes.
func (p *Parser) parseTypeSpecifier() (*types.Type, error) {
	t := p.peek()
	switch {
	case t.IsKeyword("int"):
		p.next()
		return types.IntType, nil
	case t.IsKeyword("char"):
		p.next()
		return types.CharType, nil
	case t.IsKeyword("struct"):
		p.next()
		return p.parseAggregate(false)
	case t.IsKeyword("union"):
		p.next()
		return p.parseAggregate(true)
	default:
		return nil, diag.At(t, "expected a type specifier, got %q", t.Lexeme)
	}
}

func (p *Parser) parseAggregate(isUnion bool) (*types.Type, error) {
	var tagName string
	if p.peek().Kind == token.Ident {
		tagName = p.next().Lexeme
	}

	if !p.peek().IsPunct("{") {
		// Reference to a previously declared (possibly forward) tag.
		if tagName == "" {
			return nil, diag.At(p.peek(), "expected tag name or '{' after struct/union")
		}
		var existing *types.Type
		if isUnion {
			existing = p.scope.LookupUnionTag(tagName)
		} else {
			existing = p.scope.LookupRecordTag(tagName)
		}
		if existing == nil {
			return nil, diag.At(p.peek(), "undefined tag %q", tagName)
		}
		return existing, nil
	}

	// A definition. Declare the (initially empty) tag before parsing the
	// field list, so a pointer field can refer back to it recursively
	// (spec §9: `struct X { struct X *next; }`).
	placeholder := &types.Type{Tag: tagName}
	if isUnion {
		placeholder.Kind = types.Union
	} else {
		placeholder.Kind = types.Record
	}
	if tagName != "" {
		if isUnion {
			p.scope.DeclareUnionTag(tagName, placeholder)
		} else {
			p.scope.DeclareRecordTag(tagName, placeholder)
		}
	}

	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var fields []types.Field
	for !p.peek().IsPunct("}") {
		fieldType, err := p.parseTypeSpecifier()
		if err != nil {
			return nil, err
		}
		for {
			ft, name, err := p.parseDeclaratorNonFunc(fieldType)
			if err != nil {
				return nil, err
			}
			fields = append(fields, types.Field{Name: name, Type: ft})
			if p.peek().IsPunct(",") {
				p.next()
				continue
			}
			break
		}
		if _, err := p.expectPunct(";"); err != nil {
			return nil, err
		}
	}
	p.next() // '}'

	var complete *types.Type
	if isUnion {
		complete = types.NewUnion(tagName, fields)
	} else {
		complete = types.NewRecord(tagName, fields)
	}
	if tagName != "" {
		*placeholder = *complete
		complete = placeholder
	}
	return complete, nil
}

// parseDeclarator parses the pointer/array/function suffix of a
// declarator. isFunc is true when a parameter list follows the name,
// in which case the parser has NOT consumed the parameter list or body
// yet — the caller does that via parseFunctionBody.
func (p *Parser) parseDeclarator(base *types.Type) (*types.Type, string, bool, error) {
	t := base
	for p.peek().IsPunct("*") {
		p.next()
		t = types.NewPointer(t)
	}
	nameTok, err := p.expectIdent()
	if err != nil {
		return nil, "", false, err
	}
	if p.peek().IsPunct("(") {
		return t, nameTok.Lexeme, true, nil
	}
	for p.peek().IsPunct("[") {
		p.next()
		length := 0
		if !p.peek().IsPunct("]") {
			lenTok := p.peek()
			v, err := p.parseConstIntExpr()
			if err != nil {
				return nil, "", false, err
			}
			if v <= 0 {
				return nil, "", false, diag.At(lenTok, "array length must be positive")
			}
			length = int(v)
		}
		if _, err := p.expectPunct("]"); err != nil {
			return nil, "", false, err
		}
		t = types.NewArray(t, length)
	}
	return t, nameTok.Lexeme, false, nil
}

// parseDeclaratorNonFunc is parseDeclarator restricted to field/param
// position, where a function suffix is never legal.
func (p *Parser) parseDeclaratorNonFunc(base *types.Type) (*types.Type, string, error) {
	t, name, isFunc, err := p.parseDeclarator(base)
	if err != nil {
		return nil, "", err
	}
	if isFunc {
		return nil, "", diag.At(p.peek(), "function declarator not allowed here")
	}
	return t, name, nil
}

// parseConstIntExpr evaluates a compile-time-constant array bound; the
// corpus's array bounds are always bare integer literals, so that is the
// only form accepted.
func (p *Parser) parseConstIntExpr() (int64, error) {
	t, err := p.expectIntLit()
	if err != nil {
		return 0, err
	}
	return t.IntVal, nil
}

func (p *Parser) expectIntLit() (token.Token, error) {
	t := p.next()
	if t.Kind != token.Int {
		return t, diag.At(t, "expected an integer constant, got %q", t.Lexeme)
	}
	return t, nil
}

// ---- global variables ----

func (p *Parser) parseGlobalTail(firstType *types.Type, firstName string) ([]*ast.GlobalVar, error) {
	var out []*ast.GlobalVar
	t, name := firstType, firstName
	for {
		gv, err := p.parseOneGlobal(t, name)
		if err != nil {
			return nil, err
		}
		out = append(out, gv)
		if p.peek().IsPunct(",") {
			p.next()
			nt, nm, _, err := p.parseDeclarator(baseOf(gv.Typ))
			if err != nil {
				return nil, err
			}
			t, name = nt, nm
			continue
		}
		break
	}
	_, err := p.expectPunct(";")
	return out, err
}

// baseOf strips all Pointer/Array wrapping to recover the element base
// type, used when re-running the declarator grammar for a second
// comma-separated declarator sharing the same base type specifier.
func baseOf(t *types.Type) *types.Type {
	for t.Kind == types.Pointer || t.Kind == types.Array {
		t = t.Elem
	}
	return t
}

func (p *Parser) parseOneGlobal(t *types.Type, name string) (*ast.GlobalVar, error) {
	loc := p.peek().Pos
	var img *ast.InitImage
	if p.peek().IsPunct("=") {
		p.next()
		node, err := p.parseInitNode()
		if err != nil {
			return nil, err
		}
		// `T x[] = {...}` infers the array length from the initializer.
		if t.Kind == types.Array && t.Len == 0 {
			t = types.NewArray(t.Elem, inferLen(t.Elem, node))
		}
		img, err = initimg.Build(t, node)
		if err != nil {
			return nil, err
		}
	}
	s := &sym.Symbol{Name: name, Kind: sym.GlobalVar, Type: t}
	if err := p.scope.Declare(s); err != nil {
		return nil, diag.Errorf(loc, "%v", err)
	}
	return &ast.GlobalVar{Name: name, Typ: t, Init: img, Loc: loc}, nil
}

// inferLen counts top-level initializer elements for an incomplete
// array bound, per spec §4.3.
func inferLen(elem *types.Type, n initimg.Node) int {
	if n.Scalar != nil && n.Scalar.IsBytes {
		return len(n.Scalar.Bytes)
	}
	return len(n.Brace)
}

// parseInitNode parses a brace-tree initializer into initimg.Node,
// folding every leaf to a constant: a string literal, or an integer or
// character literal with an optional leading '-'. Addresses of globals
// (`&g`) are not accepted as leaves.
func (p *Parser) parseInitNode() (initimg.Node, error) {
	if p.peek().Kind == token.String {
		t := p.next()
		return initimg.Node{Scalar: &initimg.ScalarValue{IsBytes: true, Bytes: t.Bytes}}, nil
	}
	if p.peek().IsPunct("{") {
		p.next()
		var elems []initimg.Node
		for !p.peek().IsPunct("}") {
			e, err := p.parseInitNode()
			if err != nil {
				return initimg.Node{}, err
			}
			elems = append(elems, e)
			if p.peek().IsPunct(",") {
				p.next()
				continue
			}
			break
		}
		if _, err := p.expectPunct("}"); err != nil {
			return initimg.Node{}, err
		}
		return initimg.Node{Brace: elems}, nil
	}
	v, err := p.parseFoldedConst()
	if err != nil {
		return initimg.Node{}, err
	}
	return initimg.Node{Scalar: &initimg.ScalarValue{IntVal: v}}, nil
}

// parseFoldedConst folds the small constant-expression grammar the
// corpus's initializers actually use: an optional leading '-', an
// integer or character literal.
func (p *Parser) parseFoldedConst() (int64, error) {
	neg := false
	if p.peek().IsPunct("-") {
		p.next()
		neg = true
	}
	t := p.next()
	var v int64
	switch t.Kind {
	case token.Int, token.Char:
		v = t.IntVal
	default:
		return 0, diag.At(t, "expected a constant expression, got %q", t.Lexeme)
	}
	if neg {
		v = -v
	}
	return v, nil
}

// ---- function definitions ----

func (p *Parser) parseFunctionBody(retType *types.Type, name string) (*ast.Func, error) {
	loc := p.peek().Pos
	fnSym := &sym.Symbol{Name: name, Kind: sym.Func, Type: retType}
	// Functions live in the same namespace as globals; declare before
	// the body so recursive calls resolve.
	if existing := p.scope.Lookup(name); existing == nil {
		_ = p.scope.Declare(fnSym)
	} else {
		fnSym = existing
	}

	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	p.scope.Push()
	defer p.scope.Pop()

	p.curFunc = fnSym
	p.frameOff = 0

	var paramNames []string
	var paramTypes []*types.Type
	var paramOffsets []int
	for !p.peek().IsPunct(")") {
		pt, err := p.parseTypeSpecifier()
		if err != nil {
			return nil, err
		}
		ft, pname, err := p.parseDeclaratorNonFunc(pt)
		if err != nil {
			return nil, err
		}
		paramNames = append(paramNames, pname)
		paramTypes = append(paramTypes, ft)
		s := p.allocParam(pname, ft)
		paramOffsets = append(paramOffsets, s.Offset)
		if p.peek().IsPunct(",") {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	fnSym.ParamTypes = paramTypes

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	frameSize := alignUp(-p.frameOff, 16)
	fnSym.FrameSize = frameSize

	return &ast.Func{
		Name:         name,
		ReturnType:   retType,
		ParamNames:   paramNames,
		ParamTypes:   paramTypes,
		ParamOffsets: paramOffsets,
		FrameSize:    frameSize,
		Body:         body,
		Loc:          loc,
	}, nil
}

func alignUp(n, a int) int {
	if n%a == 0 {
		return n
	}
	return n + (a - n%a)
}

// allocLocal declares a new stack slot for a local variable, growing
// the frame downward from the frame pointer (spec §4.5).
func (p *Parser) allocLocal(name string, t *types.Type) *sym.Symbol {
	return p.allocSlot(name, t, sym.LocalVar)
}

// allocParam is allocLocal for a parameter: same stack-slot allocation,
// distinct Symbol.Kind so codegen can tell a spilled parameter from an
// ordinary local when it needs to (their storage is identical).
func (p *Parser) allocParam(name string, t *types.Type) *sym.Symbol {
	return p.allocSlot(name, t, sym.Param)
}

func (p *Parser) allocSlot(name string, t *types.Type, kind sym.Kind) *sym.Symbol {
	size := t.Size()
	align := t.Align()
	p.frameOff -= size
	if rem := p.frameOff % align; rem != 0 {
		p.frameOff -= align + rem
	}
	s := &sym.Symbol{Name: name, Kind: kind, Type: t, Offset: p.frameOff}
	_ = p.scope.Declare(s)
	return s
}

// ---- statements ----

func (p *Parser) parseBlock() (*ast.Block, error) {
	loc := p.peek().Pos
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	p.scope.Push()
	defer p.scope.Pop()

	var stmts []ast.Stmt
	for !p.peek().IsPunct("}") {
		s, err := p.parseBlockItem()
		if err != nil {
			return nil, err
		}
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	p.next() // '}'
	return &ast.Block{Stmts: stmts, Loc: loc}, nil
}

// parseBlockItem parses either a local declaration (which adds symbols
// to scope and yields the Stmt that zero-fills or initializes each
// declared local) or an ordinary statement.
func (p *Parser) parseBlockItem() (ast.Stmt, error) {
	if p.isTypeStart() {
		return p.parseLocalDecl()
	}
	return p.parseStmt()
}

func (p *Parser) isTypeStart() bool {
	t := p.peek()
	return t.IsKeyword("int") || t.IsKeyword("char") || t.IsKeyword("struct") || t.IsKeyword("union")
}

// parseLocalDecl parses `type declarator (= init)? (, declarator (= init)?)* ;`
// as a local declaration, returning the declared variable's
// initialization Stmt, or a Block wrapping each one's when several
// declarators share the declaration, so it can stand in as a single Stmt. A
// bare type with no declarator at all (`int;`, or a standalone
// `struct S {...};` tag definition) is legal and declares nothing.
func (p *Parser) parseLocalDecl() (ast.Stmt, error) {
	loc := p.peek().Pos
	baseType, err := p.parseTypeSpecifier()
	if err != nil {
		return nil, err
	}
	if p.peek().IsPunct(";") {
		p.next()
		return &ast.ExprStmt{Loc: loc}, nil
	}

	var stmts []ast.Stmt
	for {
		t, name, isFunc, err := p.parseDeclarator(baseType)
		if err != nil {
			return nil, err
		}
		if isFunc {
			return nil, diag.At(p.peek(), "function declarations are not allowed inside a block")
		}
		declLoc := p.peek().Pos
		s, err := p.parseOneLocalInit(declLoc, t, name)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		if p.peek().IsPunct(",") {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	if len(stmts) == 1 {
		return stmts[0], nil
	}
	return &ast.Block{Stmts: stmts, Loc: loc}, nil
}

// parseOneLocalInit allocates one declared local's stack slot and
// builds the Stmt that initializes it: a brace initializer (spec
// §4.3) folds to a constant image zero-filled then overlaid; any other
// initializer is an ordinary runtime assignment; no initializer at all
// still zero-fills the slot (spec §3's zero-initialization default).
func (p *Parser) parseOneLocalInit(declLoc token.Position, t *types.Type, name string) (ast.Stmt, error) {
	if !p.peek().IsPunct("=") {
		s := p.allocLocal(name, t)
		return &ast.LocalInitStmt{Offset: s.Offset, Size: t.Size(), Loc: declLoc}, nil
	}
	p.next() // '='
	if p.peek().IsPunct("{") {
		// `T x[] = {...}` infers the array length from the initializer,
		// same as a global (spec §4.3). The slot is allocated only after
		// the final (length-complete) type is known, so its frame offset
		// accounts for the inferred size rather than the zero size of the
		// incomplete array type.
		node, err := p.parseInitNode()
		if err != nil {
			return nil, err
		}
		if t.Kind == types.Array && t.Len == 0 {
			t = types.NewArray(t.Elem, inferLen(t.Elem, node))
		}
		s := p.allocLocal(name, t)
		img, err := initimg.Build(t, node)
		if err != nil {
			return nil, err
		}
		return &ast.LocalInitStmt{Offset: s.Offset, Size: t.Size(), Image: img, Loc: declLoc}, nil
	}
	s := p.allocLocal(name, t)
	rhs, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	lhs := &ast.Ident{Base: ast.NewBase(declLoc, t, true), Name: name, Storage: ast.StorageLocal, Offset: s.Offset}
	assign, err := p.buildAssign(declLoc, lhs, rhs)
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{X: assign, Loc: declLoc}, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	t := p.peek()
	switch {
	case t.IsPunct(";"):
		p.next()
		return &ast.ExprStmt{Loc: t.Pos}, nil
	case t.IsPunct("{"):
		return p.parseBlock()
	case t.IsKeyword("return"):
		return p.parseReturn()
	case t.IsKeyword("if"):
		return p.parseIf()
	case t.IsKeyword("for"):
		return p.parseFor()
	case t.IsKeyword("while"):
		return p.parseWhile()
	default:
		loc := t.Pos
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		return &ast.ExprStmt{X: e, Loc: loc}, nil
	}
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	loc := p.next().Pos // 'return'
	if p.peek().IsPunct(";") {
		p.next()
		return &ast.ReturnStmt{Loc: loc}, nil
	}
	v, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Value: decay(v), Loc: loc}, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	loc := p.next().Pos // 'if'
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	then, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	var els ast.Stmt
	if p.peek().IsKeyword("else") {
		p.next()
		els, err = p.parseStmt()
		if err != nil {
			return nil, err
		}
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: els, Loc: loc}, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	loc := p.next().Pos // 'while'
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Cond: cond, Body: body, Loc: loc}, nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	loc := p.next().Pos // 'for'
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var init, cond, post ast.Expr
	var err error
	if !p.peek().IsPunct(";") {
		init, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	if !p.peek().IsPunct(";") {
		cond, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	if !p.peek().IsPunct(")") {
		post, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{Init: init, Cond: cond, Post: post, Body: body, Loc: loc}, nil
}
