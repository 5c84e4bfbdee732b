// Expression grammar: precedence-climbing recursive descent over
// spec §4.3's productions, interleaved with type resolution so every
// node returned already carries its final Type and lvalue flag.
package parser

import (
	"github.com/gmofishsauce/subc/internal/ast"
	"github.com/gmofishsauce/subc/internal/diag"
	"github.com/gmofishsauce/subc/internal/sym"
	"github.com/gmofishsauce/subc/internal/token"
	"github.com/gmofishsauce/subc/internal/types"
)

// storageOf maps a resolved symbol's kind to the storage tag codegen
// reads off an Ident, so it never has to re-resolve a name itself.
func storageOf(k sym.Kind) ast.IdentStorage {
	switch k {
	case sym.LocalVar:
		return ast.StorageLocal
	case sym.Param:
		return ast.StorageParam
	default:
		return ast.StorageGlobal
	}
}

func isIntLike(t *types.Type) bool {
	return t != nil && (t.Kind == types.Int || t.Kind == types.Char)
}

// promote is spec §4.3's integer promotion: a char operand in an
// arithmetic or comparison context is treated as int. The promotion
// is cosmetic on the node's declared Type; codegen already
// sign-extends every char load to 64 bits, so no extra node is needed
// to make the promoted value correct.
func promote(t *types.Type) *types.Type {
	if t != nil && t.Kind == types.Char {
		return types.IntType
	}
	return t
}

// decay applies spec §4.3's array-to-pointer decay to e unless e is
// already non-array. Every caller that consumes an expression as a
// scalar value (binary operands, assignment RHS, call arguments,
// return values, index bases) routes through decay; sizeof and &
// deliberately do not.
func decay(e ast.Expr) ast.Expr {
	t := e.Type()
	if t == nil || t.Kind != types.Array {
		return e
	}
	return &ast.DecayExpr{
		Base:    ast.NewBase(e.Pos(), types.NewPointer(t.Elem), false),
		Operand: e,
	}
}

// ---- expr, comma, assign ----

func (p *Parser) parseExpr() (ast.Expr, error) {
	first, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if !p.peek().IsPunct(",") {
		return first, nil
	}
	loc := first.Pos()
	exprs := []ast.Expr{first}
	for p.peek().IsPunct(",") {
		p.next()
		e, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	last := exprs[len(exprs)-1]
	return &ast.CommaExpr{Base: ast.NewBase(loc, last.Type(), last.IsLValue()), Exprs: exprs}, nil
}

func (p *Parser) parseAssign() (ast.Expr, error) {
	lhs, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	if !p.peek().IsPunct("=") {
		return lhs, nil
	}
	loc := p.next().Pos // '='
	rhs, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	return p.buildAssign(loc, lhs, rhs)
}

// buildAssign implements spec §4.3's assignment rule: lhs must be an
// lvalue; same-tag record/union assignment is a byte copy and is
// itself an lvalue-yielding expression, permitting `z = y = x` chains.
func (p *Parser) buildAssign(loc token.Position, lhs, rhs ast.Expr) (ast.Expr, error) {
	if !lhs.IsLValue() {
		return nil, diag.Errorf(loc, "left-hand side of assignment is not an lvalue")
	}
	lt := lhs.Type()
	if lt.IsAggregate() {
		if !rhs.Type().Equal(lt) {
			return nil, diag.Errorf(loc, "cannot assign %s to %s", rhs.Type(), lt)
		}
		// Aggregate assignment is itself an lvalue-yielding byte copy
		// (spec §4.3), which is what lets `z = y = x;` chain.
		return &ast.AssignExpr{Base: ast.NewBase(loc, lt, true), LHS: lhs, RHS: rhs}, nil
	}
	rhs = decay(rhs)
	return &ast.AssignExpr{Base: ast.NewBase(loc, lt, false), LHS: lhs, RHS: rhs}, nil
}

// ---- left-associative binary chains ----

func (p *Parser) parseEquality() (ast.Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch {
		case p.peek().IsPunct("=="):
			op = ast.OpEq
		case p.peek().IsPunct("!="):
			op = ast.OpNe
		default:
			return left, nil
		}
		loc := p.next().Pos
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left, err = p.buildComparison(loc, op, left, right)
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseRelational() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch {
		case p.peek().IsPunct("<"):
			op = ast.OpLt
		case p.peek().IsPunct("<="):
			op = ast.OpLe
		case p.peek().IsPunct(">"):
			op = ast.OpGt
		case p.peek().IsPunct(">="):
			op = ast.OpGe
		default:
			return left, nil
		}
		loc := p.next().Pos
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left, err = p.buildComparison(loc, op, left, right)
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) buildComparison(loc token.Position, op ast.BinaryOp, l, r ast.Expr) (ast.Expr, error) {
	l, r = decay(l), decay(r)
	return &ast.BinaryExpr{Base: ast.NewBase(loc, types.IntType, false), Op: op, Left: l, Right: r}, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var add bool
		switch {
		case p.peek().IsPunct("+"):
			add = true
		case p.peek().IsPunct("-"):
			add = false
		default:
			return left, nil
		}
		loc := p.next().Pos
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		if add {
			left, err = p.buildAdd(loc, left, right)
		} else {
			left, err = p.buildSub(loc, left, right)
		}
		if err != nil {
			return nil, err
		}
	}
}

// buildAdd implements spec §4.3's pointer-arithmetic commutativity:
// `p + n` and `n + p` both scale the integer operand by the pointee
// size. Scaling is lowered to an explicit multiply node rather than a
// codegen-time special case, so codegen never needs to know an
// addition came from pointer arithmetic.
func (p *Parser) buildAdd(loc token.Position, l, r ast.Expr) (ast.Expr, error) {
	l, r = decay(l), decay(r)
	lt, rt := l.Type(), r.Type()
	switch {
	case lt.Kind == types.Pointer && isIntLike(rt):
		return &ast.BinaryExpr{Base: ast.NewBase(loc, lt, false), Op: ast.OpAdd, Left: l, Right: scaleBy(r, lt.Elem.Size())}, nil
	case isIntLike(lt) && rt.Kind == types.Pointer:
		return &ast.BinaryExpr{Base: ast.NewBase(loc, rt, false), Op: ast.OpAdd, Left: scaleBy(l, rt.Elem.Size()), Right: r}, nil
	case isIntLike(lt) && isIntLike(rt):
		return &ast.BinaryExpr{Base: ast.NewBase(loc, types.IntType, false), Op: ast.OpAdd, Left: l, Right: r}, nil
	default:
		return nil, diag.Errorf(loc, "invalid operands to '+': %s and %s", lt, rt)
	}
}

func (p *Parser) buildSub(loc token.Position, l, r ast.Expr) (ast.Expr, error) {
	l, r = decay(l), decay(r)
	lt, rt := l.Type(), r.Type()
	switch {
	case lt.Kind == types.Pointer && rt.Kind == types.Pointer:
		if !lt.Elem.Equal(rt.Elem) {
			return nil, diag.Errorf(loc, "incompatible pointer types in subtraction: %s and %s", lt, rt)
		}
		elemSize := lt.Elem.Size()
		raw := &ast.BinaryExpr{Base: ast.NewBase(loc, types.IntType, false), Op: ast.OpSub, Left: l, Right: r}
		if elemSize == 1 {
			return raw, nil
		}
		return &ast.BinaryExpr{Base: ast.NewBase(loc, types.IntType, false), Op: ast.OpDiv, Left: raw, Right: intLit(loc, int64(elemSize))}, nil
	case lt.Kind == types.Pointer && isIntLike(rt):
		return &ast.BinaryExpr{Base: ast.NewBase(loc, lt, false), Op: ast.OpSub, Left: l, Right: scaleBy(r, lt.Elem.Size())}, nil
	case isIntLike(lt) && isIntLike(rt):
		return &ast.BinaryExpr{Base: ast.NewBase(loc, types.IntType, false), Op: ast.OpSub, Left: l, Right: r}, nil
	default:
		return nil, diag.Errorf(loc, "invalid operands to '-': %s and %s", lt, rt)
	}
}

// scaleBy wraps e in a multiply-by-constant node, unless size is 1 (a
// char pointee), in which case scaling is the identity.
func scaleBy(e ast.Expr, size int) ast.Expr {
	if size == 1 {
		return e
	}
	return &ast.BinaryExpr{
		Base:  ast.NewBase(e.Pos(), types.IntType, false),
		Op:    ast.OpMul,
		Left:  e,
		Right: intLit(e.Pos(), int64(size)),
	}
}

func intLit(loc token.Position, v int64) ast.Expr {
	return &ast.IntLit{Base: ast.NewBase(loc, types.IntType, false), Value: v}
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch {
		case p.peek().IsPunct("*"):
			op = ast.OpMul
		case p.peek().IsPunct("/"):
			op = ast.OpDiv
		default:
			return left, nil
		}
		loc := p.next().Pos
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left, err = p.buildMulDiv(loc, op, left, right)
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) buildMulDiv(loc token.Position, op ast.BinaryOp, l, r ast.Expr) (ast.Expr, error) {
	l, r = decay(l), decay(r)
	if !isIntLike(l.Type()) || !isIntLike(r.Type()) {
		return nil, diag.Errorf(loc, "invalid operands to %q: %s and %s", op, l.Type(), r.Type())
	}
	return &ast.BinaryExpr{Base: ast.NewBase(loc, types.IntType, false), Op: op, Left: l, Right: r}, nil
}

// ---- unary ----

func (p *Parser) parseUnary() (ast.Expr, error) {
	t := p.peek()
	switch {
	case t.IsPunct("+"):
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return decay(operand), nil

	case t.IsPunct("-"):
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		operand = decay(operand)
		if !isIntLike(operand.Type()) {
			return nil, diag.Errorf(t.Pos, "invalid operand to unary '-': %s", operand.Type())
		}
		return &ast.NegExpr{Base: ast.NewBase(t.Pos, promote(operand.Type()), false), Operand: operand}, nil

	case t.IsPunct("*"):
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		operand = decay(operand)
		if operand.Type().Kind != types.Pointer {
			return nil, diag.Errorf(t.Pos, "cannot dereference non-pointer type %s", operand.Type())
		}
		return &ast.DerefExpr{Base: ast.NewBase(t.Pos, operand.Type().Elem, true), Operand: operand}, nil

	case t.IsPunct("&"):
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if !operand.IsLValue() {
			return nil, diag.Errorf(t.Pos, "cannot take address of non-lvalue expression")
		}
		return &ast.AddrExpr{Base: ast.NewBase(t.Pos, types.NewPointer(operand.Type()), false), Operand: operand}, nil

	case t.IsKeyword("sizeof"):
		return p.parseSizeof()

	default:
		return p.parsePostfix()
	}
}

// parseSizeof implements spec §4.4's purely compile-time sizeof: the
// operand is never evaluated (`sizeof(x=1)` must leave x unchanged),
// and unlike every other operand position, an array operand does not
// decay — sizeof an array reports the array's own size.
func (p *Parser) parseSizeof() (ast.Expr, error) {
	loc := p.next().Pos // 'sizeof'
	if p.peek().IsPunct("(") && p.startsTypeName(p.peekN(1)) {
		p.next() // '('
		target, err := p.parseTypeSpecifier()
		if err != nil {
			return nil, err
		}
		target, err = p.parseAbstractDeclaratorSuffix(target)
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return &ast.SizeofTypeExpr{Base: ast.NewBase(loc, types.IntType, false), Target: target}, nil
	}
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.SizeofExpr{Base: ast.NewBase(loc, types.IntType, false), Operand: operand}, nil
}

func (p *Parser) startsTypeName(t token.Token) bool {
	return t.IsKeyword("int") || t.IsKeyword("char") || t.IsKeyword("struct") || t.IsKeyword("union")
}

// parseAbstractDeclaratorSuffix parses the pointer/array suffix of a
// type-name with no identifier, e.g. the `[3][2]` in `sizeof(int[3][2])`.
func (p *Parser) parseAbstractDeclaratorSuffix(base *types.Type) (*types.Type, error) {
	t := base
	for p.peek().IsPunct("*") {
		p.next()
		t = types.NewPointer(t)
	}
	for p.peek().IsPunct("[") {
		p.next()
		lenTok := p.peek()
		v, err := p.parseConstIntExpr()
		if err != nil {
			return nil, err
		}
		if v <= 0 {
			return nil, diag.At(lenTok, "array length must be positive")
		}
		if _, err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		t = types.NewArray(t, int(v))
	}
	return t, nil
}

// ---- postfix ----

func (p *Parser) parsePostfix() (ast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.peek().IsPunct("["):
			loc := p.next().Pos
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			e, err = p.buildIndex(loc, e, idx)
			if err != nil {
				return nil, err
			}

		case p.peek().IsPunct("."):
			p.next()
			nameTok, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			e, err = p.buildMember(nameTok, e)
			if err != nil {
				return nil, err
			}

		case p.peek().IsPunct("->"):
			p.next()
			nameTok, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			e, err = p.buildArrow(nameTok, e)
			if err != nil {
				return nil, err
			}

		case p.peek().IsPunct("("):
			ce, ok := e.(*ast.Ident)
			if !ok {
				return nil, diag.At(p.peek(), "called expression is not a function")
			}
			e, err = p.parseCall(ce)
			if err != nil {
				return nil, err
			}

		default:
			return e, nil
		}
	}
}

// buildIndex implements spec §4.3's `a[b] ≡ *(a+b)` together with its
// commutativity: whichever operand is pointer-or-array-typed is the
// base, the other is the integer offset, so `i[p]` and `p[i]` both work.
func (p *Parser) buildIndex(loc token.Position, a, b ast.Expr) (ast.Expr, error) {
	da, db := decay(a), decay(b)
	switch {
	case da.Type().Kind == types.Pointer && isIntLike(db.Type()):
		return p.indexOf(loc, da, db), nil
	case isIntLike(da.Type()) && db.Type().Kind == types.Pointer:
		return p.indexOf(loc, db, da), nil
	default:
		return nil, diag.Errorf(loc, "invalid operands to subscript: %s and %s", a.Type(), b.Type())
	}
}

func (p *Parser) indexOf(loc token.Position, base, index ast.Expr) ast.Expr {
	elem := base.Type().Elem
	return &ast.IndexExpr{Base: ast.NewBase(loc, elem, true), Array: base, Index: index}
}

func (p *Parser) buildMember(nameTok token.Token, obj ast.Expr) (ast.Expr, error) {
	t := obj.Type()
	if !t.IsAggregate() {
		return nil, diag.At(nameTok, "member access into non-aggregate type %s", t)
	}
	f := t.Field(nameTok.Lexeme)
	if f == nil {
		return nil, diag.At(nameTok, "type %s has no member %q", t, nameTok.Lexeme)
	}
	return &ast.MemberExpr{Base: ast.NewBase(nameTok.Pos, f.Type, obj.IsLValue()), Object: obj, Field: nameTok.Lexeme}, nil
}

// buildArrow is `p->f`, spec-defined as `(*p).f`.
func (p *Parser) buildArrow(nameTok token.Token, obj ast.Expr) (ast.Expr, error) {
	obj = decay(obj)
	t := obj.Type()
	if t.Kind != types.Pointer {
		return nil, diag.At(nameTok, "arrow operator on non-pointer type %s", t)
	}
	agg := t.Elem
	if !agg.IsAggregate() {
		return nil, diag.At(nameTok, "member access into non-aggregate type %s", agg)
	}
	f := agg.Field(nameTok.Lexeme)
	if f == nil {
		return nil, diag.At(nameTok, "type %s has no member %q", agg, nameTok.Lexeme)
	}
	return &ast.ArrowExpr{Base: ast.NewBase(nameTok.Pos, f.Type, true), Object: obj, Field: nameTok.Lexeme}, nil
}

// parseCall parses the argument list following a resolved callee
// identifier. An undeclared callee is accepted as an implicit,
// externally defined function returning int (spec §6: printf/exit and
// the corpus's externally linked helpers are never declared in the
// translation unit).
func (p *Parser) parseCall(callee *ast.Ident) (ast.Expr, error) {
	loc := p.next().Pos // '('
	var args []ast.Expr
	for !p.peek().IsPunct(")") {
		a, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		args = append(args, decay(a))
		if p.peek().IsPunct(",") {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if len(args) > 6 {
		return nil, diag.Errorf(loc, "too many arguments to %q: function calls support at most 6", callee.Name)
	}

	retType := types.IntType
	if fn := p.scope.Lookup(callee.Name); fn != nil && fn.Kind == sym.Func {
		retType = fn.Type
	}
	return &ast.CallExpr{Base: ast.NewBase(loc, retType, false), Callee: callee.Name, Args: args}, nil
}

// ---- primary ----

func (p *Parser) parsePrimary() (ast.Expr, error) {
	t := p.peek()
	switch {
	case t.Kind == token.Int:
		p.next()
		return &ast.IntLit{Base: ast.NewBase(t.Pos, types.IntType, false), Value: t.IntVal}, nil

	case t.Kind == token.Char:
		p.next()
		return &ast.IntLit{Base: ast.NewBase(t.Pos, types.CharType, false), Value: t.IntVal}, nil

	case t.Kind == token.String:
		p.next()
		strType := types.NewArray(types.CharType, len(t.Bytes))
		return &ast.StringLit{Base: ast.NewBase(t.Pos, strType, true), Bytes: t.Bytes}, nil

	case t.Kind == token.Ident:
		p.next()
		s := p.scope.Lookup(t.Lexeme)
		if s == nil {
			// An undeclared identifier followed by '(' is an implicit
			// function call (spec §6); anywhere else it's an error.
			if p.peek().IsPunct("(") {
				return &ast.Ident{Base: ast.NewBase(t.Pos, types.IntType, false), Name: t.Lexeme, Storage: ast.StorageGlobal}, nil
			}
			return nil, diag.At(t, "undeclared identifier %q", t.Lexeme)
		}
		return &ast.Ident{
			Base:    ast.NewBase(t.Pos, s.Type, s.Kind != sym.Func),
			Name:    t.Lexeme,
			Storage: storageOf(s.Kind),
			Offset:  s.Offset,
		}, nil

	case t.IsPunct("("):
		p.next()
		if p.peek().IsPunct("{") {
			return p.parseBlockExpr(t.Pos)
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil

	default:
		return nil, diag.At(t, "expected an expression, got %q", t.Lexeme)
	}
}

// parseBlockExpr parses the `({ stmts...; expr; })` GNU-style block
// expression (spec §4.3/§4.6): its value and type are those of its
// final expression statement.
func (p *Parser) parseBlockExpr(loc token.Position) (ast.Expr, error) {
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
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}

	var value ast.Expr
	var typ *types.Type = types.IntType
	lvalue := false
	if n := len(stmts); n > 0 {
		if last, ok := stmts[n-1].(*ast.ExprStmt); ok && last.X != nil {
			value = last.X
			typ = value.Type()
			lvalue = value.IsLValue()
			stmts = stmts[:n-1]
		}
	}
	return &ast.BlockExpr{Base: ast.NewBase(loc, typ, lvalue), Stmts: stmts, Value: value}, nil
}
