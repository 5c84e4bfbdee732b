package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmofishsauce/subc/internal/ast"
	"github.com/gmofishsauce/subc/internal/cpp"
	"github.com/gmofishsauce/subc/internal/parser"
	"github.com/gmofishsauce/subc/internal/types"
)

func parse(t *testing.T, src string) *parser.Unit {
	t.Helper()
	toks, err := cpp.Process("t.c", []byte(src), func(string) ([]byte, error) {
		t.Fatal("unexpected include")
		return nil, nil
	})
	require.NoError(t, err)
	unit, err := parser.Parse(toks)
	require.NoError(t, err)
	return unit
}

func TestParseGlobalVariable(t *testing.T) {
	unit := parse(t, "int counter = 5;")
	require.Len(t, unit.Globals, 1)
	g := unit.Globals[0]
	assert.Equal(t, "counter", g.Name)
	assert.True(t, types.IntType.Equal(g.Typ))
	require.NotNil(t, g.Init)
	require.Len(t, g.Init.Chunk, 1)
}

func TestParseFunctionParamOffsetsAreDistinctAndAligned(t *testing.T) {
	unit := parse(t, "int add(int a, int b) { return a + b; }")
	require.Len(t, unit.Funcs, 1)
	fn := unit.Funcs[0]
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.ParamOffsets, 2)
	assert.NotEqual(t, fn.ParamOffsets[0], fn.ParamOffsets[1])
	for _, off := range fn.ParamOffsets {
		assert.True(t, off < 0, "parameter slots grow downward from the frame pointer")
	}
	assert.Equal(t, 0, fn.FrameSize%16, "frame size is 16-byte aligned")
}

func TestParseReturnStatementWiresBinaryExpr(t *testing.T) {
	unit := parse(t, "int add(int a, int b) { return a + b; }")
	fn := unit.Funcs[0]
	require.Len(t, fn.Body.Stmts, 1)
	ret, ok := fn.Body.Stmts[0].(*ast.ReturnStmt)
	require.True(t, ok)
	bin, ok := ret.Value.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, bin.Op)
}

func TestLocalArrayLengthInferredFromBraceInit(t *testing.T) {
	unit := parse(t, "int f() { int xs[] = {1, 2, 3}; return xs[0]; }")
	fn := unit.Funcs[0]
	init, ok := fn.Body.Stmts[0].(*ast.LocalInitStmt)
	require.True(t, ok)
	assert.Equal(t, 24, init.Size, "3 ints at 8 bytes each")
	require.NotNil(t, init.Image)
	assert.Equal(t, 24, init.Image.Size)
}

func TestLocalArrayInferredSizeDoesNotOverlapNextLocal(t *testing.T) {
	// Regression test: the array's frame slot must be allocated only
	// after its length is inferred from the initializer, or a
	// subsequently declared local would overlap its storage.
	unit := parse(t, `int f() {
		int xs[] = {1, 2, 3};
		int y;
		return y;
	}`)
	fn := unit.Funcs[0]
	require.Len(t, fn.Body.Stmts, 2)
	xsInit := fn.Body.Stmts[0].(*ast.LocalInitStmt)
	yInit := fn.Body.Stmts[1].(*ast.LocalInitStmt)

	// xs spans [xsInit.Offset, xsInit.Offset+24); y must fall entirely
	// outside that range.
	assert.False(t, yInit.Offset < xsInit.Offset+xsInit.Size && yInit.Offset >= xsInit.Offset,
		"y's slot at %d overlaps xs's [%d, %d)", yInit.Offset, xsInit.Offset, xsInit.Offset+xsInit.Size)
}

func TestScalarAssignmentIsNotAnLvalue(t *testing.T) {
	unit := parse(t, "int f() { int x; int y; return (x = y); }")
	fn := unit.Funcs[0]
	ret := fn.Body.Stmts[2].(*ast.ReturnStmt)
	assign, ok := ret.Value.(*ast.AssignExpr)
	require.True(t, ok)
	assert.False(t, assign.IsLValue(), "scalar assignment must be an rvalue")
}

func TestChainedAggregateAssignmentIsLvalue(t *testing.T) {
	unit := parse(t, `struct p { int x; };
	int f() {
		struct p a;
		struct p b;
		struct p c;
		c = b = a;
		return 0;
	}`)
	fn := unit.Funcs[0]
	exprStmt := fn.Body.Stmts[3].(*ast.ExprStmt)
	outer, ok := exprStmt.X.(*ast.AssignExpr)
	require.True(t, ok)
	assert.True(t, outer.IsLValue(), "aggregate assignment chains because it yields an lvalue")
	inner, ok := outer.RHS.(*ast.AssignExpr)
	require.True(t, ok)
	assert.True(t, inner.IsLValue())
}

func TestIdentStorageResolvedForGlobalLocalAndParam(t *testing.T) {
	unit := parse(t, `int g;
	int f(int p) {
		int loc;
		g = p;
		loc = p;
		return g + loc;
	}`)
	fn := unit.Funcs[0]
	assignG := fn.Body.Stmts[1].(*ast.ExprStmt).X.(*ast.AssignExpr)
	gIdent := assignG.LHS.(*ast.Ident)
	assert.Equal(t, ast.StorageGlobal, gIdent.Storage)
	pIdent := assignG.RHS.(*ast.Ident)
	assert.Equal(t, ast.StorageParam, pIdent.Storage)

	assignLoc := fn.Body.Stmts[2].(*ast.ExprStmt).X.(*ast.AssignExpr)
	locIdent := assignLoc.LHS.(*ast.Ident)
	assert.Equal(t, ast.StorageLocal, locIdent.Storage)
}

func TestStructTagForwardReferenceResolves(t *testing.T) {
	unit := parse(t, `struct node { struct node *next; int val; };
	int f() { struct node n; return n.val; }`)
	require.Len(t, unit.Funcs, 1)
}

func TestUnionVariantFieldsShareOffsetZero(t *testing.T) {
	unit := parse(t, `union v { int n; char c; };
	int f() { union v u; u.n = 5; return u.c; }`)
	require.Len(t, unit.Funcs, 1)
	ret := unit.Funcs[0].Body.Stmts[2].(*ast.ReturnStmt)
	member := ret.Value.(*ast.MemberExpr)
	ut := member.Object.Type()
	assert.Equal(t, 0, ut.Field("n").Offset)
	assert.Equal(t, 0, ut.Field("c").Offset)
}

func TestIndexCommutativityProducesSameNodeShape(t *testing.T) {
	src1 := "int f(int *a) { return a[0]; }"
	src2 := "int f(int *a) { return 0[a]; }"
	u1 := parse(t, src1)
	u2 := parse(t, src2)
	r1 := u1.Funcs[0].Body.Stmts[0].(*ast.ReturnStmt).Value
	r2 := u2.Funcs[0].Body.Stmts[0].(*ast.ReturnStmt).Value
	_, ok1 := r1.(*ast.IndexExpr)
	_, ok2 := r2.(*ast.IndexExpr)
	assert.True(t, ok1)
	assert.True(t, ok2)
}

func TestKAndRImplicitIntForUndeclaredCallee(t *testing.T) {
	unit := parse(t, "int f() { return undeclared_fn(1, 2); }")
	ret := unit.Funcs[0].Body.Stmts[0].(*ast.ReturnStmt)
	call, ok := ret.Value.(*ast.CallExpr)
	require.True(t, ok)
	assert.Equal(t, "undeclared_fn", call.Callee)
	assert.True(t, types.IntType.Equal(call.Type()))
}
