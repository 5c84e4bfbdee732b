package sym_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmofishsauce/subc/internal/sym"
	"github.com/gmofishsauce/subc/internal/types"
)

func TestDeclareAndLookupAcrossScopes(t *testing.T) {
	s := sym.NewScope()
	require.NoError(t, s.Declare(&sym.Symbol{Name: "g", Kind: sym.GlobalVar, Type: types.IntType}))

	s.Push()
	require.NoError(t, s.Declare(&sym.Symbol{Name: "x", Kind: sym.LocalVar, Type: types.CharType}))

	assert.NotNil(t, s.Lookup("g"), "outer-scope identifier visible from inner block")
	assert.NotNil(t, s.Lookup("x"))

	s.Pop()
	assert.Nil(t, s.Lookup("x"), "inner-block identifier must not survive Pop")
	assert.NotNil(t, s.Lookup("g"))
}

func TestShadowingAllowedRedeclarationInSameFrameRejected(t *testing.T) {
	s := sym.NewScope()
	require.NoError(t, s.Declare(&sym.Symbol{Name: "x", Kind: sym.GlobalVar, Type: types.IntType}))
	require.Error(t, s.Declare(&sym.Symbol{Name: "x", Kind: sym.GlobalVar, Type: types.CharType}))

	s.Push()
	// shadowing the outer "x" in a new frame is legal
	require.NoError(t, s.Declare(&sym.Symbol{Name: "x", Kind: sym.LocalVar, Type: types.CharType}))
	inner := s.Lookup("x")
	require.NotNil(t, inner)
	assert.Equal(t, sym.LocalVar, inner.Kind)
}

func TestLookupLocalIgnoresOuterFrames(t *testing.T) {
	s := sym.NewScope()
	require.NoError(t, s.Declare(&sym.Symbol{Name: "g", Kind: sym.GlobalVar, Type: types.IntType}))
	s.Push()
	assert.Nil(t, s.LookupLocal("g"))
	assert.NotNil(t, s.Lookup("g"))
}

func TestRecordAndUnionTagNamespacesAreIndependent(t *testing.T) {
	s := sym.NewScope()
	recType := types.NewRecord("point", []types.Field{{Name: "x", Type: types.IntType}})
	unionType := types.NewUnion("point", []types.Field{{Name: "n", Type: types.IntType}})

	s.DeclareRecordTag("point", recType)
	s.DeclareUnionTag("point", unionType)

	gotRec := s.LookupRecordTag("point")
	gotUnion := s.LookupUnionTag("point")
	require.NotNil(t, gotRec)
	require.NotNil(t, gotUnion)
	assert.Equal(t, types.Record, gotRec.Kind)
	assert.Equal(t, types.Union, gotUnion.Kind)
}

func TestTagLookupSearchesOuterFrames(t *testing.T) {
	s := sym.NewScope()
	s.DeclareRecordTag("point", types.NewRecord("point", nil))
	s.Push()
	assert.NotNil(t, s.LookupRecordTag("point"))
	assert.Nil(t, s.LookupUnionTag("point"))
}

func TestDepthTracksPushPop(t *testing.T) {
	s := sym.NewScope()
	assert.Equal(t, 1, s.Depth())
	s.Push()
	assert.Equal(t, 2, s.Depth())
	s.Push()
	assert.Equal(t, 3, s.Depth())
	s.Pop()
	assert.Equal(t, 2, s.Depth())
}
