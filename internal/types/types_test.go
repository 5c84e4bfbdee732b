package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmofishsauce/subc/internal/types"
)

func TestScalarSizesAndAlign(t *testing.T) {
	assert.Equal(t, 1, types.CharType.Size())
	assert.Equal(t, 1, types.CharType.Align())
	assert.Equal(t, 8, types.IntType.Size())
	assert.Equal(t, 8, types.IntType.Align())

	ptr := types.NewPointer(types.CharType)
	assert.Equal(t, 8, ptr.Size())
	assert.Equal(t, 8, ptr.Align())
}

func TestArraySizeIsLenTimesElem(t *testing.T) {
	arr := types.NewArray(types.IntType, 10)
	require.Equal(t, 80, arr.Size())

	nested := types.NewArray(types.NewArray(types.CharType, 4), 3)
	require.Equal(t, 12, nested.Size())
}

func TestRecordFieldOffsetsAreMonotoneAndAligned(t *testing.T) {
	// struct { char c; int n; char d; }
	rec := types.NewRecord("point", []types.Field{
		{Name: "c", Type: types.CharType},
		{Name: "n", Type: types.IntType},
		{Name: "d", Type: types.CharType},
	})

	fc := rec.Field("c")
	fn := rec.Field("n")
	fd := rec.Field("d")
	require.NotNil(t, fc)
	require.NotNil(t, fn)
	require.NotNil(t, fd)

	assert.Equal(t, 0, fc.Offset)
	assert.Equal(t, 8, fn.Offset) // padded up to int's 8-byte alignment
	assert.Equal(t, 16, fd.Offset)
	assert.True(t, fc.Offset < fn.Offset)
	assert.True(t, fn.Offset < fd.Offset)

	// overall size is padded up to the record's own (widest member's) alignment
	assert.Equal(t, 24, rec.Size())
}

func TestUnionMembersShareOffsetZeroSizeIsWidest(t *testing.T) {
	u := types.NewUnion("v", []types.Field{
		{Name: "c", Type: types.CharType},
		{Name: "n", Type: types.IntType},
	})
	assert.Equal(t, 0, u.Field("c").Offset)
	assert.Equal(t, 0, u.Field("n").Offset)
	assert.Equal(t, 8, u.Size())
}

func TestDecayArrayToPointer(t *testing.T) {
	arr := types.NewArray(types.IntType, 5)
	decayed := arr.Decay()
	require.Equal(t, types.Pointer, decayed.Kind)
	assert.True(t, decayed.Elem.Equal(types.IntType))

	// non-array types are unaffected
	assert.True(t, types.IntType.Decay().Equal(types.IntType))
}

func TestEqualityIsStructuralForScalarsNominalForAggregates(t *testing.T) {
	assert.True(t, types.NewPointer(types.CharType).Equal(types.NewPointer(types.CharType)))
	assert.False(t, types.NewPointer(types.CharType).Equal(types.NewPointer(types.IntType)))

	a := types.NewRecord("point", []types.Field{{Name: "x", Type: types.IntType}})
	b := types.NewRecord("point", []types.Field{{Name: "x", Type: types.CharType}})
	// same tag, different field lists: still equal since aggregate equality is tag-only
	assert.True(t, a.Equal(b))

	c := types.NewRecord("other", []types.Field{{Name: "x", Type: types.IntType}})
	assert.False(t, a.Equal(c))
}

func TestIsScalarIsAggregate(t *testing.T) {
	assert.True(t, types.IntType.IsScalar())
	assert.True(t, types.CharType.IsScalar())
	assert.True(t, types.NewPointer(types.IntType).IsScalar())
	assert.False(t, types.NewArray(types.IntType, 2).IsScalar())

	rec := types.NewRecord("r", nil)
	assert.True(t, rec.IsAggregate())
	assert.False(t, rec.IsScalar())
}

func TestNilTypeIsSafe(t *testing.T) {
	var nilType *types.Type
	assert.Equal(t, 0, nilType.Size())
	assert.Equal(t, 1, nilType.Align())
	assert.Equal(t, "<nil>", nilType.String())
	assert.False(t, nilType.IsScalar())
	assert.False(t, nilType.IsAggregate())
	assert.Nil(t, nilType.Field("x"))
}
