package initimg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmofishsauce/subc/internal/initimg"
	"github.com/gmofishsauce/subc/internal/types"
)

func scalar(v int64) initimg.Node {
	return initimg.Node{Scalar: &initimg.ScalarValue{IntVal: v}}
}

func TestBuildScalarEquivalenceToBraceOfOne(t *testing.T) {
	img, err := initimg.Build(types.IntType, initimg.Node{Brace: []initimg.Node{scalar(42)}})
	require.NoError(t, err)
	require.Len(t, img.Chunk, 1)
	assert.Equal(t, 0, img.Chunk[0].Offset)
	assert.Equal(t, int64(42), decodeInt(img.Chunk[0].Bytes))
}

func TestBuildArrayMissingElementsStayZero(t *testing.T) {
	arr := types.NewArray(types.IntType, 3)
	img, err := initimg.Build(arr, initimg.Node{Brace: []initimg.Node{scalar(1), scalar(2)}})
	require.NoError(t, err)
	require.Len(t, img.Chunk, 2) // only the two supplied elements get chunks
	assert.Equal(t, 24, img.Size)
	assert.Equal(t, 0, img.Chunk[0].Offset)
	assert.Equal(t, 8, img.Chunk[1].Offset)
}

func TestBuildArrayExcessInitializersError(t *testing.T) {
	arr := types.NewArray(types.IntType, 2)
	_, err := initimg.Build(arr, initimg.Node{Brace: []initimg.Node{scalar(1), scalar(2), scalar(3)}})
	assert.Error(t, err)
}

func TestBuildFlatRowMajorMultidimensionalArray(t *testing.T) {
	// int g[2][2] = {1,2,3,4} without inner braces (spec §4.3's flat form).
	inner := types.NewArray(types.IntType, 2)
	outer := types.NewArray(inner, 2)
	img, err := initimg.Build(outer, initimg.Node{Brace: []initimg.Node{scalar(1), scalar(2), scalar(3), scalar(4)}})
	require.NoError(t, err)
	require.Len(t, img.Chunk, 4)
	assert.Equal(t, 0, img.Chunk[0].Offset)
	assert.Equal(t, 8, img.Chunk[1].Offset)
	assert.Equal(t, 16, img.Chunk[2].Offset)
	assert.Equal(t, 24, img.Chunk[3].Offset)
	assert.Equal(t, int64(4), decodeInt(img.Chunk[3].Bytes))
}

func TestBuildPartiallyNestedArrayPacksIntoLeafSlots(t *testing.T) {
	// int g5[4][3][2] = {{1}, {2,3}, {4,5,6}} (spec §8 scenario 3): each
	// outer brace is one row short of g5's full three-dimensional depth,
	// so its scalars must pack row-major into the [3][2] plane's own
	// leaf slots rather than scattering one per row.
	leaf := types.NewArray(types.IntType, 2)
	mid := types.NewArray(leaf, 3)
	outer := types.NewArray(mid, 4)

	n := initimg.Node{Brace: []initimg.Node{
		{Brace: []initimg.Node{scalar(1)}},
		{Brace: []initimg.Node{scalar(2), scalar(3)}},
		{Brace: []initimg.Node{scalar(4), scalar(5), scalar(6)}},
	}}
	img, err := initimg.Build(outer, n)
	require.NoError(t, err)
	assert.Equal(t, 4*3*2*8, img.Size)

	byOffset := map[int]int64{}
	for _, c := range img.Chunk {
		byOffset[c.Offset] = decodeInt(c.Bytes)
	}
	planeSize, rowSize := 48, 16
	assert.Equal(t, int64(1), byOffset[0*planeSize+0*rowSize+0]) // g5[0][0][0]
	assert.Equal(t, int64(2), byOffset[1*planeSize+0*rowSize+0]) // g5[1][0][0]
	assert.Equal(t, int64(3), byOffset[1*planeSize+0*rowSize+8]) // g5[1][0][1]
	assert.Equal(t, int64(4), byOffset[2*planeSize+0*rowSize+0]) // g5[2][0][0]
	assert.Equal(t, int64(5), byOffset[2*planeSize+0*rowSize+8]) // g5[2][0][1]
	assert.Equal(t, int64(6), byOffset[2*planeSize+1*rowSize+0]) // g5[2][1][0]
}

func TestBuildStringIntoCharArrayCopiesTrailingZero(t *testing.T) {
	arr := types.NewArray(types.CharType, 3)
	img, err := initimg.Build(arr, initimg.Node{Scalar: &initimg.ScalarValue{IsBytes: true, Bytes: []byte("ab\x00")}})
	require.NoError(t, err)
	require.Len(t, img.Chunk, 1)
	assert.Equal(t, []byte("ab\x00"), img.Chunk[0].Bytes)
}

func TestBuildRecordFieldsAtTheirOwnOffsets(t *testing.T) {
	rec := types.NewRecord("p", []types.Field{
		{Name: "x", Type: types.CharType},
		{Name: "y", Type: types.IntType},
	})
	img, err := initimg.Build(rec, initimg.Node{Brace: []initimg.Node{scalar(5), scalar(9)}})
	require.NoError(t, err)
	require.Len(t, img.Chunk, 2)
	assert.Equal(t, 0, img.Chunk[0].Offset)
	assert.Equal(t, 8, img.Chunk[1].Offset) // field y padded to int alignment
}

func TestBuildUnionAcceptsAtMostOneFieldAtOffsetZero(t *testing.T) {
	u := types.NewUnion("v", []types.Field{
		{Name: "n", Type: types.IntType},
		{Name: "c", Type: types.CharType},
	})
	img, err := initimg.Build(u, initimg.Node{Brace: []initimg.Node{scalar(7)}})
	require.NoError(t, err)
	require.Len(t, img.Chunk, 1)
	assert.Equal(t, 0, img.Chunk[0].Offset)

	_, err = initimg.Build(u, initimg.Node{Brace: []initimg.Node{scalar(1), scalar(2)}})
	assert.Error(t, err)
}

func decodeInt(b []byte) int64 {
	var v int64
	for i, c := range b {
		v |= int64(c) << (8 * uint(i))
	}
	return v
}
