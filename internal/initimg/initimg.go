// Package initimg implements the initializer engine (spec §4.3): it
// turns a brace-tree of constant expressions into the flat (offset,
// bytes) image internal/ast.InitImage carries, which is all codegen
// and the parser's zero-initialization default need downstream.
package initimg

import (
	"fmt"

	"github.com/gmofishsauce/subc/internal/ast"
	"github.com/gmofishsauce/subc/internal/types"
)

// Node is one position in a brace initializer tree, before it is
// flattened against a target Type. A Scalar carries a constant value
// already folded by the parser; a Brace carries a nested list (which,
// per spec §4.3, may also be a flat row-major run with braces omitted
// at inner levels).
type Node struct {
	Scalar *ScalarValue
	Brace  []Node
}

// ScalarValue is a fully folded constant: either an integer (for char
// or int targets) or a string literal's decoded bytes (for a char array
// target). There is no pointer-constant form; `&global` cannot appear
// in an initializer.
type ScalarValue struct {
	IntVal  int64
	IsBytes bool
	Bytes   []byte
}

// Build flattens init against target, producing an image of exactly
// target.Size() bytes with every unmentioned byte left at zero —
// bytes not written by any chunk are implicitly zero, matching spec
// §4.3's "missing elements are zero" rule, because the caller
// zero-fills the backing store before applying chunks.
func Build(target *types.Type, init Node) (*ast.InitImage, error) {
	img := &ast.InitImage{Size: target.Size()}
	if err := build(target, init, 0, img); err != nil {
		return nil, err
	}
	return img, nil
}

func build(t *types.Type, n Node, base int, img *ast.InitImage) error {
	// Scalar-brace equivalence: `T x = {v}` is equivalent to `T x = v`
	// for a scalar T (spec §4.3).
	if t.IsScalar() && len(n.Brace) == 1 && n.Brace[0].Scalar != nil {
		n = n.Brace[0]
	}

	switch {
	case n.Scalar != nil:
		return buildScalar(t, *n.Scalar, base, img)

	case t.Kind == types.Array:
		return buildArray(t, n.Brace, base, img)

	case t.Kind == types.Record:
		return buildRecord(t, n.Brace, base, img)

	case t.Kind == types.Union:
		return buildUnion(t, n.Brace, base, img)

	default:
		return fmt.Errorf("cannot initialize scalar type %s from a brace list", t)
	}
}

func buildScalar(t *types.Type, v ScalarValue, base int, img *ast.InitImage) error {
	if v.IsBytes {
		if t.Kind != types.Array || t.Elem.Kind != types.Char {
			return fmt.Errorf("string initializer requires a char array target, got %s", t)
		}
		return copyStringInto(t, v.Bytes, base, img)
	}
	size := t.Size()
	buf := make([]byte, size)
	encodeInt(buf, v.IntVal)
	img.Chunk = append(img.Chunk, ast.InitChunk{Offset: base, Bytes: buf})
	return nil
}

func encodeInt(buf []byte, v int64) {
	for i := range buf {
		buf[i] = byte(v >> (8 * uint(i)))
	}
}

// copyStringInto implements the `char arr[N] = "literal"` rule: decoded
// bytes (trailing zero included) are copied, truncated or zero-padded
// to N.
func copyStringInto(t *types.Type, bytes []byte, base int, img *ast.InitImage) error {
	n := t.Len
	if n == 0 {
		n = len(bytes)
	}
	copied := bytes
	if len(copied) > n {
		copied = copied[:n]
	}
	img.Chunk = append(img.Chunk, ast.InitChunk{Offset: base, Bytes: append([]byte(nil), copied...)})
	return nil
}

// buildArray handles both fully braced element lists and the flat
// row-major form the corpus exercises for multidimensional arrays
// (spec §4.3's `int g6[4][3][2] = 1,0,0,...` case): when the list is
// all bare scalars and either the elements are themselves arrays or the
// list is longer than the element count, the scalars are consumed flat
// against the element's own sub-structure (see needsFlatten).
func buildArray(t *types.Type, elems []Node, base int, img *ast.InitImage) error {
	// A single string-literal scalar initializing a char array is
	// handled by buildScalar via the caller; here we only see brace
	// lists or flat scalar runs.
	if allScalar(elems) && needsFlatten(t, elems) {
		return buildArrayFlat(t, elems, base, img)
	}
	if len(elems) > t.Len && t.Len != 0 {
		return fmt.Errorf("excess initializers for array of length %d", t.Len)
	}
	for i, e := range elems {
		if err := build(t.Elem, e, base+i*t.Elem.Size(), img); err != nil {
			return err
		}
	}
	return nil
}

// needsFlatten reports whether a run of bare scalars against t must be
// packed across more than one dimension of t: either it already
// overflows t's own length, or t's element type is itself an array, in
// which case the scalars are shallower than t's declared dimensionality
// and must be distributed row-major into the element's own leaf slots
// (spec §4.3's third initializer form) rather than one scalar per
// element.
func needsFlatten(t *types.Type, elems []Node) bool {
	if t.Elem.Kind == types.Array {
		return true
	}
	return t.Len != 0 && len(elems) > t.Len
}

func allScalar(elems []Node) bool {
	if len(elems) == 0 {
		return false
	}
	for _, e := range elems {
		if e.Scalar == nil {
			return false
		}
	}
	return true
}

// buildArrayFlat consumes a flat scalar run against nested array
// dimensions without requiring inner braces, spec §4.3's third
// initializer form.
func buildArrayFlat(t *types.Type, flat []Node, base int, img *ast.InitImage) error {
	total := t.Len
	elemSize := t.Elem.Size()
	leafSize := leafScalarSize(t.Elem)
	count := (elemSize / leafSize)
	needed := total * count
	if len(flat) > needed {
		return fmt.Errorf("excess initializers for array of length %d", total)
	}
	i := 0
	for idx := 0; idx < total; idx++ {
		for j := 0; j < count && i < len(flat); j++ {
			leafType := leafScalarType(t.Elem)
			if err := buildScalar(leafType, *flat[i].Scalar, base+idx*elemSize+j*leafSize, img); err != nil {
				return err
			}
			i++
		}
	}
	return nil
}

func leafScalarSize(t *types.Type) int {
	for t.Kind == types.Array {
		t = t.Elem
	}
	return t.Size()
}

func leafScalarType(t *types.Type) *types.Type {
	for t.Kind == types.Array {
		t = t.Elem
	}
	return t
}

func buildRecord(t *types.Type, fields []Node, base int, img *ast.InitImage) error {
	if len(fields) > len(t.Fields) {
		return fmt.Errorf("excess initializers for struct %s", t.Tag)
	}
	for i, f := range fields {
		field := t.Fields[i]
		if err := build(field.Type, f, base+field.Offset, img); err != nil {
			return err
		}
	}
	return nil
}

func buildUnion(t *types.Type, fields []Node, base int, img *ast.InitImage) error {
	if len(fields) == 0 {
		return nil
	}
	if len(fields) > 1 {
		return fmt.Errorf("union %s initializer must supply at most one field", t.Tag)
	}
	return build(t.Fields[0].Type, fields[0], base, img)
}
