// Package types implements the type engine (spec §3, §4.4): the type
// vocabulary, size/alignment computation, and struct/union field layout.
// Every numeric width decision here is fixed by the source language —
// there is no target-dependent configuration the way a real C compiler
// would have.
package types

import "fmt"

// Kind identifies the shape of a Type.
type Kind int

const (
	Invalid Kind = iota
	Char         // signed 8-bit
	Int          // signed 64-bit
	Pointer      // pointer to Elem
	Array        // Len elements of Elem
	Record       // struct: fields at distinct offsets
	Union        // tagged variant: fields all share offset 0
)

func (k Kind) String() string {
	switch k {
	case Char:
		return "char"
	case Int:
		return "int"
	case Pointer:
		return "pointer"
	case Array:
		return "array"
	case Record:
		return "record"
	case Union:
		return "union"
	default:
		return "invalid"
	}
}

// Field is one member of a Record or Union.
type Field struct {
	Name   string
	Type   *Type
	Offset int // always 0 for Union members
}

// Type is the compiler's single type representation, shared by the
// parser's declarator machinery, the initializer engine, and codegen.
type Type struct {
	Kind   Kind
	Elem   *Type   // Pointer, Array
	Len    int     // Array: element count; 0 means incomplete ("T x[]")
	Fields []Field // Record, Union
	Tag    string  // Record, Union: the struct/union tag name, "" if anonymous
}

var (
	CharType = &Type{Kind: Char}
	IntType  = &Type{Kind: Int}
)

// NewPointer builds a pointer-to-elem type.
func NewPointer(elem *Type) *Type {
	return &Type{Kind: Pointer, Elem: elem}
}

// NewArray builds a len-element array-of-elem type. len may be 0 for an
// incomplete array later completed by a brace initializer (spec §4.3).
func NewArray(elem *Type, length int) *Type {
	return &Type{Kind: Array, Elem: elem, Len: length}
}

// NewRecord builds a struct type, computing each field's offset in
// declaration order and padding the overall size up to the type's own
// alignment, same as a System-V struct layout.
func NewRecord(tag string, fields []Field) *Type {
	laidOut := make([]Field, len(fields))
	offset := 0
	align := 1
	for i, f := range fields {
		a := f.Type.Align()
		if a > align {
			align = a
		}
		offset = alignUp(offset, a)
		laidOut[i] = Field{Name: f.Name, Type: f.Type, Offset: offset}
		offset += f.Type.Size()
	}
	_ = alignUp(offset, align) // total size is recovered via Size(), not stored
	return &Type{Kind: Record, Tag: tag, Fields: laidOut}
}

// NewUnion builds a union type: every member sits at offset 0 (spec §3's
// tagged-variant-union rule), and the union's size is its widest
// member's size rounded up to the union's alignment.
func NewUnion(tag string, fields []Field) *Type {
	laidOut := make([]Field, len(fields))
	for i, f := range fields {
		laidOut[i] = Field{Name: f.Name, Type: f.Type, Offset: 0}
	}
	return &Type{Kind: Union, Tag: tag, Fields: laidOut}
}

func alignUp(offset, align int) int {
	if align <= 1 {
		return offset
	}
	rem := offset % align
	if rem == 0 {
		return offset
	}
	return offset + (align - rem)
}

// Size returns the type's size in bytes.
func (t *Type) Size() int {
	if t == nil {
		return 0
	}
	switch t.Kind {
	case Char:
		return 1
	case Int, Pointer:
		return 8
	case Array:
		return t.Elem.Size() * t.Len
	case Record:
		size := 0
		for _, f := range t.Fields {
			end := f.Offset + f.Type.Size()
			if end > size {
				size = end
			}
		}
		return alignUp(size, t.Align())
	case Union:
		size := 0
		for _, f := range t.Fields {
			if s := f.Type.Size(); s > size {
				size = s
			}
		}
		return alignUp(size, t.Align())
	default:
		return 0
	}
}

// Align returns the type's alignment requirement in bytes.
func (t *Type) Align() int {
	if t == nil {
		return 1
	}
	switch t.Kind {
	case Char:
		return 1
	case Int, Pointer:
		return 8
	case Array:
		return t.Elem.Align()
	case Record, Union:
		align := 1
		for _, f := range t.Fields {
			if a := f.Type.Align(); a > align {
				align = a
			}
		}
		return align
	default:
		return 1
	}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case Char, Int:
		return t.Kind.String()
	case Pointer:
		return "*" + t.Elem.String()
	case Array:
		return fmt.Sprintf("%s[%d]", t.Elem.String(), t.Len)
	case Record:
		return "struct " + t.Tag
	case Union:
		return "union " + t.Tag
	default:
		return "<invalid>"
	}
}

// IsScalar reports whether values of this type fit in the single
// accumulator register (spec §4.5): char, int and pointer. Arrays,
// records and unions are not scalar.
func (t *Type) IsScalar() bool {
	return t != nil && (t.Kind == Char || t.Kind == Int || t.Kind == Pointer)
}

// IsAggregate reports whether this type is copied byte-for-byte rather
// than loaded into the accumulator.
func (t *Type) IsAggregate() bool {
	return t != nil && (t.Kind == Record || t.Kind == Union)
}

// Decay returns the type an expression of type t assumes when used as an
// rvalue: an array decays to a pointer to its element type (spec §4.3's
// array/pointer duality); every other type is unchanged. Only the
// address-of and sizeof operators see the undecayed array type.
func (t *Type) Decay() *Type {
	if t != nil && t.Kind == Array {
		return NewPointer(t.Elem)
	}
	return t
}

// Equal reports structural equality. Record and Union types compare by
// tag only, matching the source language's nominal (tag-based) typing
// for aggregates — two distinct tags are never equal even with
// identical field lists.
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case Char, Int:
		return true
	case Pointer:
		return t.Elem.Equal(other.Elem)
	case Array:
		return t.Len == other.Len && t.Elem.Equal(other.Elem)
	case Record, Union:
		return t.Tag == other.Tag
	default:
		return false
	}
}

// Field looks up a member by name, returning nil if absent.
func (t *Type) Field(name string) *Field {
	if t == nil {
		return nil
	}
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}
	return nil
}
