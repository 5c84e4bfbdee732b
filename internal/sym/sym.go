// Package sym implements the symbol table (spec §3): a stack of lexical
// scopes for ordinary identifiers, plus an independent tag namespace per
// aggregate kind so that `struct point` and `union point` never collide.
package sym

import (
	"fmt"

	"github.com/gmofishsauce/subc/internal/types"
)

// Kind identifies what an identifier names.
type Kind int

const (
	Invalid Kind = iota
	GlobalVar
	LocalVar
	Param
	Func
)

func (k Kind) String() string {
	switch k {
	case GlobalVar:
		return "global"
	case LocalVar:
		return "local"
	case Param:
		return "param"
	case Func:
		return "func"
	default:
		return "invalid"
	}
}

// Symbol is one declared identifier.
type Symbol struct {
	Name   string
	Kind   Kind
	Type   *types.Type
	Offset int // stack offset for LocalVar/Param; unused for GlobalVar (addressed by name)

	// Func only.
	ParamTypes []*types.Type
	FrameSize  int
}

// tagKind distinguishes the two independent tag namespaces spec §3
// requires: a record tag and a union tag with the same spelling name
// different types.
type tagKind int

const (
	recordTag tagKind = iota
	unionTag
)

type tagKey struct {
	kind tagKind
	name string
}

// frame is one lexical block: a set of ordinary identifiers and a set of
// tags, both visible to inner frames via Scope.Lookup and the
// LookupRecordTag/LookupUnionTag methods but
// invisible to outer ones.
type frame struct {
	idents map[string]*Symbol
	tags   map[tagKey]*types.Type
}

func newFrame() *frame {
	return &frame{idents: make(map[string]*Symbol), tags: make(map[tagKey]*types.Type)}
}

// Scope is a stack of frames: frames[0] is file (global) scope, every
// later frame is a nested block. Parsing a function body or a
// block-expression pushes a frame; leaving it pops one.
type Scope struct {
	frames []*frame
}

// NewScope creates a scope containing only the global frame.
func NewScope() *Scope {
	return &Scope{frames: []*frame{newFrame()}}
}

// Push enters a new nested block.
func (s *Scope) Push() {
	s.frames = append(s.frames, newFrame())
}

// Pop leaves the innermost block.
func (s *Scope) Pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

// Depth reports how many frames are open, 1 meaning file scope only.
func (s *Scope) Depth() int {
	return len(s.frames)
}

func (s *Scope) top() *frame {
	return s.frames[len(s.frames)-1]
}

// Declare adds sym to the innermost frame. It reports an error if the
// name is already declared in that same frame — shadowing an outer
// frame's identifier is allowed, redeclaring within one frame is not.
func (s *Scope) Declare(sym *Symbol) error {
	f := s.top()
	if _, exists := f.idents[sym.Name]; exists {
		return fmt.Errorf("redeclaration of %q in this scope", sym.Name)
	}
	f.idents[sym.Name] = sym
	return nil
}

// Lookup searches from the innermost frame outward.
func (s *Scope) Lookup(name string) *Symbol {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if sym, ok := s.frames[i].idents[name]; ok {
			return sym
		}
	}
	return nil
}

// LookupLocal reports only whether name is declared in the innermost
// frame, ignoring outer frames. (Declare performs its own same-frame
// redeclaration check and does not call it.)
func (s *Scope) LookupLocal(name string) *Symbol {
	return s.top().idents[name]
}

func (s *Scope) declareTag(kind tagKind, name string, t *types.Type) {
	s.top().tags[tagKey{kind: kind, name: name}] = t
}

func (s *Scope) lookupTag(kind tagKind, name string) *types.Type {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if t, ok := s.frames[i].tags[tagKey{kind: kind, name: name}]; ok {
			return t
		}
	}
	return nil
}

// DeclareRecordTag binds name to t as a struct tag in the innermost frame.
func (s *Scope) DeclareRecordTag(name string, t *types.Type) { s.declareTag(recordTag, name, t) }

// LookupRecordTag resolves a struct tag, searching outward.
func (s *Scope) LookupRecordTag(name string) *types.Type { return s.lookupTag(recordTag, name) }

// DeclareUnionTag binds name to t as a union tag in the innermost frame.
func (s *Scope) DeclareUnionTag(name string, t *types.Type) { s.declareTag(unionTag, name, t) }

// LookupUnionTag resolves a union tag, searching outward.
func (s *Scope) LookupUnionTag(name string) *types.Type { return s.lookupTag(unionTag, name) }
