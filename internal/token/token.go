// Package token defines the lexical token vocabulary shared by the
// scanner, preprocessor shim, and parser.
package token

import "fmt"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	EOF Kind = iota
	Ident
	Int
	Char
	String
	Punct
	Keyword
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Ident:
		return "ident"
	case Int:
		return "int"
	case Char:
		return "char"
	case String:
		return "string"
	case Punct:
		return "punct"
	case Keyword:
		return "keyword"
	default:
		return "?"
	}
}

// Position locates a token in a source file.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Token is one lexical unit. Lexeme always carries the raw source text,
// even for literals whose decoded value is carried separately — the raw
// text is what stringification (the preprocessor shim's "#" operator)
// reproduces.
type Token struct {
	Kind   Kind
	Lexeme string
	Pos    Position

	IntVal int64  // decoded value for Int and Char
	Bytes  []byte // decoded payload for String, trailing zero included
}

// Is reports whether t is a token of the given kind with the given lexeme.
func (t Token) Is(kind Kind, lexeme string) bool {
	return t.Kind == kind && t.Lexeme == lexeme
}

// IsKeyword reports whether t is the keyword kw.
func (t Token) IsKeyword(kw string) bool { return t.Is(Keyword, kw) }

// IsPunct reports whether t is the punctuator p.
func (t Token) IsPunct(p string) bool { return t.Is(Punct, p) }

func (t Token) String() string {
	return fmt.Sprintf("%s: %s %q", t.Pos, t.Kind, t.Lexeme)
}

var Keywords = map[string]bool{
	"int": true, "char": true, "void": true,
	"if": true, "else": true, "for": true, "while": true, "return": true,
	"sizeof": true, "struct": true, "union": true,
}
