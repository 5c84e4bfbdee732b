// Package cpp implements the preprocessor shim (spec §4.2): textual
// #include substitution and the fixed two-argument, single-stringify
// macro shape `#define NAME(A,B) callee(A,B,#B)`. It is deliberately not
// a general C preprocessor — the source language admits only this one
// macro shape and #include with a literal quoted path.
package cpp

import (
	"github.com/gmofishsauce/subc/internal/diag"
	"github.com/gmofishsauce/subc/internal/lexer"
	"github.com/gmofishsauce/subc/internal/token"
)

// FileReader resolves the contents of an #include path.
type FileReader func(path string) ([]byte, error)

// Process scans file/src and returns the fully expanded token stream:
// every #include substituted in place and every macro invocation
// expanded, ready for the parser.
func Process(file string, src []byte, read FileReader) ([]token.Token, error) {
	toks, err := lexer.Lex(file, src)
	if err != nil {
		return nil, err
	}
	toks, err = expandIncludes(toks, read)
	if err != nil {
		return nil, err
	}
	return expandMacros(toks)
}

func expandIncludes(toks []token.Token, read FileReader) ([]token.Token, error) {
	var out []token.Token
	i := 0
	for i < len(toks) {
		t := toks[i]
		if t.IsPunct("#") && i+2 < len(toks) && toks[i+1].Is(token.Ident, "include") && toks[i+2].Kind == token.String {
			pathTok := toks[i+2]
			path := string(pathTok.Bytes[:len(pathTok.Bytes)-1])
			src, err := read(path)
			if err != nil {
				return nil, diag.At(pathTok, "cannot open include file %q: %v", path, err)
			}
			included, err := lexer.Lex(path, src)
			if err != nil {
				return nil, err
			}
			included, err = expandIncludes(included, read) // nested #include
			if err != nil {
				return nil, err
			}
			// drop the included file's trailing EOF token
			if n := len(included); n > 0 && included[n-1].Kind == token.EOF {
				included = included[:n-1]
			}
			out = append(out, included...)
			i += 3
			continue
		}
		out = append(out, t)
		i++
	}
	return out, nil
}

// macroToken is one position in a macro body template.
type macroToken struct {
	lit        *token.Token // non-nil for a literal passthrough token
	paramIndex int          // valid when lit == nil
	stringify  bool         // true for a "#param" position
}

type macroDef struct {
	name   string
	params []string
	body   []macroToken
}

// tokAt returns toks[j], or the stream's final token (always EOF, since
// lexer.Lex terminates every stream with one) if j runs past the end.
func tokAt(toks []token.Token, j int) token.Token {
	if j >= len(toks) {
		return toks[len(toks)-1]
	}
	return toks[j]
}

func paramIndexOf(params []string, name string) int {
	for i, p := range params {
		if p == name {
			return i
		}
	}
	return -1
}

func expandMacros(toks []token.Token) ([]token.Token, error) {
	defs := map[string]*macroDef{}
	var out []token.Token
	i := 0
	for i < len(toks) {
		t := toks[i]
		if t.IsPunct("#") && i+1 < len(toks) && toks[i+1].Is(token.Ident, "define") {
			def, next, err := parseDefine(toks, i)
			if err != nil {
				return nil, err
			}
			defs[def.name] = def
			i = next
			continue
		}
		if t.Kind == token.Ident {
			if def, ok := defs[t.Lexeme]; ok && i+1 < len(toks) && toks[i+1].IsPunct("(") {
				expanded, next, err := expandCall(def, toks, i)
				if err != nil {
					return nil, err
				}
				out = append(out, expanded...)
				i = next
				continue
			}
		}
		out = append(out, t)
		i++
	}
	return out, nil
}

// parseDefine parses `# define NAME ( P1 , P2 ) CALLEE ( body... )`
// starting at toks[i] (the "#") and returns the index just past the
// body's closing parenthesis.
func parseDefine(toks []token.Token, i int) (*macroDef, int, error) {
	j := i + 2 // skip '#' 'define'
	if j >= len(toks) || toks[j].Kind != token.Ident {
		return nil, 0, diag.At(tokAt(toks, j), "expected macro name after #define")
	}
	name := toks[j].Lexeme
	j++
	if j >= len(toks) || !toks[j].IsPunct("(") {
		return nil, 0, diag.At(tokAt(toks, j), "expected '(' in macro parameter list")
	}
	j++
	var params []string
	for {
		if j >= len(toks) || toks[j].Kind != token.Ident {
			return nil, 0, diag.At(tokAt(toks, j), "expected macro parameter name")
		}
		params = append(params, toks[j].Lexeme)
		j++
		if j < len(toks) && toks[j].IsPunct(",") {
			j++
			continue
		}
		break
	}
	if j >= len(toks) || !toks[j].IsPunct(")") {
		return nil, 0, diag.At(tokAt(toks, j), "expected ')' after macro parameters")
	}
	j++

	// Body: one call expression CALLEE(...), consumed as a balanced
	// parenthesized group.
	if j >= len(toks) || toks[j].Kind != token.Ident {
		return nil, 0, diag.At(tokAt(toks, j), "expected macro body callee")
	}
	body := []macroToken{{lit: &toks[j]}}
	j++
	if j >= len(toks) || !toks[j].IsPunct("(") {
		return nil, 0, diag.At(tokAt(toks, j), "expected '(' in macro body")
	}
	body = append(body, macroToken{lit: &toks[j]})
	j++
	depth := 1
	for depth > 0 {
		if j >= len(toks) {
			return nil, 0, diag.At(toks[len(toks)-1], "unterminated macro body")
		}
		t := toks[j]
		if t.IsPunct("#") && j+1 < len(toks) && toks[j+1].Kind == token.Ident {
			if idx := paramIndexOf(params, toks[j+1].Lexeme); idx >= 0 {
				body = append(body, macroToken{paramIndex: idx, stringify: true})
				j += 2
				continue
			}
		}
		if t.Kind == token.Ident {
			if idx := paramIndexOf(params, t.Lexeme); idx >= 0 {
				body = append(body, macroToken{paramIndex: idx})
				j++
				continue
			}
		}
		if t.IsPunct("(") {
			depth++
		} else if t.IsPunct(")") {
			depth--
		}
		body = append(body, macroToken{lit: &toks[j]})
		j++
	}
	return &macroDef{name: name, params: params, body: body}, j, nil
}

// expandCall parses a call `NAME ( arg1 , arg2 )` starting at toks[i]
// and substitutes it through def's body template.
func expandCall(def *macroDef, toks []token.Token, i int) ([]token.Token, int, error) {
	j := i + 2 // skip NAME '('
	var args [][]token.Token
	var cur []token.Token
	depth := 1
	for depth > 0 {
		if j >= len(toks) {
			return nil, 0, diag.At(toks[i], "unterminated call to macro %q", def.name)
		}
		t := toks[j]
		switch {
		case t.IsPunct("("):
			depth++
			cur = append(cur, t)
		case t.IsPunct(")"):
			depth--
			if depth == 0 {
				args = append(args, cur)
				j++
			} else {
				cur = append(cur, t)
			}
		case t.IsPunct(",") && depth == 1:
			args = append(args, cur)
			cur = nil
		default:
			cur = append(cur, t)
		}
		if depth > 0 {
			j++
		}
	}
	if len(args) != len(def.params) {
		return nil, 0, diag.At(toks[i], "macro %q expects %d arguments, got %d", def.name, len(def.params), len(args))
	}

	var out []token.Token
	for _, bt := range def.body {
		switch {
		case bt.lit != nil:
			out = append(out, *bt.lit)
		case bt.stringify:
			s := lexer.Stringify(args[bt.paramIndex])
			out = append(out, token.Token{
				Kind:   token.String,
				Lexeme: "\"" + s + "\"",
				Pos:    toks[i].Pos,
				Bytes:  append([]byte(s), 0),
			})
		default:
			out = append(out, args[bt.paramIndex]...)
		}
	}
	return out, j, nil
}
