package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gmofishsauce/subc/internal/lexer"
	"github.com/gmofishsauce/subc/internal/token"
)

func TestLexPunctsAndKeywords(t *testing.T) {
	toks, err := lexer.Lex("t.c", []byte("int x = a->b != c;"))
	require.NoError(t, err)

	var kinds []token.Kind
	var lexemes []string
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
		lexemes = append(lexemes, tok.Lexeme)
	}
	require.Equal(t, token.EOF, kinds[len(kinds)-1])
	require.Contains(t, lexemes, "->")
	require.Contains(t, lexemes, "!=")
	require.Contains(t, lexemes, "int")
}

func TestEscapeTable(t *testing.T) {
	// spec §4.1's exhaustive escape table, including the corpus's
	// documented \v==8 quirk (spec §9).
	cases := map[string]int64{
		`'\a'`: 7,
		`'\b'`: 8,
		`'\f'`: 12,
		`'\n'`: 10,
		`'\r'`: 13,
		`'\t'`: 9,
		`'\v'`: 8,
		`'\e'`: 27,
		`'\''`: '\'',
		`'\"'`: '"',
		`'\\'`: '\\',
		`'\A'`: 'A',
	}
	for src, want := range cases {
		toks, err := lexer.Lex("t.c", []byte(src))
		require.NoError(t, err, src)
		require.Equal(t, token.Char, toks[0].Kind, src)
		require.Equal(t, want, toks[0].IntVal, "escape %s", src)
	}
}

func TestHexEscapeConsumesAllDigits(t *testing.T) {
	// `\x00ff` consumes every hex digit then keeps the low 8 bits:
	// 0x00ff truncates to 0xff, which is -1 as a signed 8-bit value.
	toks, err := lexer.Lex("t.c", []byte(`"\x00ff"`))
	require.NoError(t, err)
	require.Equal(t, token.String, toks[0].Kind)
	require.Equal(t, []byte{0xff, 0}, toks[0].Bytes)
}

func TestOctalEscapeCapsAtThreeDigits(t *testing.T) {
	// `\1500` is the octal escape `\150` (=0o150=104='h') followed by the
	// literal digit '0'.
	toks, err := lexer.Lex("t.c", []byte(`"\1500"`))
	require.NoError(t, err)
	require.Equal(t, []byte{0x68, '0', 0}, toks[0].Bytes)
}

func TestStringLiteralTrailingZero(t *testing.T) {
	toks, err := lexer.Lex("t.c", []byte(`"Hello world!"`))
	require.NoError(t, err)
	require.Len(t, toks[0].Bytes, 13) // 12 chars + trailing zero
	require.Equal(t, byte(0), toks[0].Bytes[12])
}

func TestIntegerLiteral(t *testing.T) {
	toks, err := lexer.Lex("t.c", []byte("123456"))
	require.NoError(t, err)
	require.Equal(t, int64(123456), toks[0].IntVal)
}

func TestLineCommentsAndBlockComments(t *testing.T) {
	toks, err := lexer.Lex("t.c", []byte("int x; // trailing\n/* block\ncomment */ int y;"))
	require.NoError(t, err)
	var idents []string
	for _, tok := range toks {
		if tok.Kind == token.Ident {
			idents = append(idents, tok.Lexeme)
		}
	}
	require.Equal(t, []string{"x", "y"}, idents)
}

func TestUnterminatedStringIsLexError(t *testing.T) {
	_, err := lexer.Lex("t.c", []byte(`"abc`))
	require.Error(t, err)
}
