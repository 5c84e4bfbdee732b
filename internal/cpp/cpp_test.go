package cpp_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gmofishsauce/subc/internal/cpp"
	"github.com/gmofishsauce/subc/internal/token"
)

func noInclude(path string) ([]byte, error) {
	return nil, fmt.Errorf("unexpected #include %q", path)
}

func lexemes(toks []token.Token) []string {
	var out []string
	for _, t := range toks {
		if t.Kind != token.EOF {
			out = append(out, t.Lexeme)
		}
	}
	return out
}

func TestIncludeSubstitutesFileContents(t *testing.T) {
	read := func(path string) ([]byte, error) {
		require.Equal(t, "util.h", path)
		return []byte("int helper;"), nil
	}
	toks, err := cpp.Process("main.c", []byte(`#include "util.h"`+"\nint x;"), read)
	require.NoError(t, err)
	require.Equal(t, []string{"int", "helper", ";", "int", "x", ";"}, lexemes(toks))
}

func TestNestedIncludesExpand(t *testing.T) {
	read := func(path string) ([]byte, error) {
		switch path {
		case "a.h":
			return []byte(`#include "b.h"` + "\nint a;"), nil
		case "b.h":
			return []byte("int b;"), nil
		}
		return nil, fmt.Errorf("unknown %q", path)
	}
	toks, err := cpp.Process("main.c", []byte(`#include "a.h"`), read)
	require.NoError(t, err)
	require.Equal(t, []string{"int", "b", ";", "int", "a", ";"}, lexemes(toks))
}

func TestSingleStringifyMacroExpansion(t *testing.T) {
	src := `#define LOG(fn,msg) trace(fn,msg,#msg)
LOG(open, failed)`
	toks, err := cpp.Process("main.c", []byte(src), noInclude)
	require.NoError(t, err)
	require.Equal(t, []string{
		"trace", "(", "open", ",", "failed", ",", `"failed"`, ")",
	}, lexemes(toks))
}

func TestStringifyPreservesSourceAdjacency(t *testing.T) {
	// spec §8 scenario 1's ASSERT(0, (1+2*3 < 6-5/4) <= 1 != (10 >= 3) + 10
	// > 9) requires the second argument's #-stringification to reproduce
	// its exact source spacing: no space after "(" or before ")", but a
	// space around "+", ">", and the other infix operators.
	src := `#define ASSERT(n,e) check(n,e,#e)
ASSERT(0, (10 >= 3) + 10 > 9)`
	toks, err := cpp.Process("main.c", []byte(src), noInclude)
	require.NoError(t, err)
	require.Equal(t, []string{
		"check", "(", "0", ",", "(", "10", ">=", "3", ")", "+", "10", ">", "9", ",",
		`"(10 >= 3) + 10 > 9"`, ")",
	}, lexemes(toks))
}

func TestMacroArityMismatchIsError(t *testing.T) {
	src := `#define LOG(fn,msg) trace(fn,msg,#msg)
LOG(open)`
	_, err := cpp.Process("main.c", []byte(src), noInclude)
	require.Error(t, err)
}

func TestUndefinedIdentifierNamedLikeACallIsUntouched(t *testing.T) {
	toks, err := cpp.Process("main.c", []byte("foo(1,2);"), noInclude)
	require.NoError(t, err)
	require.Equal(t, []string{"foo", "(", "1", ",", "2", ")", ";"}, lexemes(toks))
}
