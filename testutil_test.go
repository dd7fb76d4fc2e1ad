package descent_test

import (
	"testing"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/stretchr/testify/require"

	"github.com/descentlang/descent/grammar"
)

// Token type constants — negative values as per participle convention.
const (
	tX lexer.TokenType = -(iota + 2)
	tY
	tZ
	tQ
	tW
	tSem
	tLP
	tRP
	tItem
)

func testSymbols() map[string]lexer.TokenType {
	return map[string]lexer.TokenType{
		"EOF": lexer.EOF,
		"x":   tX,
		"y":   tY,
		"z":   tZ,
		"q":   tQ,
		"w":   tW,
		";":   tSem,
		"(":   tLP,
		")":   tRP,
		"i":   tItem,
	}
}

// tok builds a lexer token whose value doubles as its display text.
func tok(t lexer.TokenType, value string) lexer.Token {
	return lexer.Token{Type: t, Value: value}
}

// mustGrammar builds a grammar over testSymbols or fails the test.
func mustGrammar(t *testing.T, build func(b *grammar.Builder)) *grammar.Grammar {
	t.Helper()

	b := grammar.NewBuilder(testSymbols())
	build(b)
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

// xyzGrammar is the single-rule grammar a -> 'x' 'y' 'z'.
func xyzGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()

	return mustGrammar(t, func(b *grammar.Builder) {
		b.Rule("a", grammar.T("x"), grammar.T("y"), grammar.T("z"))
	})
}
