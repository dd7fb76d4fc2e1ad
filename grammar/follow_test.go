package grammar_test

import (
	"testing"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/descentlang/descent/grammar"
)

// nestedGrammar builds:
//
//	s    -> a "c"
//	a    -> "a" tail
//	tail -> ("b" | )        (optional b)
//	list -> "a" ("b")* "c"
func nestedGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()

	g, err := grammar.NewBuilder(symbols()).
		Rule("s", grammar.R("a"), grammar.T("c")).
		Rule("a", grammar.T("a"), grammar.R("tail")).
		Rule("tail", grammar.Opt(grammar.T("b"))).
		Rule("list", grammar.T("a"), grammar.Star(grammar.T("b")), grammar.T("c")).
		Build()
	require.NoError(t, err)
	return g
}

func TestFirst(t *testing.T) {
	t.Parallel()

	g := nestedGrammar(t)

	tests := []struct {
		name    string
		elems   []grammar.Element
		want    []lexer.TokenType
		wantEps bool
	}{
		{"terminal", g.Rule("s").Elems[1:], []lexer.TokenType{tC}, false},
		{"rule ref descends", g.Rule("s").Elems, []lexer.TokenType{tA}, false},
		{"optional is transparent", g.Rule("tail").Elems, []lexer.TokenType{tB}, true},
		{"loop is transparent", g.Rule("list").Elems[1:], []lexer.TokenType{tB, tC}, false},
		{"empty sequence", nil, nil, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			first, eps := g.First(tt.elems)
			assert.Equal(t, tt.wantEps, eps)
			for _, want := range tt.want {
				assert.True(t, first.Contains(want), "FIRST should contain %d", want)
			}
			assert.Equal(t, len(tt.want), first.Len())
		})
	}
}

func TestFirst_LeftRecursionTerminates(t *testing.T) {
	t.Parallel()

	g, err := grammar.NewBuilder(symbols()).
		Rule("e", grammar.Alt(
			grammar.S(grammar.R("e"), grammar.T("b")),
			grammar.S(grammar.T("a")),
		)).
		Build()
	require.NoError(t, err)

	first, eps := g.First(g.Rule("e").Elems)
	assert.False(t, eps)
	assert.True(t, first.Contains(tA))
}

func TestNext_WalksEpsilonContinuations(t *testing.T) {
	t.Parallel()

	g := nestedGrammar(t)

	// Inside rule a, past "a", about to run tail; tail's body is
	// optional, so "b" (from tail), "c" (after a in s), all viable.
	stack := []grammar.Frame{
		{Rule: g.Rule("s").Index(), Elems: g.Rule("s").Elems, Pos: 1},
		{Rule: g.Rule("a").Index(), Elems: g.Rule("a").Elems, Pos: 1},
	}
	next := g.Next(stack)

	assert.True(t, next.Contains(tB))
	assert.True(t, next.Contains(tC))
	assert.False(t, next.Contains(tA))
	assert.False(t, next.Contains(lexer.EOF))
}

func TestNext_AddsEOFWhenStackRunsOut(t *testing.T) {
	t.Parallel()

	g := nestedGrammar(t)

	// Whole stack exhausted.
	stack := []grammar.Frame{
		{Rule: g.Rule("tail").Index(), Elems: g.Rule("tail").Elems, Pos: 1},
	}
	next := g.Next(stack)

	assert.True(t, next.Contains(lexer.EOF))
	assert.Equal(t, 1, next.Len())
}

func TestNext_LoopDecisionIncludesEntryAndExit(t *testing.T) {
	t.Parallel()

	g := nestedGrammar(t)
	list := g.Rule("list")
	loop, ok := list.Elems[1].(*grammar.Loop)
	require.True(t, ok)

	// At the loop decision of list: entry "b" and exit "c" both viable.
	stack := []grammar.Frame{
		{Rule: list.Index(), Elems: list.Elems, Pos: 2},
		{Rule: -1, Elems: loop.Body, Pos: 0, Loop: loop},
	}
	next := g.Next(stack)

	assert.True(t, next.Contains(tB), "loop entry")
	assert.True(t, next.Contains(tC), "loop exit")
	assert.False(t, next.Contains(lexer.EOF))
}

func TestNext_MidLoopBodyExcludesExit(t *testing.T) {
	t.Parallel()

	g, err := grammar.NewBuilder(symbols()).
		Rule("pairs", grammar.Star(grammar.T("a"), grammar.T("b")), grammar.T("c")).
		Build()
	require.NoError(t, err)

	pairs := g.Rule("pairs")
	loop, ok := pairs.Elems[0].(*grammar.Loop)
	require.True(t, ok)

	// Mid-iteration (past "a"): only "b" can appear; neither re-entry
	// nor exit is viable until the body completes.
	stack := []grammar.Frame{
		{Rule: pairs.Index(), Elems: pairs.Elems, Pos: 1},
		{Rule: -1, Elems: loop.Body, Pos: 1, Loop: loop},
	}
	next := g.Next(stack)

	assert.True(t, next.Contains(tB))
	assert.False(t, next.Contains(tA))
	assert.False(t, next.Contains(tC))
}

func TestRecoverySet_UnionOfEnclosingFollows(t *testing.T) {
	t.Parallel()

	g := nestedGrammar(t)

	// Failing inside tail, called from a, called from s: popping tail
	// resumes before "c" is required... popping a leads to "c" in s;
	// popping s reaches EOF. EOF is always included.
	stack := []grammar.Frame{
		{Rule: g.Rule("s").Index(), Elems: g.Rule("s").Elems, Pos: 1},
		{Rule: g.Rule("a").Index(), Elems: g.Rule("a").Elems, Pos: 2},
		{Rule: g.Rule("tail").Index(), Elems: g.Rule("tail").Elems, Pos: 0},
	}
	set := g.RecoverySet(stack)

	assert.True(t, set.Contains(tC), "follow of a within s")
	assert.True(t, set.Contains(lexer.EOF))
	assert.False(t, set.Contains(tA))
	assert.False(t, set.Contains(tB), "tail's own content is not a resync point")
}

func TestRecoverySet_TopRuleOnlyIsEOF(t *testing.T) {
	t.Parallel()

	g := nestedGrammar(t)
	stack := []grammar.Frame{
		{Rule: g.Rule("s").Index(), Elems: g.Rule("s").Elems, Pos: 0},
	}
	set := g.RecoverySet(stack)

	assert.Equal(t, 1, set.Len())
	assert.True(t, set.Contains(lexer.EOF))
}
