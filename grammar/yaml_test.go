package grammar_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/descentlang/descent/grammar"
)

const listDoc = `
rules:
  - name: list
    seq:
      - tok: a
      - star:
          - ref: item
      - tok: c
  - name: item
    seq:
      - alt:
          - [{tok: b}]
          - [{pred: "allow"}, {tok: a}]
`

func TestLoadYAML_MatchesBuilder(t *testing.T) {
	t.Parallel()

	fromDoc, err := grammar.LoadYAML(symbols(), []byte(listDoc))
	require.NoError(t, err)

	fromBuilder, err := grammar.NewBuilder(symbols()).
		Rule("list", grammar.T("a"), grammar.Star(grammar.R("item")), grammar.T("c")).
		Rule("item", grammar.Alt(
			grammar.S(grammar.T("b")),
			grammar.S(grammar.When("allow"), grammar.T("a")),
		)).
		Build()
	require.NoError(t, err)

	for _, rule := range []string{"list", "item"} {
		docFirst, docEps := fromDoc.First(fromDoc.Rule(rule).Elems)
		builtFirst, builtEps := fromBuilder.First(fromBuilder.Rule(rule).Elems)
		assert.Equal(t, builtEps, docEps, "rule %s epsilon", rule)
		if diff := cmp.Diff(builtFirst.Types(), docFirst.Types()); diff != "" {
			t.Fatalf("rule %s FIRST mismatch (-builder +doc):\n%s", rule, diff)
		}
	}
}

func TestLoadYAML_PlusAndOpt(t *testing.T) {
	t.Parallel()

	doc := `
rules:
  - name: s
    seq:
      - plus: [{tok: a}]
      - opt: [{tok: b}]
      - tok: c
`
	g, err := grammar.LoadYAML(symbols(), []byte(doc))
	require.NoError(t, err)

	first, eps := g.First(g.Rule("s").Elems)
	assert.False(t, eps)
	assert.True(t, first.Contains(tA))
	assert.False(t, first.Contains(tB), "plus requires an 'a' first")
}

func TestLoadYAML_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"not yaml", "rules: [", grammar.ErrBadDocument},
		{"no rules", "rules: []", grammar.ErrBadDocument},
		{"unnamed rule", "rules:\n  - seq: [{tok: a}]", grammar.ErrBadDocument},
		{
			"element with two fields",
			"rules:\n  - name: s\n    seq:\n      - {tok: a, ref: s}",
			grammar.ErrBadDocument,
		},
		{
			"element with no fields",
			"rules:\n  - name: s\n    seq:\n      - {}",
			grammar.ErrBadDocument,
		},
		{
			"unknown symbol surfaces from Build",
			"rules:\n  - name: s\n    seq: [{tok: nope}]",
			grammar.ErrUnknownSymbol,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := grammar.LoadYAML(symbols(), []byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
