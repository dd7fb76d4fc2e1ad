package grammar

import (
	"sort"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// SymbolSet is an immutable set of token types. The zero value is the
// empty set. All operations return new sets; a SymbolSet handed out by
// the grammar is safe to retain indefinitely.
type SymbolSet struct {
	types []lexer.TokenType
}

// NewSymbolSet builds a set from the given token types. Duplicates are
// collapsed.
func NewSymbolSet(types ...lexer.TokenType) SymbolSet {
	if len(types) == 0 {
		return SymbolSet{}
	}
	ts := make([]lexer.TokenType, len(types))
	copy(ts, types)
	sort.Slice(ts, func(i, j int) bool { return ts[i] < ts[j] })
	return SymbolSet{types: dedup(ts)}
}

func dedup(sorted []lexer.TokenType) []lexer.TokenType {
	out := sorted[:0]
	for i, t := range sorted {
		if i == 0 || t != sorted[i-1] {
			out = append(out, t)
		}
	}
	return out
}

// Contains reports whether t is a member of the set.
func (s SymbolSet) Contains(t lexer.TokenType) bool {
	i := sort.Search(len(s.types), func(i int) bool { return s.types[i] >= t })
	return i < len(s.types) && s.types[i] == t
}

// Add returns a new set with t included.
func (s SymbolSet) Add(t lexer.TokenType) SymbolSet {
	if s.Contains(t) {
		return s
	}
	return NewSymbolSet(append(s.Types(), t)...)
}

// Union returns a new set containing the members of both sets.
func (s SymbolSet) Union(o SymbolSet) SymbolSet {
	if o.Len() == 0 {
		return s
	}
	if s.Len() == 0 {
		return o
	}
	return NewSymbolSet(append(s.Types(), o.types...)...)
}

// Len returns the number of members.
func (s SymbolSet) Len() int { return len(s.types) }

// Empty reports whether the set has no members.
func (s SymbolSet) Empty() bool { return len(s.types) == 0 }

// Types returns the members in ascending order. The slice is a copy.
func (s SymbolSet) Types() []lexer.TokenType {
	out := make([]lexer.TokenType, len(s.types))
	copy(out, s.types)
	return out
}

// Describe renders the set as a human-readable alternation using the
// given display-name function: a single member renders bare ('y'), more
// than one as {'x', 'y'}. A nil name function falls back to numeric
// token types.
func (s SymbolSet) Describe(name func(lexer.TokenType) string) string {
	if name == nil {
		name = func(t lexer.TokenType) string { return strconv.Itoa(int(t)) }
	}
	switch len(s.types) {
	case 0:
		return "{}"
	case 1:
		return name(s.types[0])
	}
	parts := make([]string, len(s.types))
	for i, t := range s.types {
		parts[i] = name(t)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
