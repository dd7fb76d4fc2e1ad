package descent

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Token is one unit of parser input: a participle lexer token plus its
// stream index. Synthetic tokens are fabricated by error recovery and
// carry index -1; they occupy no stream position.
type Token struct {
	lexer.Token

	// Index is the token's position in its stream, -1 for synthetic
	// tokens.
	Index int

	// Synthetic is true when the token was fabricated by recovery
	// rather than read from input.
	Synthetic bool
}

// TokenStream is a fully buffered, random-access view over lexer
// output. The stream always ends with an EOF token; Consume never moves
// past it. A stream belongs to a single parse at a time.
type TokenStream struct {
	tokens []Token
	pos    int
}

// NewTokenStream drains the lexer into a stream, dropping tokens whose
// type appears in elide (trivia such as whitespace and comments). The
// terminating EOF token is always kept.
func NewTokenStream(lex lexer.Lexer, elide ...lexer.TokenType) (*TokenStream, error) {
	elided := make(map[lexer.TokenType]bool, len(elide))
	for _, t := range elide {
		elided[t] = true
	}
	var tokens []Token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, err
		}
		if !tok.EOF() && elided[tok.Type] {
			continue
		}
		tokens = append(tokens, Token{Token: tok, Index: len(tokens)})
		if tok.EOF() {
			return &TokenStream{tokens: tokens}, nil
		}
	}
}

// StreamOf builds a stream directly from tokens, appending an EOF token
// if the input lacks one. Intended for tests and for callers that
// tokenize out of band.
func StreamOf(tokens ...lexer.Token) *TokenStream {
	out := make([]Token, 0, len(tokens)+1)
	for _, tok := range tokens {
		out = append(out, Token{Token: tok, Index: len(out)})
		if tok.EOF() {
			return &TokenStream{tokens: out}
		}
	}
	out = append(out, Token{Token: lexer.Token{Type: lexer.EOF}, Index: len(out)})
	return &TokenStream{tokens: out}
}

// Current returns the token at the cursor.
func (s *TokenStream) Current() Token { return s.tokens[s.pos] }

// LT returns the token k ahead of the cursor (k >= 1; LT(1) is the
// current token). Lookahead past the end returns the EOF token.
func (s *TokenStream) LT(k int) Token {
	i := s.pos + k - 1
	if i >= len(s.tokens) {
		i = len(s.tokens) - 1
	}
	return s.tokens[i]
}

// LA returns the token type k ahead of the cursor.
func (s *TokenStream) LA(k int) lexer.TokenType { return s.LT(k).Type }

// Consume advances the cursor one token. Consuming at EOF is a no-op.
func (s *TokenStream) Consume() {
	if s.pos < len(s.tokens)-1 {
		s.pos++
	}
}

// InsertSynthetic fabricates a token of the given type at the cursor's
// position without consuming input. The token carries index -1 and
// never enters the stream; it exists only as a match result.
func (s *TokenStream) InsertSynthetic(t lexer.TokenType, value string) Token {
	return Token{
		Token:     lexer.Token{Type: t, Value: value, Pos: s.Current().Pos},
		Index:     -1,
		Synthetic: true,
	}
}

// Index returns the cursor position.
func (s *TokenStream) Index() int { return s.pos }

// Seek restores the cursor to a position previously read with Index.
func (s *TokenStream) Seek(index int) {
	if index < 0 {
		index = 0
	}
	if index > len(s.tokens)-1 {
		index = len(s.tokens) - 1
	}
	s.pos = index
}

// Len returns the number of buffered tokens, including the EOF token.
func (s *TokenStream) Len() int { return len(s.tokens) }
