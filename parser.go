package descent

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
	"go.uber.org/zap"

	"github.com/descentlang/descent/grammar"
)

// Option configures a Parser.
type Option func(*Parser)

// WithStrategy selects the error-recovery strategy. The default is
// NewDefaultStrategy; use NewBailStrategy for fail-fast parsing.
func WithStrategy(s Strategy) Option {
	return func(p *Parser) { p.strategy = s }
}

// WithLogger injects a logger for recovery decision tracing. The
// default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Parser) { p.log = log }
}

// WithListeners registers error listeners, appended in order.
func WithListeners(ls ...ErrorListener) Option {
	return func(p *Parser) { p.listeners = append(p.listeners, ls...) }
}

// WithErrorNodeFunc registers the callback invoked when a repaired
// token is folded into output in place of real input.
func WithErrorNodeFunc(fn func(Token)) Option {
	return func(p *Parser) { p.errorNode = fn }
}

// WithPredicateEnv supplies the environment semantic predicates
// evaluate against.
func WithPredicateEnv(env map[string]any) Option {
	return func(p *Parser) { p.predEnv = env }
}

// Parser drives a grammar over a token stream, delegating every error
// decision to its Strategy. A parser is single-threaded: one parse at a
// time, no sharing across goroutines. The strategy is owned by the
// parser and reset at the start of each parse.
type Parser struct {
	grammar   *grammar.Grammar
	strategy  Strategy
	log       *zap.Logger
	listeners []ErrorListener
	errorNode func(Token)
	predEnv   map[string]any

	stream       *TokenStream
	stack        []grammar.Frame
	expecting    grammar.SymbolSet
	expectedType lexer.TokenType
	errCount     int
}

// New builds a parser for the grammar.
func New(g *grammar.Grammar, opts ...Option) *Parser {
	p := &Parser{
		grammar:  g,
		strategy: NewDefaultStrategy(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse runs startRule over the stream. It returns nil when the parse
// completed, possibly best-effort with syntax errors reported to the
// listeners and counted by SyntaxErrors. A non-nil error is either
// ErrUnknownStartRule or a ParseAbortedError from a fail-fast strategy.
func (p *Parser) Parse(stream *TokenStream, startRule string) error {
	start := p.grammar.Rule(startRule)
	if start == nil {
		return fmt.Errorf("%w: %q", ErrUnknownStartRule, startRule)
	}
	p.stream = stream
	p.stack = p.stack[:0]
	p.expecting = grammar.SymbolSet{}
	p.errCount = 0
	p.strategy.Reset(p)
	return p.invokeRule(start)
}

// SyntaxErrors returns the number of errors reported during the last
// parse.
func (p *Parser) SyntaxErrors() int { return p.errCount }

// Grammar returns the grammar the parser runs.
func (p *Parser) Grammar() *grammar.Grammar { return p.grammar }

// Stream returns the stream of the parse in progress.
func (p *Parser) Stream() *TokenStream { return p.stream }

// invokeRule is the rule boundary: it runs the rule body and, when a
// recognition error unwinds to it, reports and hands control to the
// strategy so the caller's decision can resume. An aborted parse
// propagates untouched.
func (p *Parser) invokeRule(r *grammar.Rule) error {
	p.stack = append(p.stack, grammar.Frame{Rule: r.Index(), Elems: r.Elems})
	defer func() { p.stack = p.stack[:len(p.stack)-1] }()

	err := p.runFrame()
	if err == nil {
		return nil
	}
	var aborted *ParseAbortedError
	if errors.As(err, &aborted) {
		return err
	}
	var re RecognitionError
	if !errors.As(err, &re) {
		return err
	}
	p.strategy.ReportError(p, re)
	return p.strategy.Recover(p, re)
}

// runFrame executes the top frame's remaining elements.
func (p *Parser) runFrame() error {
	for {
		f := &p.stack[len(p.stack)-1]
		if f.Pos >= len(f.Elems) {
			return nil
		}
		e := f.Elems[f.Pos]
		f.Pos++ // advanced before execution: the remainder is the continuation
		if err := p.exec(e); err != nil {
			return err
		}
	}
}

func (p *Parser) exec(e grammar.Element) error {
	switch e := e.(type) {
	case *grammar.Term:
		return p.match(e)
	case *grammar.Ref:
		return p.invokeRule(p.grammar.RuleAt(e.Index()))
	case *grammar.Seq:
		return p.runBlock(e.Elems, nil)
	case *grammar.Loop:
		return p.runLoop(e)
	case *grammar.Choice:
		return p.runChoice(e)
	case *grammar.Pred:
		return p.evalPred(e)
	}
	return nil
}

// match is the inline match point: consume the expected terminal or let
// the strategy repair.
func (p *Parser) match(t *grammar.Term) error {
	p.expecting = grammar.NewSymbolSet(t.Type())
	p.expectedType = t.Type()
	if p.stream.LA(1) == t.Type() {
		p.strategy.ReportMatch(p)
		p.stream.Consume()
		return nil
	}
	repaired, err := p.strategy.RecoverInline(p)
	if err != nil {
		return err
	}
	if p.errorNode != nil {
		p.errorNode(repaired)
	}
	return nil
}

func (p *Parser) runBlock(elems []grammar.Element, loop *grammar.Loop) error {
	p.stack = append(p.stack, grammar.Frame{Rule: -1, Elems: elems, Loop: loop})
	defer func() { p.stack = p.stack[:len(p.stack)-1] }()
	return p.runFrame()
}

// runLoop is the loop decision point: sync first, then enter while the
// current token can begin the body.
func (p *Parser) runLoop(l *grammar.Loop) error {
	p.stack = append(p.stack, grammar.Frame{Rule: -1, Elems: l.Body, Loop: l})
	defer func() { p.stack = p.stack[:len(p.stack)-1] }()
	enter, _ := p.grammar.First(l.Body)
	for {
		p.stack[len(p.stack)-1].Pos = 0
		if err := p.strategy.Sync(p); err != nil {
			return err
		}
		if !enter.Contains(p.stream.LA(1)) {
			return nil
		}
		if err := p.runFrame(); err != nil {
			return err
		}
	}
}

// runChoice takes the first alternative whose FIRST set admits the
// current token; an empty-matching alternative is viable when the
// continuation admits it.
func (p *Parser) runChoice(c *grammar.Choice) error {
	la := p.stream.LA(1)
	for _, alt := range c.Alts {
		s, eps := p.grammar.First(alt)
		if s.Contains(la) || (eps && p.NextTokens().Contains(la)) {
			return p.runBlock(alt, nil)
		}
	}
	return &NoViableAltError{Token: p.stream.Current(), Rule: p.CurrentRule()}
}

func (p *Parser) evalPred(pr *grammar.Pred) error {
	ok, err := pr.Eval(p.predEnv)
	if ok {
		return nil
	}
	return &FailedPredicateError{
		Token:     p.stream.Current(),
		Rule:      p.CurrentRule(),
		Predicate: pr.Source,
		Err:       err,
	}
}

// Expecting returns the symbol set of the active inline match.
func (p *Parser) Expecting() grammar.SymbolSet { return p.expecting }

// ExpectedType returns the terminal type of the active inline match.
func (p *Parser) ExpectedType() lexer.TokenType { return p.expectedType }

// NextTokens returns the tokens viable at the current position,
// computed from the grammar and the invocation stack.
func (p *Parser) NextTokens() grammar.SymbolSet {
	return p.grammar.Next(p.stack)
}

// FollowAfterExpected returns what may follow the symbol the active
// inline match expects; the single-token insertion heuristic consults
// it. The invocation stack is already positioned past the expected
// element, so this is the continuation as-is.
func (p *Parser) FollowAfterExpected() grammar.SymbolSet {
	return p.grammar.Next(p.stack)
}

// RecoverySet returns the resynchronization set for the current
// invocation stack.
func (p *Parser) RecoverySet() grammar.SymbolSet {
	return p.grammar.RecoverySet(p.stack)
}

// CurrentRule returns the name of the innermost rule being parsed.
func (p *Parser) CurrentRule() string {
	if i := p.currentRuleIndex(); i >= 0 {
		return p.grammar.RuleAt(i).Name
	}
	return ""
}

func (p *Parser) currentRuleIndex() int {
	for i := len(p.stack) - 1; i >= 0; i-- {
		if p.stack[i].Rule >= 0 {
			return p.stack[i].Rule
		}
	}
	return -1
}

// DescribeSet renders a symbol set through the grammar's display names.
func (p *Parser) DescribeSet(s grammar.SymbolSet) string {
	return s.Describe(p.grammar.SymbolName)
}

// NotifyErrorListeners delivers one diagnostic to every listener and
// counts it. Strategies call this; drivers do not report directly.
func (p *Parser) NotifyErrorListeners(tok Token, msg string, err RecognitionError) {
	p.errCount++
	for _, l := range p.listeners {
		l.SyntaxError(tok, msg, err)
	}
}

func (p *Parser) inputMismatch(expected grammar.SymbolSet) *InputMismatchError {
	return &InputMismatchError{
		Token:        p.stream.Current(),
		Rule:         p.CurrentRule(),
		Expected:     expected,
		expectedText: p.DescribeSet(expected),
	}
}
