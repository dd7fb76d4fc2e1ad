package descent

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
	"go.uber.org/zap"

	"github.com/descentlang/descent/grammar"
)

// Strategy decides how a parser reacts to syntax errors. An instance is
// owned by exactly one parser; strategies keep position-dependent state
// and must not be shared across concurrent parses. A fresh instance, or
// Reset, is required per independent parse.
type Strategy interface {
	// Reset clears all recovery state. The driver calls it whenever it
	// starts parsing a fresh rule tree.
	Reset(p *Parser)

	// RecoverInline is called when an inline match expected a specific
	// symbol and the current token does not satisfy it. It returns a
	// token the driver treats as the successful match result (after a
	// single-token repair), or an error the driver propagates to the
	// nearest rule boundary. On successful repair the strategy reports;
	// the driver does not double-report.
	RecoverInline(p *Parser) (Token, error)

	// Recover is called at a rule boundary after err propagated there.
	// It consumes input up to a synchronization point so the caller's
	// decision can safely resume. A non-nil return abandons recovery
	// and unwinds the whole parse.
	Recover(p *Parser, err RecognitionError) error

	// Sync is called at the top of each loop decision. It verifies the
	// current token is viable for entering or exiting the loop, deletes
	// at most one spurious token, or returns an error to trigger full
	// recovery.
	Sync(p *Parser) error

	// InErrorRecoveryMode reports whether the strategy is suppressing
	// cascading reports.
	InErrorRecoveryMode(p *Parser) bool

	// ReportMatch is called after every genuine successful consumption;
	// it ends any error-recovery episode.
	ReportMatch(p *Parser)

	// ReportError formats err and forwards it to the parser's
	// listeners, subject to the anti-cascade rule.
	ReportError(p *Parser, err RecognitionError)
}

// DefaultStrategy is the reference best-effort recovery algorithm:
// single-token deletion and insertion for inline mismatches, bounded
// one-token repair at loop decisions, and follow-set resynchronization
// after structural errors. The zero value is not ready for use; call
// NewDefaultStrategy.
type DefaultStrategy struct {
	// recovering is set from the first report of an episode until the
	// next genuine match.
	recovering bool

	// lastErrorIndex is the input position of the episode's last
	// report, -1 when uninitialized. It only ever increases within a
	// parse, or resets to -1.
	lastErrorIndex int

	// lastErrorRules records the rules that already ran recovery at
	// lastErrorIndex, to force progress when the same rule fails at the
	// same position twice.
	lastErrorRules map[int]struct{}
}

// NewDefaultStrategy returns a ready-to-use default strategy.
func NewDefaultStrategy() *DefaultStrategy {
	return &DefaultStrategy{lastErrorIndex: -1}
}

func (d *DefaultStrategy) Reset(*Parser) {
	d.recovering = false
	d.lastErrorIndex = -1
	d.lastErrorRules = nil
}

func (d *DefaultStrategy) InErrorRecoveryMode(*Parser) bool { return d.recovering }

// beginErrorCondition enters recovery mode at the current position.
func (d *DefaultStrategy) beginErrorCondition(p *Parser) {
	d.recovering = true
	d.setLastError(p.stream.Index())
}

// endErrorCondition leaves recovery mode after genuine forward
// progress.
func (d *DefaultStrategy) endErrorCondition(*Parser) {
	d.recovering = false
	d.lastErrorIndex = -1
	d.lastErrorRules = nil
}

func (d *DefaultStrategy) setLastError(index int) {
	if index != d.lastErrorIndex {
		d.lastErrorIndex = index
		d.lastErrorRules = nil
	}
}

// suppress implements the anti-cascade rule: while in recovery mode,
// at most one report per input position. A report at a genuinely new
// position is never suspended.
func (d *DefaultStrategy) suppress(p *Parser) bool {
	return d.recovering && p.stream.Index() == d.lastErrorIndex
}

func (d *DefaultStrategy) ReportMatch(p *Parser) { d.endErrorCondition(p) }

func (d *DefaultStrategy) ReportError(p *Parser, err RecognitionError) {
	if d.suppress(p) {
		return
	}
	d.beginErrorCondition(p)
	p.NotifyErrorListeners(err.OffendingToken(), err.Error(), err)
}

// RecoverInline repairs a failed inline match with a single-token edit:
// deletion when the token after the offender matches, otherwise
// insertion when the current token could follow the expected symbol.
// When neither applies it returns the mismatch for the driver to
// unwind.
func (d *DefaultStrategy) RecoverInline(p *Parser) (Token, error) {
	if tok, ok := d.singleTokenDeletion(p); ok {
		return tok, nil
	}
	if d.singleTokenInsertion(p) {
		return d.missingSymbol(p), nil
	}
	return Token{}, p.inputMismatch(p.Expecting())
}

// singleTokenDeletion treats the current token as noise: if the next
// token satisfies the match, delete the offender, report once, and
// return the real match.
func (d *DefaultStrategy) singleTokenDeletion(p *Parser) (Token, bool) {
	if !p.Expecting().Contains(p.stream.LA(2)) {
		return Token{}, false
	}
	d.reportUnwantedToken(p, p.Expecting())
	p.log.Debug("single-token deletion",
		zap.String("deleted", p.stream.Current().Display()))
	p.stream.Consume() // drop the offender
	matched := p.stream.Current()
	d.ReportMatch(p) // a genuine match follows the deletion
	p.stream.Consume()
	return matched, true
}

// singleTokenInsertion decides whether fabricating the expected token
// lets parsing continue: it can when the current token is in the follow
// set of the expected symbol.
func (d *DefaultStrategy) singleTokenInsertion(p *Parser) bool {
	if !p.FollowAfterExpected().Contains(p.stream.LA(1)) {
		return false
	}
	d.reportMissingToken(p)
	p.log.Debug("single-token insertion",
		zap.String("inserted", p.DescribeSet(p.Expecting())),
		zap.String("at", p.stream.Current().Display()))
	return true
}

// missingSymbol fabricates a token of the expected type at the current
// position, without consuming input.
func (d *DefaultStrategy) missingSymbol(p *Parser) Token {
	expected := p.ExpectedType()
	name := p.Grammar().SymbolName(expected)
	return p.stream.InsertSynthetic(expected, "<missing "+name+">")
}

// Recover resynchronizes after a structural error: consume input until
// the current token is in the recovery set of the invocation stack.
// Termination is guaranteed because EOF is always a member.
func (d *DefaultStrategy) Recover(p *Parser, _ RecognitionError) error {
	rule := p.currentRuleIndex()
	if d.lastErrorIndex == p.stream.Index() && d.seenRule(rule) {
		// Second failure of the same rule at the same position: force
		// one token of progress so resynchronization cannot loop.
		p.stream.Consume()
	}
	d.setLastError(p.stream.Index())
	d.markRule(rule)
	set := p.RecoverySet()
	p.log.Debug("resynchronizing",
		zap.String("until", p.DescribeSet(set)),
		zap.Int("index", p.stream.Index()))
	d.consumeUntil(p, set)
	return nil
}

// Sync guards a loop decision. At most one token is ever consumed per
// call: either the decision is already viable, or one spurious token is
// deleted, or the mismatch is returned to trigger full recovery.
func (d *DefaultStrategy) Sync(p *Parser) error {
	if d.recovering {
		return nil
	}
	next := p.NextTokens()
	if next.Contains(p.stream.LA(1)) {
		return nil
	}
	if next.Contains(p.stream.LA(2)) {
		d.reportUnwantedToken(p, next)
		p.log.Debug("sync deleted token",
			zap.String("deleted", p.stream.Current().Display()))
		p.stream.Consume()
		return nil
	}
	return p.inputMismatch(next)
}

func (d *DefaultStrategy) reportUnwantedToken(p *Parser, expected grammar.SymbolSet) {
	if d.suppress(p) {
		return
	}
	d.beginErrorCondition(p)
	tok := p.stream.Current()
	msg := fmt.Sprintf("extraneous input %s expecting %s",
		tok.Display(), p.DescribeSet(expected))
	p.NotifyErrorListeners(tok, msg, nil)
}

func (d *DefaultStrategy) reportMissingToken(p *Parser) {
	if d.suppress(p) {
		return
	}
	d.beginErrorCondition(p)
	tok := p.stream.Current()
	msg := fmt.Sprintf("missing %s at %s",
		p.DescribeSet(p.Expecting()), tok.Display())
	p.NotifyErrorListeners(tok, msg, nil)
}

func (d *DefaultStrategy) consumeUntil(p *Parser, set grammar.SymbolSet) {
	for {
		t := p.stream.LA(1)
		if t == lexer.EOF || set.Contains(t) {
			return
		}
		p.stream.Consume()
	}
}

func (d *DefaultStrategy) seenRule(rule int) bool {
	_, ok := d.lastErrorRules[rule]
	return ok
}

func (d *DefaultStrategy) markRule(rule int) {
	if d.lastErrorRules == nil {
		d.lastErrorRules = make(map[int]struct{})
	}
	d.lastErrorRules[rule] = struct{}{}
}

// BailStrategy aborts the parse on the first syntax error: no repair,
// no extra consumption, no reports. Useful when the caller only needs
// a cheap "did this input parse" answer.
type BailStrategy struct{}

// NewBailStrategy returns the fail-fast strategy.
func NewBailStrategy() *BailStrategy { return &BailStrategy{} }

func (*BailStrategy) Reset(*Parser) {}

func (*BailStrategy) RecoverInline(p *Parser) (Token, error) {
	return Token{}, &ParseAbortedError{Cause: p.inputMismatch(p.Expecting())}
}

func (*BailStrategy) Recover(_ *Parser, err RecognitionError) error {
	return &ParseAbortedError{Cause: err}
}

func (*BailStrategy) Sync(*Parser) error { return nil }

func (*BailStrategy) InErrorRecoveryMode(*Parser) bool { return false }

func (*BailStrategy) ReportMatch(*Parser) {}

func (*BailStrategy) ReportError(*Parser, RecognitionError) {}
