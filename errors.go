package descent

import (
	"errors"

	"github.com/descentlang/descent/grammar"
)

// ErrUnknownStartRule is returned by Parse when the start rule does not
// exist in the grammar.
var ErrUnknownStartRule = errors.New("descent: unknown start rule")

// RecognitionError is a structural syntax error raised while matching
// input against the grammar. Values are immutable once constructed and
// propagate as ordinary Go errors up to the nearest rule boundary,
// where the active strategy decides whether parsing continues.
type RecognitionError interface {
	error

	// OffendingToken returns the token the parser was looking at when
	// the error was raised.
	OffendingToken() Token

	// RuleName returns the rule being parsed when the error was raised.
	RuleName() string
}

// NoViableAltError is raised when no alternative of a decision matches
// the current input. It is structural, so no single-token repair is
// attempted; recovery resynchronizes instead.
type NoViableAltError struct {
	Token Token
	Rule  string
}

func (e *NoViableAltError) Error() string {
	return "no viable alternative at input " + e.Token.Display()
}

func (e *NoViableAltError) OffendingToken() Token { return e.Token }

func (e *NoViableAltError) RuleName() string { return e.Rule }

// InputMismatchError is raised when the current token is excluded by
// the expected set of an inline match or a loop decision.
type InputMismatchError struct {
	Token    Token
	Rule     string
	Expected grammar.SymbolSet

	// expectedText is the Expected set rendered through the grammar's
	// symbol names, captured at construction.
	expectedText string
}

func (e *InputMismatchError) Error() string {
	text := e.expectedText
	if text == "" {
		text = e.Expected.Describe(nil)
	}
	return "mismatched input " + e.Token.Display() + " expecting " + text
}

func (e *InputMismatchError) OffendingToken() Token { return e.Token }

func (e *InputMismatchError) RuleName() string { return e.Rule }

// FailedPredicateError is raised when a semantic predicate evaluates
// false (or fails to evaluate). Never repaired: always reported and
// unwound.
type FailedPredicateError struct {
	Token     Token
	Rule      string
	Predicate string

	// Err is the evaluation error, if the predicate failed to run
	// rather than returning false.
	Err error
}

func (e *FailedPredicateError) Error() string {
	msg := "rule " + e.Rule + " failed predicate: {" + e.Predicate + "}?"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FailedPredicateError) OffendingToken() Token { return e.Token }

func (e *FailedPredicateError) RuleName() string { return e.Rule }

func (e *FailedPredicateError) Unwrap() error { return e.Err }

// ParseAbortedError wraps a recognition error the active strategy
// refused to recover from. The driver never catches it at a rule
// boundary; it unwinds the whole parse.
type ParseAbortedError struct {
	Cause RecognitionError
}

func (e *ParseAbortedError) Error() string {
	return "descent: parse aborted: " + e.Cause.Error()
}

func (e *ParseAbortedError) Unwrap() error { return e.Cause }
