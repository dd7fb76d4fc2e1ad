package descent

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrorListener receives syntax errors as the strategy reports them.
// Listeners are fire-and-forget: the parser does not inspect their
// behavior and continues regardless.
type ErrorListener interface {
	// SyntaxError delivers one diagnostic. tok is the offending token,
	// msg the formatted message, and err the underlying recognition
	// error when one exists (repair reports such as a deleted
	// extraneous token carry a nil err).
	SyntaxError(tok Token, msg string, err RecognitionError)
}

// LogListener writes syntax errors to a zap logger.
type LogListener struct {
	log *zap.Logger
}

// NewLogListener builds a listener over the given logger.
func NewLogListener(log *zap.Logger) *LogListener {
	return &LogListener{log: log}
}

func (l *LogListener) SyntaxError(tok Token, msg string, _ RecognitionError) {
	l.log.Error("syntax error",
		zap.String("pos", tok.Pos.String()),
		zap.String("token", tok.Display()),
		zap.String("msg", msg))
}

// CollectListener accumulates every reported error for inspection after
// the parse. Not safe for concurrent use; one collector per parse.
type CollectListener struct {
	errs []error
}

func (l *CollectListener) SyntaxError(tok Token, msg string, _ RecognitionError) {
	l.errs = append(l.errs, fmt.Errorf("%s: %s", tok.Pos, msg))
}

// Count returns the number of errors collected.
func (l *CollectListener) Count() int { return len(l.errs) }

// Errors returns the collected errors in report order.
func (l *CollectListener) Errors() []error {
	out := make([]error, len(l.errs))
	copy(out, l.errs)
	return out
}

// Err combines the collected errors into one, or nil when the parse was
// clean.
func (l *CollectListener) Err() error {
	return multierr.Combine(l.errs...)
}
