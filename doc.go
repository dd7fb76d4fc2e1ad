// Package descent is a table-driven predictive recursive-descent
// parser runtime with pluggable error recovery.
//
// A Parser interprets a grammar over a TokenStream and consults its
// Strategy at four points: before every inline terminal match, when a
// recognition error reaches a rule boundary, at the top of every loop
// decision, and after every successful consumption. The default
// strategy repairs one-token discrepancies in place (deleting an
// extraneous token or fabricating a missing one) and otherwise
// resynchronizes the input to the follow set of the rule-invocation
// stack, so a parse always runs to completion with diagnostics rather
// than stopping at the first error. The bail strategy does the
// opposite: it aborts on the first error and is the cheap way to ask
// whether an input parses at all.
package descent
