// Package grammar holds the rule tables a descent parser runs over:
// rules built from terminals, rule references, loops, ordered choices,
// and semantic predicates, compiled and validated once, then queried
// for FIRST sets, continuation sets, and resynchronization sets during
// parsing and error recovery.
//
// Terminals are resolved against a symbol table in the participle
// convention (name to lexer.TokenType, as returned by a lexer
// Definition's Symbols method). Grammars are data: LoadYAML builds the
// same tables from a YAML document that the Builder API builds in code.
package grammar
