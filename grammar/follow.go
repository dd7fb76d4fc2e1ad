package grammar

import "github.com/alecthomas/participle/v2/lexer"

// Frame is one entry of the parser's invocation stack. Frames are held
// in an explicit vector owned by the parser, pushed on rule and block
// entry and popped on exit; the enclosing frame is simply the previous
// vector entry, so there are no back-pointers to manage.
type Frame struct {
	// Rule is the rule index for a rule-body frame, -1 for an anonymous
	// block or loop-body frame.
	Rule int

	// Elems is the sequence the frame is executing.
	Elems []Element

	// Pos is the index of the next element to execute. The parser
	// advances Pos past an element before executing it, so a frame's
	// remainder is always the true continuation.
	Pos int

	// Loop is set when Elems is the body of this loop.
	Loop *Loop
}

// First computes the set of token types that can begin the given
// sequence, and whether the whole sequence can match empty input.
func (g *Grammar) First(elems []Element) (SymbolSet, bool) {
	return g.firstSeq(elems, make(map[*Rule]bool))
}

func (g *Grammar) firstSeq(elems []Element, seen map[*Rule]bool) (SymbolSet, bool) {
	set := SymbolSet{}
	for _, e := range elems {
		s, eps := g.firstElem(e, seen)
		set = set.Union(s)
		if !eps {
			return set, false
		}
	}
	return set, true
}

func (g *Grammar) firstElem(e Element, seen map[*Rule]bool) (SymbolSet, bool) {
	switch e := e.(type) {
	case *Term:
		return NewSymbolSet(e.typ), false
	case *Ref:
		r := g.rules[e.index]
		if seen[r] {
			// Recursive reference: contributes nothing new on this path
			// and cannot be empty without consuming.
			return SymbolSet{}, false
		}
		seen[r] = true
		s, eps := g.firstSeq(r.Elems, seen)
		delete(seen, r)
		return s, eps
	case *Seq:
		return g.firstSeq(e.Elems, seen)
	case *Loop:
		s, _ := g.firstSeq(e.Body, seen)
		return s, true
	case *Choice:
		set := SymbolSet{}
		eps := false
		for _, alt := range e.Alts {
			s, altEps := g.firstSeq(alt, seen)
			set = set.Union(s)
			eps = eps || altEps
		}
		return set, eps
	case *Pred:
		return SymbolSet{}, true
	}
	return SymbolSet{}, true
}

// Next computes the set of token types that may legally appear at the
// position encoded by the frame stack: the FIRST of each frame's
// remainder, walking outward while the remainder can match empty. At a
// loop decision point (loop-body frame with Pos 0) both the loop entry
// and the loop exit are viable, so the body's FIRST and the outer
// continuation are both included. End of input is included when the
// continuation can run off the top of the stack.
func (g *Grammar) Next(stack []Frame) SymbolSet {
	set := SymbolSet{}
	for i := len(stack) - 1; i >= 0; i-- {
		f := stack[i]
		s, eps := g.First(f.Elems[f.Pos:])
		set = set.Union(s)
		if f.Loop != nil {
			if f.Pos == 0 || eps {
				reenter, _ := g.First(f.Loop.Body)
				set = set.Union(reenter)
			}
			if f.Pos == 0 {
				// Decision point: exiting without entering is viable.
				eps = true
			}
		}
		if !eps {
			return set
		}
	}
	return set.Add(lexer.EOF)
}

// RecoverySet computes the resynchronization set for the given stack:
// the union, over every enclosing rule invocation, of the tokens that
// may follow that invocation, always including end of input. Consuming
// until a member of this set leaves the input at a position where some
// rule on the stack can legally continue.
func (g *Grammar) RecoverySet(stack []Frame) SymbolSet {
	set := NewSymbolSet(lexer.EOF)
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Rule >= 0 {
			// Everything above (and including) this rule frame is
			// abandoned; the caller's continuation is what can follow.
			set = set.Union(g.Next(stack[:i]))
		}
	}
	return set
}
