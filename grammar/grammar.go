package grammar

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Sentinel errors.
var (
	// ErrUnknownSymbol is returned when a terminal names a token type the
	// symbol table does not define.
	ErrUnknownSymbol = errors.New("grammar: unknown symbol")

	// ErrUnknownRule is returned when a rule reference cannot be resolved.
	ErrUnknownRule = errors.New("grammar: unknown rule")

	// ErrDuplicateRule is returned when two rules share a name.
	ErrDuplicateRule = errors.New("grammar: duplicate rule")

	// ErrEmptyLoop is returned when a loop body can match empty input,
	// which would let the generated loop spin without consuming.
	ErrEmptyLoop = errors.New("grammar: loop body can match empty input")

	// ErrBadPredicate is returned when a predicate expression does not
	// compile.
	ErrBadPredicate = errors.New("grammar: bad predicate")
)

// Element is one component of a rule body.
type Element interface {
	element()
}

// Term matches a single terminal by symbol name. The token type is
// resolved against the symbol table when the grammar is built.
type Term struct {
	Name string
	typ  lexer.TokenType
}

// Ref invokes another rule.
type Ref struct {
	Rule  string
	index int
}

// Seq groups elements into an anonymous sequence.
type Seq struct {
	Elems []Element
}

// Loop matches its body zero or more times.
type Loop struct {
	Body []Element
}

// Choice matches the first viable alternative, in order. An empty
// alternative makes the choice optional.
type Choice struct {
	Alts [][]Element
}

// Pred is a semantic predicate: an expr-lang expression evaluated
// against the parser's predicate environment. A false result fails the
// surrounding rule.
type Pred struct {
	Source  string
	program *vm.Program
}

func (*Term) element()   {}
func (*Ref) element()    {}
func (*Seq) element()    {}
func (*Loop) element()   {}
func (*Choice) element() {}
func (*Pred) element()   {}

// T builds a terminal element for the named symbol.
func T(name string) *Term { return &Term{Name: name} }

// R builds a reference to the named rule.
func R(rule string) *Ref { return &Ref{Rule: rule} }

// Star builds a zero-or-more loop over the given body.
func Star(body ...Element) *Loop { return &Loop{Body: body} }

// Plus builds a one-or-more repetition: the body followed by a star
// loop over the same body.
func Plus(body ...Element) *Seq {
	elems := make([]Element, 0, len(body)+1)
	elems = append(elems, body...)
	elems = append(elems, Star(body...))
	return &Seq{Elems: elems}
}

// Alt builds an ordered choice over the given alternatives.
func Alt(alts ...[]Element) *Choice { return &Choice{Alts: alts} }

// S groups elements into one alternative for Alt.
func S(elems ...Element) []Element { return elems }

// Opt makes the given body optional.
func Opt(body ...Element) *Choice { return Alt(body, S()) }

// When builds a semantic predicate from expr-lang source.
func When(source string) *Pred { return &Pred{Source: source} }

// Type returns the resolved token type of the terminal.
func (t *Term) Type() lexer.TokenType { return t.typ }

// Index returns the resolved index of the referenced rule.
func (r *Ref) Index() int { return r.index }

// Eval runs the compiled predicate against env and reports whether it
// held. A nil env is treated as empty.
func (p *Pred) Eval(env map[string]any) (bool, error) {
	if env == nil {
		env = map[string]any{}
	}
	out, err := expr.Run(p.program, env)
	if err != nil {
		return false, err
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("%w: %q is not boolean", ErrBadPredicate, p.Source)
	}
	return ok, nil
}

// Rule is one named production.
type Rule struct {
	Name  string
	Elems []Element
	index int
}

// Index returns the rule's position in the grammar's rule table.
func (r *Rule) Index() int { return r.index }

// Grammar is a compiled, validated rule table. It is immutable after
// Build and safe to share across parsers.
type Grammar struct {
	rules   []*Rule
	byName  map[string]*Rule
	symbols map[string]lexer.TokenType
	names   map[lexer.TokenType]string
}

// Rule returns the named rule, or nil.
func (g *Grammar) Rule(name string) *Rule { return g.byName[name] }

// RuleAt returns the rule with the given index.
func (g *Grammar) RuleAt(index int) *Rule { return g.rules[index] }

// Rules returns the number of rules.
func (g *Grammar) Rules() int { return len(g.rules) }

// TokenType resolves a symbol name against the grammar's symbol table.
func (g *Grammar) TokenType(name string) (lexer.TokenType, bool) {
	t, ok := g.symbols[name]
	return t, ok
}

// SymbolName returns the display name for a token type, quoted for use
// in diagnostics: 'y' for a named symbol, <EOF> for end of input, and
// the numeric type for anything unknown.
func (g *Grammar) SymbolName(t lexer.TokenType) string {
	if t == lexer.EOF {
		return "<EOF>"
	}
	if name, ok := g.names[t]; ok {
		return "'" + name + "'"
	}
	return fmt.Sprintf("<type %d>", t)
}

// Builder accumulates rules and produces a validated Grammar.
type Builder struct {
	symbols map[string]lexer.TokenType
	rules   []*Rule
}

// NewBuilder creates a builder over the given symbol table, typically
// the Symbols() map of a participle lexer definition.
func NewBuilder(symbols map[string]lexer.TokenType) *Builder {
	copied := make(map[string]lexer.TokenType, len(symbols))
	for name, t := range symbols {
		copied[name] = t
	}
	return &Builder{symbols: copied}
}

// Rule adds a production. Builder calls chain.
func (b *Builder) Rule(name string, elems ...Element) *Builder {
	b.rules = append(b.rules, &Rule{Name: name, Elems: elems})
	return b
}

// Build resolves symbols and rule references, compiles predicates, and
// validates the grammar.
func (b *Builder) Build() (*Grammar, error) {
	g := &Grammar{
		symbols: b.symbols,
		byName:  make(map[string]*Rule, len(b.rules)),
		names:   make(map[lexer.TokenType]string, len(b.symbols)),
	}
	for name, t := range b.symbols {
		g.names[t] = name
	}
	for i, r := range b.rules {
		if _, exists := g.byName[r.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRule, r.Name)
		}
		r.index = i
		g.rules = append(g.rules, r)
		g.byName[r.Name] = r
	}
	for _, r := range g.rules {
		if err := g.resolve(r.Name, r.Elems); err != nil {
			return nil, err
		}
	}
	for _, r := range g.rules {
		if err := g.validateLoops(r.Name, r.Elems); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Grammar) resolve(rule string, elems []Element) error {
	for _, e := range elems {
		switch e := e.(type) {
		case *Term:
			t, ok := g.symbols[e.Name]
			if !ok {
				return fmt.Errorf("%w: %q in rule %q", ErrUnknownSymbol, e.Name, rule)
			}
			e.typ = t
		case *Ref:
			target, ok := g.byName[e.Rule]
			if !ok {
				return fmt.Errorf("%w: %q referenced from rule %q", ErrUnknownRule, e.Rule, rule)
			}
			e.index = target.index
		case *Seq:
			if err := g.resolve(rule, e.Elems); err != nil {
				return err
			}
		case *Loop:
			if err := g.resolve(rule, e.Body); err != nil {
				return err
			}
		case *Choice:
			for _, alt := range e.Alts {
				if err := g.resolve(rule, alt); err != nil {
					return err
				}
			}
		case *Pred:
			if e.program != nil {
				continue
			}
			program, err := expr.Compile(e.Source, expr.AllowUndefinedVariables())
			if err != nil {
				return fmt.Errorf("%w: %q in rule %q: %w", ErrBadPredicate, e.Source, rule, err)
			}
			e.program = program
		}
	}
	return nil
}

func (g *Grammar) validateLoops(rule string, elems []Element) error {
	for _, e := range elems {
		switch e := e.(type) {
		case *Seq:
			if err := g.validateLoops(rule, e.Elems); err != nil {
				return err
			}
		case *Loop:
			if _, eps := g.First(e.Body); eps {
				return fmt.Errorf("%w: in rule %q", ErrEmptyLoop, rule)
			}
			if err := g.validateLoops(rule, e.Body); err != nil {
				return err
			}
		case *Choice:
			for _, alt := range e.Alts {
				if err := g.validateLoops(rule, alt); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
