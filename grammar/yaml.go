package grammar

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
	"gopkg.in/yaml.v3"
)

// ErrBadDocument is returned when a grammar document is malformed.
var ErrBadDocument = errors.New("grammar: bad document")

// yamlGrammar is the on-the-wire shape of a grammar document:
//
//	rules:
//	  - name: list
//	    seq:
//	      - tok: "("
//	      - star: [{ref: item}]
//	      - tok: ")"
type yamlGrammar struct {
	Rules []yamlRule `yaml:"rules"`
}

type yamlRule struct {
	Name string     `yaml:"name"`
	Seq  []yamlElem `yaml:"seq"`
}

// yamlElem carries exactly one of its fields.
type yamlElem struct {
	Tok  string       `yaml:"tok,omitempty"`
	Ref  string       `yaml:"ref,omitempty"`
	Star []yamlElem   `yaml:"star,omitempty"`
	Plus []yamlElem   `yaml:"plus,omitempty"`
	Opt  []yamlElem   `yaml:"opt,omitempty"`
	Alt  [][]yamlElem `yaml:"alt,omitempty"`
	Pred string       `yaml:"pred,omitempty"`
}

// LoadYAML builds a grammar from a YAML document, resolving terminals
// against the given symbol table. Documents and builder calls produce
// identical grammars.
func LoadYAML(symbols map[string]lexer.TokenType, data []byte) (*Grammar, error) {
	var doc yamlGrammar
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadDocument, err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("%w: no rules", ErrBadDocument)
	}
	b := NewBuilder(symbols)
	for _, r := range doc.Rules {
		if r.Name == "" {
			return nil, fmt.Errorf("%w: rule with no name", ErrBadDocument)
		}
		elems, err := yamlElems(r.Name, r.Seq)
		if err != nil {
			return nil, err
		}
		b.Rule(r.Name, elems...)
	}
	return b.Build()
}

func yamlElems(rule string, in []yamlElem) ([]Element, error) {
	out := make([]Element, 0, len(in))
	for _, e := range in {
		elem, err := e.element(rule)
		if err != nil {
			return nil, err
		}
		out = append(out, elem)
	}
	return out, nil
}

func (e yamlElem) element(rule string) (Element, error) {
	set := 0
	for _, present := range []bool{
		e.Tok != "", e.Ref != "", e.Star != nil, e.Plus != nil,
		e.Opt != nil, e.Alt != nil, e.Pred != "",
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("%w: element in rule %q must set exactly one of tok/ref/star/plus/opt/alt/pred", ErrBadDocument, rule)
	}
	switch {
	case e.Tok != "":
		return T(e.Tok), nil
	case e.Ref != "":
		return R(e.Ref), nil
	case e.Star != nil:
		body, err := yamlElems(rule, e.Star)
		if err != nil {
			return nil, err
		}
		return Star(body...), nil
	case e.Plus != nil:
		body, err := yamlElems(rule, e.Plus)
		if err != nil {
			return nil, err
		}
		return Plus(body...), nil
	case e.Opt != nil:
		body, err := yamlElems(rule, e.Opt)
		if err != nil {
			return nil, err
		}
		return Opt(body...), nil
	case e.Alt != nil:
		alts := make([][]Element, 0, len(e.Alt))
		for _, alt := range e.Alt {
			elems, err := yamlElems(rule, alt)
			if err != nil {
				return nil, err
			}
			alts = append(alts, elems)
		}
		return Alt(alts...), nil
	default:
		return When(e.Pred), nil
	}
}
