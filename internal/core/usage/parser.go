package usage

import (
	"strings"
)

type parser struct {
	dsl string
	pos int
}

// Parse parses a usage string. Any violation of the grammar is reported as a
// *GrammarError; usage strings are checked once at registration time.
func Parse(dsl string) (*Usage, error) {
	p := &parser{dsl: dsl}
	u := &Usage{}

	for {
		v, err := p.variant()
		if err != nil {
			return nil, err
		}
		u.Variants = append(u.Variants, v)

		p.skipSpace()
		if p.eof() {
			return u, nil
		}

		if p.peek() != '|' {
			return nil, p.errorAt(p.pos, "unexpected character")
		}
		p.pos++
	}
}

// MustParse is Parse for usage strings known at compile time.
func MustParse(dsl string) *Usage {
	u, err := Parse(dsl)
	if err != nil {
		panic(err)
	}

	return u
}

func (p *parser) variant() (Variant, error) {
	var v Variant
	var positions []int

	for {
		p.skipSpace()
		if p.eof() || p.peek() == '|' {
			break
		}

		start := p.pos
		a, err := p.argument()
		if err != nil {
			return Variant{}, err
		}

		v.Arguments = append(v.Arguments, a)
		positions = append(positions, start)
	}

	return v, p.validate(v, positions)
}

func (p *parser) validate(v Variant, positions []int) error {
	last := len(v.Arguments) - 1
	seenOptional := false

	for i, a := range v.Arguments {
		terminal := i == last && (a.Repeated || a.IsRest())

		if a.IsRest() && i != last {
			return p.errorAt(positions[i], "rest argument must be the last argument")
		}

		if !a.Required {
			seenOptional = true
			continue
		}

		if seenOptional && !terminal {
			return p.errorAt(positions[i], "required argument follows an optional one")
		}
	}

	return nil
}

func (p *parser) argument() (Argument, error) {
	start := p.pos

	var closing byte
	var a Argument

	switch p.peek() {
	case '<':
		closing = '>'
		a.Required = true
	case '[':
		closing = ']'
	default:
		return Argument{}, p.errorAt(p.pos, "expected '<' or '['")
	}
	p.pos++

	for {
		alt, err := p.alternative(closing)
		if err != nil {
			return Argument{}, err
		}
		a.Alternatives = append(a.Alternatives, alt)

		p.skipSpace()
		if p.eof() {
			return Argument{}, p.errorAt(start, "unterminated argument")
		}

		c := p.peek()
		p.pos++

		if c == closing {
			break
		}

		switch c {
		case '|':
			continue
		case '<', '[':
			return Argument{}, p.errorAt(p.pos-1, "nested brackets")
		default:
			return Argument{}, p.errorAt(p.pos-1, "mismatched bracket")
		}
	}

	if strings.HasPrefix(p.dsl[p.pos:], ellipsis) {
		p.pos += len(ellipsis)
		a.Repeated = true
	}

	for _, alt := range a.Alternatives {
		if alt.Kind != Rest {
			continue
		}

		if len(a.Alternatives) > 1 {
			return Argument{}, p.errorAt(start, "rest argument cannot have alternatives")
		}

		if a.Repeated {
			return Argument{}, p.errorAt(start, "rest argument cannot be repeated")
		}
	}

	return a, nil
}

func (p *parser) alternative(closing byte) (Alternative, error) {
	p.skipSpace()
	if p.eof() {
		return Alternative{}, p.errorAt(p.pos, "unterminated argument")
	}

	start := p.pos
	c := p.peek()

	switch {
	case c == '\'':
		end := strings.IndexByte(p.dsl[start+1:], '\'')
		if end < 0 {
			return Alternative{}, p.errorAt(start, "unterminated literal")
		}

		value := p.dsl[start+1 : start+1+end]
		if value == "" {
			return Alternative{}, p.errorAt(start, "empty literal")
		}

		p.pos = start + end + 2
		return Alternative{Kind: Literal, Value: value}, nil
	case c == '<' || c == '[':
		return Alternative{}, p.errorAt(start, "nested brackets")
	case c == closing || c == '|':
		return Alternative{}, p.errorAt(start, "empty alternative")
	case isIdentStart(c):
		for !p.eof() && isIdentPart(p.peek()) {
			p.pos++
		}

		name := p.dsl[start:p.pos]
		if name == ReservedIdentifier {
			return Alternative{}, p.errorAt(start, "reserved identifier "+ReservedIdentifier)
		}

		if strings.HasPrefix(p.dsl[p.pos:], ellipsis) {
			p.pos += len(ellipsis)
			return Alternative{Kind: Rest, Value: name}, nil
		}

		return Alternative{Kind: Variable, Value: name}, nil
	default:
		return Alternative{}, p.errorAt(start, "unexpected character")
	}
}

func (p *parser) errorAt(pos int, reason string) *GrammarError {
	end := min(pos+10, len(p.dsl))
	return &GrammarError{
		DSL:      p.dsl,
		Pos:      pos,
		Fragment: p.dsl[pos:end],
		Reason:   reason,
	}
}

func (p *parser) skipSpace() {
	for !p.eof() && (p.peek() == ' ' || p.peek() == '\t' || p.peek() == '\n') {
		p.pos++
	}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.dsl)
}

func (p *parser) peek() byte {
	return p.dsl[p.pos]
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c == '-' || (c >= '0' && c <= '9')
}
