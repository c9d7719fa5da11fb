package usergroup

import (
	"fmt"
	"strconv"
	"strings"
)

type parser struct {
	expr string
	pos  int
}

// Parse parses a group expression:
//
//	group ::= name ["[" param (";" param)* "]"]
//	param ::= ("exclude" | "include") "=" value ("," value)*
//	value ::= int | "@" username | group
func Parse(expr string) (*Group, error) {
	p := &parser{expr: strings.TrimSpace(expr)}

	g, err := p.group()
	if err != nil {
		return nil, err
	}

	if p.pos < len(p.expr) {
		return nil, p.errorf("unexpected %q", p.expr[p.pos:])
	}

	return g, nil
}

func (p *parser) group() (*Group, error) {
	start := p.pos
	name := p.identifier()
	if name == "" {
		return nil, p.errorf("expected group name")
	}
	if isNumber(name) {
		p.pos = start
		return nil, p.errorf("group name %q is a number", name)
	}

	g := &Group{Name: name}
	if !p.accept('[') {
		return g, nil
	}

	for {
		if err := p.param(g); err != nil {
			return nil, err
		}

		if p.accept(';') {
			continue
		}
		if p.accept(']') {
			return g, nil
		}

		return nil, p.errorf("expected ';' or ']'")
	}
}

func (p *parser) param(g *Group) error {
	key := p.identifier()

	var target *[]Value
	switch key {
	case "exclude":
		target = &g.Exclude
	case "include":
		target = &g.Include
	default:
		return p.errorf("unknown parameter %q", key)
	}

	if !p.accept('=') {
		return p.errorf("expected '='")
	}

	for {
		v, err := p.value()
		if err != nil {
			return err
		}
		*target = append(*target, v)

		if !p.accept(',') {
			return nil
		}
	}
}

func (p *parser) value() (Value, error) {
	if p.accept('@') {
		name := p.identifier()
		if name == "" {
			return Value{}, p.errorf("expected username")
		}
		return Value{Kind: ValueUsername, Username: name}, nil
	}

	start := p.pos
	word := p.identifier()
	if id, err := strconv.ParseInt(word, 10, 64); err == nil {
		return Value{Kind: ValueID, ID: id}, nil
	}

	p.pos = start
	g, err := p.group()
	if err != nil {
		return Value{}, err
	}

	return Value{Kind: ValueGroup, Group: g}, nil
}

func (p *parser) identifier() string {
	start := p.pos
	for p.pos < len(p.expr) && isIdentPart(p.expr[p.pos]) {
		p.pos++
	}

	return p.expr[start:p.pos]
}

func (p *parser) accept(c byte) bool {
	if p.pos < len(p.expr) && p.expr[p.pos] == c {
		p.pos++
		return true
	}

	return false
}

func (p *parser) errorf(reason string, args ...any) *GrammarError {
	return &GrammarError{Expr: p.expr, Pos: p.pos, Reason: fmt.Sprintf(reason, args...)}
}

func isIdentPart(c byte) bool {
	return c == '_' || c == '-' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isNumber(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}
