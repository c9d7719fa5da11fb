package usage

import (
	"fmt"
	"strings"
	"unicode"
)

// Arguments are the values bound from an argument string by Bind.
type Arguments struct {
	// Variant is the index of the usage variant that matched.
	Variant  int
	Values   map[string][]string
	literals map[string]bool
}

// Get returns the first value bound to name, or "".
func (a Arguments) Get(name string) string {
	if v := a.Values[name]; len(v) > 0 {
		return v[0]
	}

	return ""
}

// All returns every value bound to a repeated argument.
func (a Arguments) All(name string) []string {
	return a.Values[name]
}

func (a Arguments) Has(name string) bool {
	return len(a.Values[name]) > 0
}

// Literal reports whether the quoted literal value was matched.
func (a Arguments) Literal(value string) bool {
	return a.literals[value]
}

type token struct {
	text  string
	start int
}

type binding struct {
	name    string
	value   string
	literal bool
}

type binder struct {
	input    string
	tokens   []token
	args     []Argument
	bindings []binding
}

// Bind matches args against the variants of u in order and returns the values
// of the first one accepting the whole input. Rest arguments receive the
// remaining input verbatim.
func Bind(u *Usage, args string) (Arguments, error) {
	input := strings.TrimRightFunc(args, unicode.IsSpace)
	tokens := tokenize(input)

	for i, v := range u.Variants {
		b := &binder{input: input, tokens: tokens, args: v.Arguments}
		if !b.match(0, 0) {
			continue
		}

		bound := Arguments{
			Variant:  i,
			Values:   make(map[string][]string),
			literals: make(map[string]bool),
		}
		for _, bnd := range b.bindings {
			if bnd.literal {
				bound.literals[bnd.value] = true
				continue
			}
			bound.Values[bnd.name] = append(bound.Values[bnd.name], bnd.value)
		}

		return bound, nil
	}

	return Arguments{}, fmt.Errorf("%w: %q", ErrArgumentMismatch, input)
}

func (b *binder) match(ai, ti int) bool {
	if ai == len(b.args) {
		return ti == len(b.tokens)
	}

	a := b.args[ai]

	if a.IsRest() {
		if ti == len(b.tokens) {
			return !a.Required
		}

		b.bindings = append(b.bindings, binding{name: a.Alternatives[0].Value, value: b.input[b.tokens[ti].start:]})
		return true
	}

	minimum := 0
	if a.Required {
		minimum = 1
	}

	var repeat func(count, ti int) bool
	repeat = func(count, ti int) bool {
		if (a.Repeated || count == 0) && ti < len(b.tokens) {
			for _, alt := range a.Alternatives {
				mark := len(b.bindings)

				switch alt.Kind {
				case Literal:
					if b.tokens[ti].text != alt.Value {
						continue
					}
					b.bindings = append(b.bindings, binding{value: alt.Value, literal: true})
				case Variable:
					b.bindings = append(b.bindings, binding{name: alt.Value, value: b.tokens[ti].text})
				case Rest:
					continue
				}

				if repeat(count+1, ti+1) {
					return true
				}
				b.bindings = b.bindings[:mark]
			}
		}

		if count >= minimum {
			return b.match(ai+1, ti)
		}

		return false
	}

	return repeat(0, ti)
}

func tokenize(input string) []token {
	var tokens []token

	start := -1
	for i, r := range input {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, token{text: input[start:i], start: start})
				start = -1
			}
			continue
		}

		if start < 0 {
			start = i
		}
	}

	if start >= 0 {
		tokens = append(tokens, token{text: input[start:], start: start})
	}

	return tokens
}
