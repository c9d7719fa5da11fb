// Package usage parses the small DSL commands use to describe their arguments,
// e.g. "<'get'|'set'> <name> [text...]", and turns it into help text, a
// grammar for a general purpose parser, and bound argument values.
package usage

import (
	"errors"
	"fmt"
	"strings"

	"userbot/internal/core/domain"
)

// ReservedIdentifier may not be used as a variable name. It used to refer to
// the raw argument string, which handlers now get from domain.CommandObject.
const ReservedIdentifier = "args"

const ellipsis = "..."

type AlternativeKind int

const (
	Literal AlternativeKind = iota
	Variable
	Rest
)

type Alternative struct {
	Kind  AlternativeKind
	Value string
}

func (a Alternative) String() string {
	switch a.Kind {
	case Literal:
		return "'" + a.Value + "'"
	case Variable:
		return a.Value
	case Rest:
		return a.Value + ellipsis
	default:
		panic(fmt.Sprintf("usage: unknown alternative kind %d", a.Kind))
	}
}

type Argument struct {
	Required     bool
	Repeated     bool
	Alternatives []Alternative
}

// IsRest reports whether the argument consumes the remainder of the input.
func (a Argument) IsRest() bool {
	return len(a.Alternatives) == 1 && a.Alternatives[0].Kind == Rest
}

func (a Argument) String() string {
	alternatives := make([]string, len(a.Alternatives))
	for i, alt := range a.Alternatives {
		alternatives[i] = alt.String()
	}

	open, closing := "[", "]"
	if a.Required {
		open, closing = "<", ">"
	}

	s := open + strings.Join(alternatives, "|") + closing
	if a.Repeated {
		s += ellipsis
	}

	return s
}

type Variant struct {
	Arguments []Argument
}

func (v Variant) String() string {
	arguments := make([]string, len(v.Arguments))
	for i, a := range v.Arguments {
		arguments[i] = a.String()
	}

	return strings.Join(arguments, " ")
}

// Usage is the parsed form of a usage string. Each variant is one accepted phrasing.
type Usage struct {
	Variants []Variant
}

// String formats u canonically; parsing the result yields an equal Usage.
func (u *Usage) String() string {
	variants := make([]string, len(u.Variants))
	for i, v := range u.Variants {
		variants[i] = v.String()
	}

	return strings.Join(variants, " | ")
}

// GrammarError pinpoints the malformed fragment of a usage string.
type GrammarError struct {
	DSL      string
	Pos      int
	Fragment string
	Reason   string
}

func (e *GrammarError) Error() string {
	return fmt.Sprintf("invalid usage %q at offset %d near %q: %s", e.DSL, e.Pos, e.Fragment, e.Reason)
}

func (e *GrammarError) Unwrap() error {
	return domain.ErrGrammar
}

// ErrArgumentMismatch is returned by Bind when no variant accepts the input.
var ErrArgumentMismatch = errors.New("arguments do not match usage")
