// Package usergroup resolves user-group expressions such as
// "admins[exclude=@bob;include=friends[exclude=42]]" to sets of user IDs.
package usergroup

import (
	"fmt"
	"strconv"
	"strings"

	"userbot/internal/core/domain"
)

type ValueKind int

const (
	ValueID ValueKind = iota
	ValueUsername
	ValueGroup
)

// Value is one element of an exclude or include list.
type Value struct {
	Kind     ValueKind
	ID       int64
	Username string
	Group    *Group
}

func (v Value) String() string {
	switch v.Kind {
	case ValueID:
		return strconv.FormatInt(v.ID, 10)
	case ValueUsername:
		return "@" + v.Username
	case ValueGroup:
		return v.Group.String()
	default:
		panic(fmt.Sprintf("usergroup: unknown value kind %d", v.Kind))
	}
}

// Group is a parsed group expression: the stored members of Name, minus
// Exclude, plus Include.
type Group struct {
	Name    string
	Exclude []Value
	Include []Value
}

// String formats g canonically, with at most one exclude and one include parameter.
func (g *Group) String() string {
	var params []string
	if len(g.Exclude) > 0 {
		params = append(params, "exclude="+joinValues(g.Exclude))
	}
	if len(g.Include) > 0 {
		params = append(params, "include="+joinValues(g.Include))
	}

	if len(params) == 0 {
		return g.Name
	}

	return g.Name + "[" + strings.Join(params, ";") + "]"
}

func joinValues(values []Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}

	return strings.Join(parts, ",")
}

type GrammarError struct {
	Expr   string
	Pos    int
	Reason string
}

func (e *GrammarError) Error() string {
	return fmt.Sprintf("invalid user group %q at position %d: %s", e.Expr, e.Pos, e.Reason)
}

func (e *GrammarError) Unwrap() error {
	return domain.ErrGrammar
}
