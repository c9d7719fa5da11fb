package registry

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"userbot/internal/core/domain"
)

type MatcherKind int

const (
	LiteralMatcher MatcherKind = iota
	PatternMatcher
)

// Matcher decides which messages invoke a command: either a list of literal
// command words or one regular expression anchored after the prefix.
type Matcher struct {
	kind   MatcherKind
	tokens []string
	expr   string
}

// Literal matches messages whose first word after the prefix is exactly one of tokens.
func Literal(tokens ...string) Matcher {
	return Matcher{kind: LiteralMatcher, tokens: tokens}
}

// Pattern matches messages where expr matches right after the prefix.
func Pattern(expr string) Matcher {
	return Matcher{kind: PatternMatcher, expr: expr}
}

func (m Matcher) Kind() MatcherKind {
	return m.kind
}

// Tokens returns the literal tokens of a literal matcher.
func (m Matcher) Tokens() []string {
	return slices.Clone(m.tokens)
}

func (m Matcher) Expr() string {
	return m.expr
}

// String returns the first token, or the expression of a pattern matcher.
func (m Matcher) String() string {
	switch m.kind {
	case LiteralMatcher:
		if len(m.tokens) == 0 {
			return ""
		}
		return m.tokens[0]
	case PatternMatcher:
		return m.expr
	default:
		panic(fmt.Sprintf("unknown matcher kind %d", m.kind))
	}
}

func (m Matcher) validate() error {
	switch m.kind {
	case LiteralMatcher:
		if len(m.tokens) == 0 {
			return fmt.Errorf("literal matcher without tokens")
		}
		for _, t := range m.tokens {
			if t == "" || strings.ContainsFunc(t, unicode.IsSpace) {
				return fmt.Errorf("invalid command token %q", t)
			}
		}
		return nil
	case PatternMatcher:
		if _, err := regexp.Compile(m.expr); err != nil {
			return fmt.Errorf("invalid command pattern: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown matcher kind %d", m.kind)
	}
}

// compiled is a matcher ready for dispatch, with the prefixes backfilled.
type compiled struct {
	Matcher
	prefixes string
	re       *regexp.Regexp
}

func (m Matcher) compile(prefixes string) (compiled, error) {
	c := compiled{Matcher: m, prefixes: prefixes}

	switch m.kind {
	case LiteralMatcher:
		return c, nil
	case PatternMatcher:
		re, err := regexp.Compile("^" + prefixPattern(prefixes) + "(?:" + m.expr + ")")
		if err != nil {
			return c, fmt.Errorf("invalid command pattern: %w", err)
		}
		c.re = re
		return c, nil
	default:
		return c, fmt.Errorf("unknown matcher kind %d", m.kind)
	}
}

func (c compiled) match(text string) (domain.CommandObject, bool) {
	switch c.kind {
	case LiteralMatcher:
		obj, ok := domain.ParseCommand(text, c.prefixes)
		if !ok || !slices.Contains(c.tokens, obj.Command) {
			return domain.CommandObject{}, false
		}
		return obj, true
	case PatternMatcher:
		m := c.re.FindStringSubmatch(text)
		if m == nil {
			return domain.CommandObject{}, false
		}
		obj, _ := domain.ParseCommand(text, c.prefixes)
		obj.Match = m
		return obj, true
	default:
		panic(fmt.Sprintf("unknown matcher kind %d", c.kind))
	}
}
