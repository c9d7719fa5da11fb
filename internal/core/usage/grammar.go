package usage

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	tokenTerminal = "WORD"
	restTerminal  = "REST"
)

// Grammar renders u as a Lark grammar: one start alternative per variant and a
// shared rule per identifier. An identifier used both as a single token and as
// a rest argument cannot share a rule and is reported as a *GrammarError.
func Grammar(u *Usage) (string, error) {
	rules := make(map[string]string)
	dsl := u.String()

	define := func(name, terminal string) (string, error) {
		rule := ruleName(name)
		if existing, ok := rules[rule]; ok && existing != terminal {
			return "", &GrammarError{
				DSL:      dsl,
				Pos:      strings.Index(dsl, name),
				Fragment: name,
				Reason:   fmt.Sprintf("identifier %q used as both %s and %s", name, existing, terminal),
			}
		}
		rules[rule] = terminal

		return rule, nil
	}

	sb := &strings.Builder{}
	variants := make([]string, len(u.Variants))

	for i, v := range u.Variants {
		variants[i] = "variant_" + strconv.Itoa(i)

		parts := make([]string, 0, len(v.Arguments))
		for _, a := range v.Arguments {
			alternatives := make([]string, 0, len(a.Alternatives))
			for _, alt := range a.Alternatives {
				switch alt.Kind {
				case Literal:
					alternatives = append(alternatives, strconv.Quote(alt.Value))
				case Variable:
					rule, err := define(alt.Value, tokenTerminal)
					if err != nil {
						return "", err
					}
					alternatives = append(alternatives, rule)
				case Rest:
					rule, err := define(alt.Value, restTerminal)
					if err != nil {
						return "", err
					}
					alternatives = append(alternatives, rule)
				}
			}

			part := "(" + strings.Join(alternatives, " | ") + ")"
			switch {
			case a.Required && a.Repeated:
				part += "+"
			case a.Repeated:
				part += "*"
			case !a.Required:
				part += "?"
			}
			parts = append(parts, part)
		}

		fmt.Fprintf(sb, "%s: %s\n", variants[i], strings.Join(parts, " "))
	}

	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(sb, "%s: %s\n", name, rules[name])
	}

	header := "start: " + strings.Join(variants, "\n     | ") + "\n"
	footer := tokenTerminal + `: /\S+/` + "\n" +
		restTerminal + `: /\S[\s\S]*/` + "\n" +
		"%import common.WS\n%ignore WS\n"

	return header + sb.String() + footer, nil
}

func ruleName(name string) string {
	return "arg_" + strings.ToLower(strings.ReplaceAll(name, "-", "_"))
}
