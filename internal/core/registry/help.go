package registry

import (
	"cmp"
	"fmt"
	"html"
	"slices"
	"strings"

	"userbot/internal/core/domain"
	"userbot/internal/core/port"
	"userbot/internal/core/usage"
)

const helpCategory = "About"

func (c *Commands) helpCommand(e *Engine) Command {
	return Command{
		Matcher:  Literal(helpToken),
		Category: helpCategory,
		Usage:    "[name]",
		Doc:      "Lists the available commands, or shows how to use one of them",
		Handler: func(args usage.Arguments, tr port.Translator, icons domain.Icons) string {
			if name := args.Get("name"); name != "" {
				return c.describe(e.displayPrefix(), strings.TrimLeft(name, e.Prefixes), tr, icons)
			}
			return c.overview(e.displayPrefix(), tr, icons)
		},
	}
}

// overview lists the visible commands grouped by category, sorted by
// category and then by first token.
func (c *Commands) overview(prefix string, tr port.Translator, icons domain.Icons) string {
	c.mu.RLock()
	visible := make([]*command, 0, len(c.handlers))
	for _, h := range c.handlers {
		if !h.Hidden {
			visible = append(visible, h)
		}
	}
	c.mu.RUnlock()

	slices.SortStableFunc(visible, func(a, b *command) int {
		return cmp.Or(
			cmp.Compare(a.Category, b.Category),
			cmp.Compare(a.Matcher.String(), b.Matcher.String()),
		)
	})

	var b strings.Builder
	b.WriteString(prefixed(icons.Info, "<b>"+html.EscapeString(tr.Gettext("Available commands"))+"</b>"))

	category := ""
	for _, h := range visible {
		if h.Category != category {
			category = h.Category
			fmt.Fprintf(&b, "\n\n<b>%s</b>", html.EscapeString(tr.Gettext(category)))
		}

		fmt.Fprintf(&b, "\n<code>%s</code>", html.EscapeString(signature(prefix, h)))
		if h.Doc != "" {
			fmt.Fprintf(&b, ": %s", html.EscapeString(firstLine(tr.Gettext(h.Doc))))
		}
	}

	return b.String()
}

// describe prints the full usage and documentation of the command invoked as name.
func (c *Commands) describe(prefix, name string, tr port.Translator, icons domain.Icons) string {
	h, _, ok := c.find(prefix + name)
	if !ok {
		return prefixed(icons.Warning, fmt.Sprintf(html.EscapeString(tr.Gettext("No such command: %s")),
			"<code>"+html.EscapeString(name)+"</code>"))
	}

	var b strings.Builder
	if h.usage == nil {
		fmt.Fprintf(&b, "<code>%s</code>", html.EscapeString(signature(prefix, h)))
	} else {
		for i, v := range h.usage.Variants {
			if i > 0 {
				b.WriteString("\n")
			}
			line := prefix + h.Matcher.String()
			if s := v.String(); s != "" {
				line += " " + s
			}
			fmt.Fprintf(&b, "<code>%s</code>", html.EscapeString(line))
		}
	}

	if tokens := h.Matcher.Tokens(); len(tokens) > 1 {
		fmt.Fprintf(&b, "\n%s %s", html.EscapeString(tr.Gettext("Aliases:")),
			html.EscapeString(strings.Join(tokens[1:], ", ")))
	}

	if h.Doc != "" {
		b.WriteString("\n\n" + html.EscapeString(tr.Gettext(h.Doc)))
	}

	return b.String()
}

func signature(prefix string, h *command) string {
	s := prefix + h.Matcher.String()
	if h.usage != nil {
		s += " " + h.usage.String()
	}

	return s
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
