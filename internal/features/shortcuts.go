package features

import (
	"strings"

	"userbot/internal/core/registry"
)

// Shortcuts expands inline markers in outgoing messages.
func Shortcuts() *registry.Shortcuts {
	s := registry.NewShortcuts("builtin")
	s.MustAdd(registry.Shortcut{
		Name:    "shrug",
		Pattern: `:shrug:`,
		Doc:     `Replaces :shrug: with ¯\_(ツ)_/¯`,
		Handler: func() string { return `¯\_(ツ)_/¯` },
	})
	s.MustAdd(registry.Shortcut{
		Name:    "tableflip",
		Pattern: `:tableflip:`,
		Doc:     "Replaces :tableflip: with (╯°□°)╯︵ ┻━┻",
		Handler: func() string { return "(╯°□°)╯︵ ┻━┻" },
	})
	s.MustAdd(registry.Shortcut{
		Name:    "upper",
		Pattern: `:upper (?P<text>[^:]+):`,
		Doc:     "Turns :upper text: into TEXT",
		Handler: func(m registry.Match) string { return strings.ToUpper(m.Named["text"]) },
	})

	return s
}
