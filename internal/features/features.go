// Package features holds the built-in commands, hooks and shortcuts.
package features

import (
	"time"

	"userbot/internal/core/port"
	"userbot/internal/core/registry"
)

const (
	categoryAbout = "About"
	categoryNotes = "Notes"
	categoryUsers = "Users"
	categoryAI    = "AI"
)

// Options configures the features that need more than the injected values.
type Options struct {
	// Generator enables the ask command when set.
	Generator       port.TextGenerator
	ConversationTTL time.Duration
	AskTimeout      time.Duration
}

// Commands returns every built-in command module merged into one.
func Commands(opts Options) (*registry.Commands, error) {
	c := registry.NewCommands("builtin")

	modules := []*registry.Commands{Ping(), Debug(), Notes(), Groups()}
	if opts.Generator != nil {
		modules = append(modules, NewAsk(opts.Generator, opts.ConversationTTL, opts.AskTimeout).Commands())
	}

	for _, m := range modules {
		if err := c.AddSubmodule(m); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func prefixed(icon, text string) string {
	if icon == "" {
		return text
	}

	return icon + " " + text
}
