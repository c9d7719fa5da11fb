package features

import (
	"context"
	"fmt"
	"html"

	"userbot/internal/core/domain"
	"userbot/internal/core/port"
	"userbot/internal/core/registry"
)

// Hooks returns the built-in hooks. They do nothing until enabled per chat.
func Hooks() *registry.Hooks {
	h := registry.NewHooks("builtin")
	h.MustAdd(registry.Hook{
		Name:    "greet",
		Pattern: `(?i)^\s*(hi|hello|hey)\b`,
		Filter:  func(msg *domain.Message) bool { return !msg.Outgoing },
		Doc:     "Greets people saying hello",
		Handler: greet,
	})

	return h
}

func greet(ctx context.Context, msg *domain.Message, sender port.MessageSender, tr port.Translator) error {
	name := msg.Sender.FirstName
	if name == "" {
		name = msg.Sender.DisplayName()
	}

	_, err := sender.ReplyText(ctx, msg, fmt.Sprintf(html.EscapeString(tr.Gettext("Hello, %s!")), html.EscapeString(name)))
	return err
}
