package features

import (
	"fmt"
	"html"
	"time"

	"userbot/internal/core/port"
	"userbot/internal/core/registry"
)

var started = time.Now()

func Ping() *registry.Commands {
	c := registry.NewCommands("ping")
	c.MustAdd(registry.Command{
		Matcher:  registry.Literal("ping"),
		Category: categoryAbout,
		Doc:      "Checks that the bot is alive",
		Handler:  ping,
	})

	return c
}

func ping(tr port.Translator) string {
	uptime := time.Since(started).Round(time.Second)
	return fmt.Sprintf("%s <code>%s</code>", html.EscapeString(tr.Gettext("Pong! Uptime:")), uptime)
}
