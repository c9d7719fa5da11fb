package features

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"userbot/internal/core/domain"
	"userbot/internal/core/port"
	"userbot/internal/core/registry"
	"userbot/internal/core/usage"
)

// Notes stores short texts per chat under a name.
func Notes() *registry.Commands {
	c := registry.NewCommands("notes")
	c.MustAdd(registry.Command{
		Matcher:  registry.Literal("note", "n"),
		Category: categoryNotes,
		Usage:    "<'set'> <name> <text...> | <'get'|'del'> <name> | <name>",
		Doc:      "Saves, shows or deletes a note of this chat",
		Handler:  note,
	})
	c.MustAdd(registry.Command{
		Matcher:  registry.Literal("notes"),
		Category: categoryNotes,
		Doc:      "Lists the notes of this chat",
		Handler:  listNotes,
	})

	return c
}

func note(ctx context.Context, msg *domain.Message, args usage.Arguments, notes port.NoteStore,
	tr port.Translator, icons domain.Icons) (string, error) {
	name := strings.ToLower(args.Get("name"))
	code := "<code>" + html.EscapeString(name) + "</code>"

	switch {
	case args.Literal("set"):
		if err := notes.SetNote(ctx, msg.ChatID, name, args.Get("text")); err != nil {
			return "", err
		}
		return prefixed(icons.Success, fmt.Sprintf(html.EscapeString(tr.Gettext("Note %s saved")), code)), nil
	case args.Literal("del"):
		err := notes.DeleteNote(ctx, msg.ChatID, name)
		if errors.Is(err, domain.ErrNoteNotFound) {
			return prefixed(icons.Warning, fmt.Sprintf(html.EscapeString(tr.Gettext("No such note: %s")), code)), nil
		}
		if err != nil {
			return "", err
		}
		return prefixed(icons.Success, fmt.Sprintf(html.EscapeString(tr.Gettext("Note %s deleted")), code)), nil
	default:
		text, err := notes.GetNote(ctx, msg.ChatID, name)
		if errors.Is(err, domain.ErrNoteNotFound) {
			return prefixed(icons.Warning, fmt.Sprintf(html.EscapeString(tr.Gettext("No such note: %s")), code)), nil
		}
		if err != nil {
			return "", err
		}
		return html.EscapeString(text), nil
	}
}

func listNotes(ctx context.Context, msg *domain.Message, notes port.NoteStore,
	tr port.Translator, icons domain.Icons) (string, error) {
	names, err := notes.ListNotes(ctx, msg.ChatID)
	if err != nil {
		return "", err
	}

	if len(names) == 0 {
		return prefixed(icons.Info, html.EscapeString(tr.Gettext("There are no notes in this chat"))), nil
	}

	var b strings.Builder
	b.WriteString(prefixed(icons.Info, "<b>"+html.EscapeString(tr.Gettext("Notes"))+"</b>"))
	for _, name := range names {
		b.WriteString("\n<code>" + html.EscapeString(name) + "</code>")
	}

	return b.String(), nil
}
