package features

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"userbot/internal/core/domain"
	"userbot/internal/core/port"
	"userbot/internal/core/registry"
	"userbot/internal/core/usage"
	"userbot/internal/core/usergroup"
)

// Groups manages the stored user groups that group expressions refer to.
func Groups() *registry.Commands {
	c := registry.NewCommands("groups")
	c.MustAdd(registry.Command{
		Matcher:  registry.Literal("group", "g"),
		Category: categoryUsers,
		Usage:    "<'add'|'del'> <group> <user>... | <'list'> | <'resolve'> <expr...>",
		Doc: "Manages user groups\n" +
			"Users are numeric IDs or @usernames. Expressions look like admins[exclude=@spammer;include=friends].",
		Handler: group,
	})

	return c
}

func group(ctx context.Context, args usage.Arguments, groups port.GroupStore, resolver *usergroup.Resolver,
	tr port.Translator, icons domain.Icons) (string, error) {
	switch {
	case args.Literal("add"), args.Literal("del"):
		return changeMembers(ctx, args, groups, resolver, tr, icons)
	case args.Literal("list"):
		return listGroups(ctx, groups, tr, icons)
	default:
		return resolveExpr(ctx, args.Get("expr"), resolver, tr, icons)
	}
}

func changeMembers(ctx context.Context, args usage.Arguments, groups port.GroupStore, resolver *usergroup.Resolver,
	tr port.Translator, icons domain.Icons) (string, error) {
	name := args.Get("group")
	if g, err := usergroup.Parse(name); err != nil || len(g.Exclude)+len(g.Include) > 0 {
		return prefixed(icons.Warning, fmt.Sprintf(html.EscapeString(tr.Gettext("Invalid group name: %s")),
			"<code>"+html.EscapeString(name)+"</code>")), nil
	}

	users, err := resolver.ResolveAll(ctx, args.All("user")...)
	if err != nil {
		return "", err
	}

	if len(users.IDs) > 0 {
		if args.Literal("add") {
			err = groups.AddGroupMembers(ctx, name, users.IDs...)
		} else {
			err = groups.RemoveGroupMembers(ctx, name, users.IDs...)
		}
		if err != nil {
			return "", err
		}
	}

	format := tr.Ngettext("Added %d user to %s", "Added %d users to %s", len(users.IDs))
	if args.Literal("del") {
		format = tr.Ngettext("Removed %d user from %s", "Removed %d users from %s", len(users.IDs))
	}

	text := prefixed(icons.Success, fmt.Sprintf(html.EscapeString(format),
		len(users.IDs), "<code>"+html.EscapeString(name)+"</code>"))

	return text + softErrors(users.Errors, icons), nil
}

func listGroups(ctx context.Context, groups port.GroupStore, tr port.Translator, icons domain.Icons) (string, error) {
	names, err := groups.ListGroups(ctx)
	if err != nil {
		return "", err
	}

	if len(names) == 0 {
		return prefixed(icons.Info, html.EscapeString(tr.Gettext("No user groups are defined"))), nil
	}

	var b strings.Builder
	b.WriteString(prefixed(icons.Info, "<b>"+html.EscapeString(tr.Gettext("User groups"))+"</b>"))
	for _, name := range names {
		members, err := groups.GroupMembers(ctx, name)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\n<code>%s</code>: %d", html.EscapeString(name), len(members))
	}

	return b.String(), nil
}

func resolveExpr(ctx context.Context, expr string, resolver *usergroup.Resolver,
	tr port.Translator, icons domain.Icons) (string, error) {
	res, err := resolver.Resolve(ctx, expr)
	if err != nil {
		var ge *usergroup.GrammarError
		if errors.As(err, &ge) {
			return prefixed(icons.Warning, html.EscapeString(ge.Error())), nil
		}
		return "", err
	}

	ids := make([]string, len(res.IDs))
	for i, id := range res.IDs {
		ids[i] = strconv.FormatInt(id, 10)
	}

	text := prefixed(icons.Info, fmt.Sprintf(html.EscapeString(tr.Ngettext("%d user", "%d users", len(res.IDs))), len(res.IDs)))
	if len(ids) > 0 {
		text += "\n<code>" + strings.Join(ids, " ") + "</code>"
	}

	return text + softErrors(res.Errors, icons), nil
}

func softErrors(errs []error, icons domain.Icons) string {
	var b strings.Builder
	for _, err := range errs {
		b.WriteString("\n" + prefixed(icons.Warning, html.EscapeString(err.Error())))
	}

	return b.String()
}
