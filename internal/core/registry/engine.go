// Package registry turns declaratively registered commands, hooks and
// shortcuts into event listeners on a transport.
package registry

import (
	"context"
	"regexp"
	"strings"
	"time"

	"userbot/internal/core/dispatch"
	"userbot/internal/core/domain"
	"userbot/internal/core/inject"
	"userbot/internal/core/middleware"
	"userbot/internal/core/port"

	"github.com/rs/zerolog/log"
)

// Kind tells middlewares what sort of handler an invocation belongs to.
type Kind string

const (
	KindCommand  Kind = "command"
	KindHook     Kind = "hook"
	KindShortcut Kind = "shortcut"
)

// Invocation identifies the handler being run. It is provided in every
// invocation context.
type Invocation struct {
	Kind Kind
	Name string
}

// Engine bundles what the registration modules need at dispatch time.
type Engine struct {
	// Prefixes holds every character that starts a command.
	Prefixes  string
	Runner    *dispatch.Runner
	Chain     *middleware.Chain[*inject.Context]
	Localizer port.Localizer
	Icons     domain.Icons
	Hooks     port.HookStore
	Sender    port.MessageSender
	// Values are provided in every invocation context, after the built-in values.
	Values []any
}

// Translator returns the translator for the language of msg.
func (e *Engine) Translator(msg *domain.Message) port.Translator {
	if e.Localizer == nil {
		return dispatch.Passthrough{}
	}

	return e.Localizer.For(msg.Language)
}

// NewContext assembles the invocation context for one event. The transport
// and the raw event are always present.
func (e *Engine) NewContext(msg *domain.Message, inv Invocation) *inject.Context {
	c := inject.NewContext(msg, inv, e.Icons)
	inject.ProvideAs(c, e.Sender)
	inject.ProvideAs(c, e.Translator(msg))
	if e.Hooks != nil {
		inject.ProvideAs(c, e.Hooks)
	}
	c.Provide(e.Values...)

	return c
}

// invoke runs fn behind the middleware chain and returns its result. A
// middleware that short-circuits yields an empty result.
func (e *Engine) invoke(ctx context.Context, c *inject.Context, fn func(context.Context, *inject.Context) (string, error)) (string, error) {
	var result string

	terminal := func(ctx context.Context, c *inject.Context) error {
		text, err := fn(ctx, c)
		result = text
		return err
	}

	h := terminal
	if e.Chain != nil {
		h = e.Chain.Build(terminal)
	}

	if err := h(ctx, c); err != nil {
		return "", err
	}

	return result, nil
}

// run executes one command invocation through the handler state machine.
func (e *Engine) run(ctx context.Context, msg *domain.Message, c *inject.Context, inv Invocation, timeout time.Duration,
	notice string, fn func(context.Context, *inject.Context) (string, error)) {
	icons, _ := inject.Get[domain.Icons](c)
	tr, _ := inject.Get[port.Translator](c)

	outcome, err := e.Runner.Run(ctx, dispatch.Invocation{
		Kind:          string(inv.Kind),
		Name:          inv.Name,
		Message:       msg,
		Translator:    tr,
		Icons:         icons,
		Timeout:       timeout,
		WaitingNotice: notice,
		Call: func(ctx context.Context) (string, error) {
			return e.invoke(ctx, c, fn)
		},
	})
	if err != nil {
		log.Error().
			Err(err).
			Int("messageId", msg.ID).
			Int64("chatId", msg.ChatID).
			Str(string(inv.Kind), inv.Name).
			Stringer("outcome", outcome).
			Msg("invocation could not be delivered")
	}
}

// prefixPattern is the regular expression matching any one command prefix.
func prefixPattern(prefixes string) string {
	alternatives := make([]string, 0, len(prefixes))
	for _, r := range prefixes {
		alternatives = append(alternatives, regexp.QuoteMeta(string(r)))
	}

	return "(?:" + strings.Join(alternatives, "|") + ")"
}

// displayPrefix is the prefix shown in help and usage texts.
func (e *Engine) displayPrefix() string {
	for _, r := range e.Prefixes {
		return string(r)
	}

	return ""
}
