package registry

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"slices"
	"strings"
	"sync"
	"unicode"

	"userbot/internal/core/dispatch"
	"userbot/internal/core/domain"
	"userbot/internal/core/inject"
	"userbot/internal/core/port"

	"github.com/rs/zerolog/log"
)

const hooksCategory = "Hooks"

// Hook is a passive handler fired by incoming messages in chats where it
// has been enabled. Its result is not delivered anywhere.
type Hook struct {
	Name string
	// Pattern is searched anywhere in the message text. Empty matches every message.
	Pattern string
	// Filter, when set, must accept the message as well.
	Filter      func(*domain.Message) bool
	Doc         string
	HandleEdits bool
	Handler     any
}

// Match is the part of a message text a hook or shortcut pattern matched.
type Match struct {
	Text   string
	Groups []string
	Named  map[string]string
}

func newMatch(re *regexp.Regexp, groups []string) Match {
	m := Match{Text: groups[0], Groups: groups, Named: make(map[string]string)}
	for i, name := range re.SubexpNames() {
		if name != "" {
			m.Named[name] = groups[i]
		}
	}

	return m
}

type hook struct {
	Hook
	re *regexp.Regexp
	fn *inject.Func
}

type Hooks struct {
	mu       sync.RWMutex
	name     string
	handlers []*hook
}

func NewHooks(name string) *Hooks {
	return &Hooks{name: name}
}

func (h *Hooks) Add(hk Hook) error {
	if hk.Name == "" || strings.ContainsFunc(hk.Name, unicode.IsSpace) {
		return fmt.Errorf("invalid hook name %q", hk.Name)
	}

	compiled := &hook{Hook: hk}

	if hk.Pattern != "" {
		re, err := regexp.Compile(hk.Pattern)
		if err != nil {
			return fmt.Errorf("hook %q: %w", hk.Name, err)
		}
		compiled.re = re
	}

	fn, err := inject.Compile(hk.Handler)
	if err != nil {
		return fmt.Errorf("hook %q: %w", hk.Name, err)
	}
	compiled.fn = fn

	h.mu.Lock()
	defer h.mu.Unlock()

	if slices.ContainsFunc(h.handlers, func(existing *hook) bool { return existing.Name == hk.Name }) {
		return fmt.Errorf("%w: hook %q", domain.ErrDuplicateRegistration, hk.Name)
	}
	h.handlers = append(h.handlers, compiled)

	return nil
}

func (h *Hooks) MustAdd(hk Hook) {
	if err := h.Add(hk); err != nil {
		panic(err)
	}
}

func (h *Hooks) AddSubmodule(other *Hooks) error {
	other.mu.RLock()
	incoming := slices.Clone(other.handlers)
	other.mu.RUnlock()

	h.mu.Lock()
	defer h.mu.Unlock()

	merged := slices.Clone(h.handlers)
	for _, hk := range incoming {
		if slices.ContainsFunc(merged, func(existing *hook) bool { return existing.Name == hk.Name }) {
			return fmt.Errorf("merging %q into %q: %w: hook %q", other.name, h.name,
				domain.ErrDuplicateRegistration, hk.Name)
		}
		merged = append(merged, hk)
	}
	h.handlers = merged

	return nil
}

// Names returns the hook names in registration order.
func (h *Hooks) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, len(h.handlers))
	for i, hk := range h.handlers {
		names[i] = hk.Name
	}

	return names
}

// ToggleCommands generates the hidden per-chat enable and disable commands
// of every hook, plus the hooks command listing the hooks enabled in a chat.
func (h *Hooks) ToggleCommands() *Commands {
	commands := NewCommands(h.name + "-toggles")

	for _, name := range h.Names() {
		commands.MustAdd(Command{
			Matcher:  Literal(name+"here", name+"_here"),
			Category: hooksCategory,
			Hidden:   true,
			Doc:      fmt.Sprintf("Enables the %s hook in this chat", name),
			Handler:  toggle(name, true),
		})
		commands.MustAdd(Command{
			Matcher:  Literal("no"+name+"here", "no_"+name+"_here"),
			Category: hooksCategory,
			Hidden:   true,
			Doc:      fmt.Sprintf("Disables the %s hook in this chat", name),
			Handler:  toggle(name, false),
		})
	}

	commands.MustAdd(Command{
		Matcher:  Literal("hooks"),
		Category: hooksCategory,
		Doc:      "Lists the hooks enabled in this chat",
		Handler: func(ctx context.Context, msg *domain.Message, store port.HookStore, tr port.Translator,
			icons domain.Icons) (string, error) {
			enabled, err := store.ListEnabledHooks(ctx, msg.ChatID)
			if err != nil {
				return "", fmt.Errorf("listing hooks: %w", err)
			}

			if len(enabled) == 0 {
				return prefixed(icons.Info, html.EscapeString(tr.Gettext("No hooks are enabled in this chat"))), nil
			}

			var b strings.Builder
			b.WriteString(prefixed(icons.Info, "<b>"+html.EscapeString(tr.Gettext("Enabled hooks"))+"</b>"))
			for _, name := range enabled {
				fmt.Fprintf(&b, "\n<code>%s</code>", html.EscapeString(name))
			}

			return b.String(), nil
		},
	})

	return commands
}

func toggle(name string, enable bool) func(context.Context, *domain.Message, port.HookStore, port.Translator,
	domain.Icons) (string, error) {
	return func(ctx context.Context, msg *domain.Message, store port.HookStore, tr port.Translator,
		icons domain.Icons) (string, error) {
		code := "<code>" + html.EscapeString(name) + "</code>"

		if enable {
			if err := store.EnableHook(ctx, name, msg.ChatID); err != nil {
				return "", fmt.Errorf("enabling hook %q: %w", name, err)
			}
			return prefixed(icons.Success, fmt.Sprintf(html.EscapeString(tr.Gettext("Hook %s enabled in this chat")), code)), nil
		}

		if err := store.DisableHook(ctx, name, msg.ChatID); err != nil {
			return "", fmt.Errorf("disabling hook %q: %w", name, err)
		}

		return prefixed(icons.Success, fmt.Sprintf(html.EscapeString(tr.Gettext("Hook %s disabled in this chat")), code)), nil
	}
}

// Register subscribes the hooks to source. Whether a hook is enabled in a
// chat is checked for every event.
func (h *Hooks) Register(source port.EventSource, e *Engine) error {
	if e.Hooks == nil {
		return fmt.Errorf("hooks %q: no hook store configured", h.name)
	}

	source.Listen(h.name, true, h.listener(e))
	log.Info().Str("module", h.name).Int("hooks", len(h.Names())).Msg("registered hooks")

	return nil
}

func (h *Hooks) listener(e *Engine) port.Listener {
	return func(ctx context.Context, msg *domain.Message) domain.Propagation {
		h.mu.RLock()
		handlers := slices.Clone(h.handlers)
		h.mu.RUnlock()

		for _, hk := range handlers {
			h.fire(ctx, e, msg, hk)
		}

		return domain.Continue
	}
}

func (h *Hooks) fire(ctx context.Context, e *Engine, msg *domain.Message, hk *hook) {
	if msg.Edited && !hk.HandleEdits {
		return
	}

	if hk.Filter != nil && !hk.Filter(msg) {
		return
	}

	var match Match
	if hk.re != nil {
		groups := hk.re.FindStringSubmatch(msg.Text)
		if groups == nil {
			return
		}
		match = newMatch(hk.re, groups)
	}

	l := log.With().
		Int("messageId", msg.ID).
		Int64("chatId", msg.ChatID).
		Str("hook", hk.Name).
		Logger()

	enabled, err := e.Hooks.IsHookEnabled(ctx, hk.Name, msg.ChatID)
	if err != nil {
		l.Error().Err(err).Msg("failed to check hook state")
		return
	}
	if !enabled {
		return
	}

	inv := Invocation{Kind: KindHook, Name: hk.Name}
	bag := e.NewContext(msg, inv)
	bag.Provide(match)

	if _, err := e.invoke(ctx, bag, hk.fn.Call); err != nil {
		tb := dispatch.Summarize(err)
		l.Error().Err(err).Str("traceback", tb.String()).Msg("hook failed")
		return
	}

	l.Debug().Msg("hook fired")
}
