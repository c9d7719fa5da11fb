package registry

import (
	"context"
	"fmt"
	"html"
	"slices"
	"sync"
	"time"

	"userbot/internal/core/domain"
	"userbot/internal/core/inject"
	"userbot/internal/core/port"
	"userbot/internal/core/usage"

	"github.com/rs/zerolog/log"
)

const (
	helpToken       = "help"
	DefaultCategory = "Misc"
)

// Command is one declaratively registered command handler.
type Command struct {
	Matcher  Matcher
	Category string
	// Hidden commands are left out of the help listing.
	Hidden bool
	// Usage is the argument DSL. When set, the handler receives the bound usage.Arguments.
	Usage string
	Doc   string
	// HandleEdits makes edited messages invoke the command too.
	HandleEdits bool
	// WaitingNotice replaces the default waiting notice.
	WaitingNotice string
	// Timeout overrides the default handler timeout; dispatch.NoTimeout disables it.
	Timeout time.Duration
	// Handler is a function whose parameters are bound from the invocation context.
	Handler any
}

type command struct {
	Command
	usage   *usage.Usage
	fn      *inject.Func
	matcher compiled
}

// Commands is a module of command handlers.
type Commands struct {
	mu       sync.RWMutex
	name     string
	handlers []*command
}

func NewCommands(name string) *Commands {
	return &Commands{name: name}
}

// Add validates cmd and appends it. A literal token already taken by another
// command of the module is an error.
func (c *Commands) Add(cmd Command) error {
	compiled, err := compileCommand(cmd)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := checkDuplicates(c.handlers, compiled); err != nil {
		return err
	}

	c.handlers = append(c.handlers, compiled)

	return nil
}

func (c *Commands) MustAdd(cmd Command) {
	if err := c.Add(cmd); err != nil {
		panic(err)
	}
}

// AddSubmodule appends every handler of other. Nothing is overridden: a
// token registered in both modules is an error and nothing is added.
func (c *Commands) AddSubmodule(other *Commands) error {
	other.mu.RLock()
	incoming := slices.Clone(other.handlers)
	other.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	merged := slices.Clone(c.handlers)
	for _, h := range incoming {
		if err := checkDuplicates(merged, h); err != nil {
			return fmt.Errorf("merging %q into %q: %w", other.name, c.name, err)
		}
		merged = append(merged, h)
	}

	c.handlers = merged

	return nil
}

// List returns the registered commands in registration order.
func (c *Commands) List() []Command {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Command, len(c.handlers))
	for i, h := range c.handlers {
		out[i] = h.Command
	}

	return out
}

// Register injects the help command unless the module has one, backfills
// the command prefixes into every matcher and subscribes the module to source.
func (c *Commands) Register(source port.EventSource, e *Engine) error {
	if !c.has(helpToken) {
		if err := c.Add(c.helpCommand(e)); err != nil {
			return err
		}
	}

	c.mu.Lock()
	for _, h := range c.handlers {
		m, err := h.Matcher.compile(e.Prefixes)
		if err != nil {
			c.mu.Unlock()
			return fmt.Errorf("command %q: %w", h.Matcher, err)
		}
		h.matcher = m
	}

	seen := make([]*command, 0, len(c.handlers))
	for _, h := range c.handlers {
		if err := checkDuplicates(seen, h); err != nil {
			c.mu.Unlock()
			return err
		}
		seen = append(seen, h)
	}
	count := len(c.handlers)
	c.mu.Unlock()

	source.Listen(c.name, true, c.listener(e))
	log.Info().Str("module", c.name).Int("commands", count).Msg("registered commands")

	return nil
}

func (c *Commands) has(token string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, h := range c.handlers {
		if h.Matcher.Kind() == LiteralMatcher && slices.Contains(h.Matcher.tokens, token) {
			return true
		}
	}

	return false
}

// find returns the first handler matching text, in registration order.
// Handlers match nothing until Register has compiled their matchers.
func (c *Commands) find(text string) (*command, domain.CommandObject, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, h := range c.handlers {
		if obj, ok := h.matcher.match(text); ok {
			return h, obj, true
		}
	}

	return nil, domain.CommandObject{}, false
}

func (c *Commands) listener(e *Engine) port.Listener {
	return func(ctx context.Context, msg *domain.Message) domain.Propagation {
		h, obj, ok := c.find(msg.Text)
		if !ok {
			return domain.Continue
		}

		if msg.Edited && !h.HandleEdits {
			return domain.Continue
		}

		c.dispatch(ctx, e, msg, h, obj)

		return domain.Stop
	}
}

func (c *Commands) dispatch(ctx context.Context, e *Engine, msg *domain.Message, h *command, obj domain.CommandObject) {
	inv := Invocation{Kind: KindCommand, Name: obj.Command}
	bag := e.NewContext(msg, inv)
	bag.Provide(obj)

	e.run(ctx, msg, bag, inv, h.Timeout, h.WaitingNotice, func(ctx context.Context, bag *inject.Context) (string, error) {
		if h.usage != nil {
			args, err := usage.Bind(h.usage, obj.Args)
			if err != nil {
				tr, _ := inject.Get[port.Translator](bag)
				return usageText(tr, e.Icons, h, obj.Prefix+obj.Command), nil
			}
			bag.Provide(args)
		}

		return h.fn.Call(ctx, bag)
	})
}

func usageText(tr port.Translator, icons domain.Icons, h *command, invoked string) string {
	text := prefixed(icons.Warning, "<b>"+html.EscapeString(tr.Gettext("Usage:"))+"</b>")
	for _, v := range h.usage.Variants {
		line := invoked
		if s := v.String(); s != "" {
			line += " " + s
		}
		text += "\n<code>" + html.EscapeString(line) + "</code>"
	}

	return text
}

func compileCommand(cmd Command) (*command, error) {
	if err := cmd.Matcher.validate(); err != nil {
		return nil, err
	}

	if cmd.Category == "" {
		cmd.Category = DefaultCategory
	}

	h := &command{Command: cmd}

	if cmd.Usage != "" {
		u, err := usage.Parse(cmd.Usage)
		if err != nil {
			return nil, fmt.Errorf("command %q: %w", cmd.Matcher, err)
		}
		h.usage = u
	}

	fn, err := inject.Compile(cmd.Handler)
	if err != nil {
		return nil, fmt.Errorf("command %q: %w", cmd.Matcher, err)
	}
	h.fn = fn

	return h, nil
}

// checkDuplicates reports a literal token of h already used in handlers.
// Overlap between a literal token and what a pattern accepts is not detected.
func checkDuplicates(handlers []*command, h *command) error {
	if h.Matcher.Kind() != LiteralMatcher {
		return nil
	}

	for _, existing := range handlers {
		if existing.Matcher.Kind() != LiteralMatcher {
			continue
		}
		for _, token := range h.Matcher.tokens {
			if slices.Contains(existing.Matcher.tokens, token) {
				return fmt.Errorf("%w: command %q", domain.ErrDuplicateRegistration, token)
			}
		}
	}

	return nil
}

func prefixed(icon, text string) string {
	if icon == "" {
		return text
	}

	return icon + " " + text
}
