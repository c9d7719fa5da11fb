package registry

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"slices"
	"sync"
	"unicode/utf8"

	"userbot/internal/core/dispatch"
	"userbot/internal/core/domain"
	"userbot/internal/core/inject"
	"userbot/internal/core/port"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Shortcut rewrites the part of an outgoing message its pattern matches with
// the text its handler returns. The handler receives the Match.
type Shortcut struct {
	Name    string
	Pattern string
	Doc     string
	Handler any
}

type shortcut struct {
	Shortcut
	re *regexp.Regexp
	fn *inject.Func
}

type Shortcuts struct {
	mu       sync.RWMutex
	name     string
	handlers []*shortcut
}

func NewShortcuts(name string) *Shortcuts {
	return &Shortcuts{name: name}
}

func (s *Shortcuts) Add(sc Shortcut) error {
	if sc.Pattern == "" {
		return fmt.Errorf("shortcut %q: empty pattern", sc.Name)
	}

	re, err := regexp.Compile(sc.Pattern)
	if err != nil {
		return fmt.Errorf("shortcut %q: %w", sc.Name, err)
	}

	fn, err := inject.Compile(sc.Handler)
	if err != nil {
		return fmt.Errorf("shortcut %q: %w", sc.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.ContainsFunc(s.handlers, func(existing *shortcut) bool { return existing.Name == sc.Name }) {
		return fmt.Errorf("%w: shortcut %q", domain.ErrDuplicateRegistration, sc.Name)
	}
	s.handlers = append(s.handlers, &shortcut{Shortcut: sc, re: re, fn: fn})

	return nil
}

func (s *Shortcuts) MustAdd(sc Shortcut) {
	if err := s.Add(sc); err != nil {
		panic(err)
	}
}

func (s *Shortcuts) AddSubmodule(other *Shortcuts) error {
	other.mu.RLock()
	incoming := slices.Clone(other.handlers)
	other.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := slices.Clone(s.handlers)
	for _, sc := range incoming {
		if slices.ContainsFunc(merged, func(existing *shortcut) bool { return existing.Name == sc.Name }) {
			return fmt.Errorf("merging %q into %q: %w: shortcut %q", other.name, s.name,
				domain.ErrDuplicateRegistration, sc.Name)
		}
		merged = append(merged, sc)
	}
	s.handlers = merged

	return nil
}

func (s *Shortcuts) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.handlers))
	for i, sc := range s.handlers {
		names[i] = sc.Name
	}

	return names
}

// Register subscribes the shortcuts to new and edited outgoing messages.
func (s *Shortcuts) Register(source port.EventSource, e *Engine) error {
	source.Listen(s.name, true, s.listener(e))
	log.Info().Str("module", s.name).Int("shortcuts", len(s.Names())).Msg("registered shortcuts")

	return nil
}

// listener rewrites every shortcut occurrence in the message, edits it once
// and always lets the next listener see the rewritten text.
func (s *Shortcuts) listener(e *Engine) port.Listener {
	return func(ctx context.Context, msg *domain.Message) domain.Propagation {
		if !msg.Outgoing {
			return domain.Continue
		}

		l := log.With().
			Int("messageId", msg.ID).
			Int64("chatId", msg.ChatID).
			Str("module", s.name).
			Logger()

		text, changed := s.rewrite(ctx, e, msg, l)
		if !changed {
			return domain.Continue
		}

		if err := e.Sender.EditText(ctx, msg, html.EscapeString(text)); err != nil {
			l.Error().Err(err).Msg("failed to apply shortcuts")
			return domain.Continue
		}

		msg.Text = text

		return domain.Continue
	}
}

// rewrite replaces the leftmost match among all shortcuts, then searches the
// text after the replacement again, until nothing matches.
func (s *Shortcuts) rewrite(ctx context.Context, e *Engine, msg *domain.Message, l zerolog.Logger) (string, bool) {
	s.mu.RLock()
	handlers := slices.Clone(s.handlers)
	s.mu.RUnlock()

	text := msg.Text
	changed := false

	for pos := 0; pos <= len(text); {
		sc, loc := leftmost(handlers, text, pos)
		if sc == nil {
			break
		}

		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = text[loc[2*i]:loc[2*i+1]]
			}
		}

		inv := Invocation{Kind: KindShortcut, Name: sc.Name}
		bag := e.NewContext(msg, inv)
		bag.Provide(newMatch(sc.re, groups))

		replacement, err := e.invoke(ctx, bag, sc.fn.Call)
		if err != nil {
			tb := dispatch.Summarize(err)
			l.Error().Err(err).Str("shortcut", sc.Name).Str("traceback", tb.String()).Msg("shortcut failed")
			return text, changed
		}

		text = text[:loc[0]] + replacement + text[loc[1]:]
		changed = true

		pos = loc[0] + len(replacement)
		if loc[0] == loc[1] && replacement == "" {
			_, size := utf8.DecodeRuneInString(text[pos:])
			pos += max(size, 1)
		}
	}

	return text, changed
}

// leftmost finds the earliest match at or after pos. Shortcuts registered
// first win a tie.
func leftmost(handlers []*shortcut, text string, pos int) (*shortcut, []int) {
	var best *shortcut
	var bestLoc []int

	for _, sc := range handlers {
		loc := sc.find(text, pos)
		if loc == nil {
			continue
		}

		if best == nil || loc[0] < bestLoc[0] {
			best, bestLoc = sc, loc
		}
	}

	return best, bestLoc
}

// find matches against the whole text so anchors and word boundaries see the
// real message, keeping the first match that starts at or after pos. A match
// that straddles pos falls back to searching text[pos:].
func (sc *shortcut) find(text string, pos int) []int {
	for _, loc := range sc.re.FindAllStringSubmatchIndex(text, -1) {
		switch {
		case loc[0] >= pos:
			return loc
		case loc[1] > pos:
			return sc.findFrom(text, pos)
		}
	}

	return nil
}

func (sc *shortcut) findFrom(text string, pos int) []int {
	loc := sc.re.FindStringSubmatchIndex(text[pos:])
	for i := range loc {
		if loc[i] >= 0 {
			loc[i] += pos
		}
	}

	return loc
}
