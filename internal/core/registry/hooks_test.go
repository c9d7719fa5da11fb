package registry

import (
	"context"
	"errors"
	"testing"

	"userbot/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooksToggleAndFire(t *testing.T) {
	sender := &MockSender{}
	source := &MockSource{}
	store := &MockHookStore{}
	engine := newTestEngine(sender, store)

	var fired []string
	hooks := NewHooks("hooks")
	hooks.MustAdd(Hook{
		Name:    "greet",
		Pattern: `(?i)\bhello (?P<who>\w+)`,
		Handler: func(m Match, msg *domain.Message) {
			fired = append(fired, m.Named["who"]+"@"+msg.Text)
		},
	})

	commands := hooks.ToggleCommands()
	require.NoError(t, commands.Register(source, engine))
	require.NoError(t, hooks.Register(source, engine))

	incoming := &domain.Message{ID: 1, ChatID: 10, Text: "Hello world"}
	source.Emit(t.Context(), incoming)
	assert.Empty(t, fired)

	source.Emit(t.Context(), outgoing(2, ".greethere"))
	source.Emit(t.Context(), incoming)
	assert.Equal(t, []string{"world@Hello world"}, fired)

	other := &domain.Message{ID: 3, ChatID: 11, Text: "hello there"}
	source.Emit(t.Context(), other)
	assert.Len(t, fired, 1)

	source.Emit(t.Context(), outgoing(4, ".no_greet_here"))
	source.Emit(t.Context(), incoming)
	assert.Len(t, fired, 1)

	calls := sender.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "Hook <code>greet</code> enabled in this chat", calls[0].text)
	assert.Equal(t, "Hook <code>greet</code> disabled in this chat", calls[1].text)
}

func TestHookToggleCommandsAreHidden(t *testing.T) {
	hooks := NewHooks("hooks")
	hooks.MustAdd(Hook{Name: "greet", Handler: func() {}})

	var tokens [][]string
	for _, cmd := range hooks.ToggleCommands().List() {
		assert.Equal(t, "Hooks", cmd.Category)
		if cmd.Matcher.String() != "hooks" {
			assert.True(t, cmd.Hidden)
		}
		tokens = append(tokens, cmd.Matcher.Tokens())
	}

	assert.Equal(t, [][]string{
		{"greethere", "greet_here"},
		{"nogreethere", "no_greet_here"},
		{"hooks"},
	}, tokens)
}

func TestHooksListCommand(t *testing.T) {
	sender := &MockSender{}
	source := &MockSource{}
	store := &MockHookStore{}
	require.NoError(t, store.EnableHook(t.Context(), "greet", 10))

	hooks := NewHooks("hooks")
	hooks.MustAdd(Hook{Name: "greet", Handler: func() {}})
	require.NoError(t, hooks.ToggleCommands().Register(source, newTestEngine(sender, store)))

	source.Emit(t.Context(), outgoing(1, ".hooks"))
	source.Emit(t.Context(), &domain.Message{ID: 2, ChatID: 99, Outgoing: true, Text: ".hooks"})

	calls := sender.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "<b>Enabled hooks</b>\n<code>greet</code>", calls[0].text)
	assert.Equal(t, "No hooks are enabled in this chat", calls[1].text)
}

func TestHooksFilterEditsAndErrors(t *testing.T) {
	sender := &MockSender{}
	source := &MockSource{}
	store := &MockHookStore{}
	require.NoError(t, store.EnableHook(t.Context(), "quiet", 10))
	require.NoError(t, store.EnableHook(t.Context(), "broken", 10))
	require.NoError(t, store.EnableHook(t.Context(), "after", 10))

	var fired []string
	hooks := NewHooks("hooks")
	hooks.MustAdd(Hook{
		Name:   "quiet",
		Filter: func(msg *domain.Message) bool { return !msg.Outgoing },
		Handler: func(ctx context.Context) {
			fired = append(fired, "quiet")
		},
	})
	hooks.MustAdd(Hook{Name: "broken", Handler: func() error {
		fired = append(fired, "broken")
		return errors.New("boom")
	}})
	hooks.MustAdd(Hook{Name: "after", HandleEdits: true, Handler: func() {
		fired = append(fired, "after")
	}})
	require.NoError(t, hooks.Register(source, newTestEngine(sender, store)))

	assert.Equal(t, domain.Continue, source.Emit(t.Context(), outgoing(1, "mine")))
	assert.Equal(t, []string{"broken", "after"}, fired)

	fired = nil
	edited := &domain.Message{ID: 2, ChatID: 10, Text: "theirs", Edited: true}
	source.Emit(t.Context(), edited)
	assert.Equal(t, []string{"after"}, fired)

	assert.Empty(t, sender.Calls())
}

func TestHooksAddValidation(t *testing.T) {
	hooks := NewHooks("hooks")
	require.NoError(t, hooks.Add(Hook{Name: "greet", Handler: func() {}}))

	require.ErrorIs(t, hooks.Add(Hook{Name: "greet", Handler: func() {}}), domain.ErrDuplicateRegistration)
	require.Error(t, hooks.Add(Hook{Name: "two words", Handler: func() {}}))
	require.Error(t, hooks.Add(Hook{Name: "bad", Pattern: "(", Handler: func() {}}))

	other := NewHooks("other")
	other.MustAdd(Hook{Name: "greet", Handler: func() {}})
	require.ErrorIs(t, hooks.AddSubmodule(other), domain.ErrDuplicateRegistration)
}

func TestHooksRegisterNeedsStore(t *testing.T) {
	hooks := NewHooks("hooks")

	require.Error(t, hooks.Register(&MockSource{}, newTestEngine(&MockSender{}, nil)))
}
