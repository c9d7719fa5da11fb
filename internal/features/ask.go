package features

import (
	"context"
	"html"
	"sync"
	"time"

	"userbot/internal/core/domain"
	"userbot/internal/core/port"
	"userbot/internal/core/registry"
	"userbot/internal/core/usage"

	"github.com/rs/zerolog/log"
)

const (
	DefaultConversationTTL = 10 * time.Minute
	DefaultAskTimeout      = 2 * time.Minute
)

// Ask answers questions with a text generator and remembers the exchange
// per chat until the conversation has been idle for ttl.
type Ask struct {
	generator port.TextGenerator
	ttl       time.Duration
	timeout   time.Duration
	now       func() time.Time

	mu            sync.Mutex
	conversations map[int64]*conversation
}

type conversation struct {
	updated  time.Time
	messages []domain.Prompt
}

func NewAsk(generator port.TextGenerator, ttl, timeout time.Duration) *Ask {
	if ttl <= 0 {
		ttl = DefaultConversationTTL
	}
	if timeout == 0 {
		timeout = DefaultAskTimeout
	}

	return &Ask{
		generator:     generator,
		ttl:           ttl,
		timeout:       timeout,
		now:           time.Now,
		conversations: make(map[int64]*conversation),
	}
}

func (a *Ask) Commands() *registry.Commands {
	c := registry.NewCommands("ask")
	c.MustAdd(registry.Command{
		Matcher:       registry.Literal("ask", "ai"),
		Category:      categoryAI,
		Usage:         "<'reset'> | <question...>",
		Doc:           "Asks the language model a question\nReplying to a message adds it to the question.",
		WaitingNotice: "Thinking…",
		Timeout:       a.timeout,
		Handler:       a.ask,
	})

	return c
}

func (a *Ask) ask(ctx context.Context, msg *domain.Message, args usage.Arguments,
	tr port.Translator, icons domain.Icons) (string, error) {
	if args.Literal("reset") {
		a.mu.Lock()
		delete(a.conversations, msg.ChatID)
		a.mu.Unlock()

		return prefixed(icons.Success, html.EscapeString(tr.Gettext("Conversation cleared"))), nil
	}

	question := args.Get("question")
	if msg.ReplyTo != nil && msg.ReplyTo.Text != "" {
		question = msg.ReplyTo.Text + "\n\n" + question
	}

	history := a.history(msg.ChatID)
	prompts := append(history, domain.Prompt{Author: domain.AuthorUser, Prompt: question})

	answer, err := a.generator.GenerateFromPrompt(ctx, prompts)
	if err != nil {
		return "", err
	}

	a.remember(msg.ChatID, append(prompts, domain.Prompt{Author: domain.AuthorSystem, Prompt: answer}))

	return html.EscapeString(answer), nil
}

// history returns a copy of the chat's conversation, dropping it when it has expired.
func (a *Ask) history(chatID int64) []domain.Prompt {
	a.mu.Lock()
	defer a.mu.Unlock()

	c, ok := a.conversations[chatID]
	if !ok {
		return nil
	}

	if a.now().Sub(c.updated) > a.ttl {
		log.Debug().Int64("chatId", chatID).Msg("clearing conversation")
		delete(a.conversations, chatID)
		return nil
	}

	return append([]domain.Prompt(nil), c.messages...)
}

func (a *Ask) remember(chatID int64, messages []domain.Prompt) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.conversations[chatID] = &conversation{updated: a.now(), messages: messages}
}
