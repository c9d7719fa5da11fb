// Package telegram connects the dispatch framework to the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"userbot/internal/core/domain"
	"userbot/internal/core/port"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

//go:generate mockery --name BotClient

// BotClient is the part of *bot.Bot the transport uses.
type BotClient interface {
	GetMe(ctx context.Context) (*models.User, error)
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
}

type subscription struct {
	name     string
	edits    bool
	listener port.Listener
}

// Transport sends messages through a bot and feeds incoming updates to the
// registered listeners. Posts in channels the bot administers count as
// outgoing, since the bot may edit them; everything else is answered with
// replies.
type Transport struct {
	bot   BotClient
	users port.UserDirectory

	mu            sync.RWMutex
	subscriptions []subscription
	me            *domain.User
}

// NewTransport creates a transport. users may be nil; when set, every sender
// seen is remembered so usernames can be resolved later.
func NewTransport(client BotClient, users port.UserDirectory) *Transport {
	return &Transport{bot: client, users: users}
}

func (t *Transport) Me(ctx context.Context) (domain.User, error) {
	t.mu.RLock()
	me := t.me
	t.mu.RUnlock()

	if me != nil {
		return *me, nil
	}

	u, err := t.bot.GetMe(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("getting bot identity: %w", err)
	}

	user := convertUser(u)

	t.mu.Lock()
	t.me = &user
	t.mu.Unlock()

	return user, nil
}

func (t *Transport) EditText(ctx context.Context, message *domain.Message, text string) error {
	_, err := t.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    message.ChatID,
		MessageID: message.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})

	return mapError(err)
}

func (t *Transport) ReplyText(ctx context.Context, message *domain.Message, text string) (*domain.Message, error) {
	sent, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    message.ChatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
		ReplyParameters: &models.ReplyParameters{
			MessageID: message.ID,
			ChatID:    message.ChatID,
		},
	})
	if err != nil {
		return nil, mapError(err)
	}

	reply := convertMessage(sent)
	reply.Outgoing = true

	return reply, nil
}

func (t *Transport) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})

	return mapError(err)
}

func (t *Transport) ReplyDocument(ctx context.Context, message *domain.Message, name string, data []byte,
	caption string) error {
	params := &bot.SendDocumentParams{
		ChatID:   message.ChatID,
		Document: &models.InputFileUpload{Filename: name, Data: bytes.NewReader(data)},
		ReplyParameters: &models.ReplyParameters{
			MessageID: message.ID,
			ChatID:    message.ChatID,
		},
	}
	if caption != "" {
		params.Caption = caption
		params.ParseMode = models.ParseModeHTML
	}

	_, err := t.bot.SendDocument(ctx, params)
	if err != nil {
		log.Error().Err(err).Str("file", name).Msg("failed to send document")
		return mapError(err)
	}

	return nil
}

func (t *Transport) Listen(name string, edits bool, l port.Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()

	log.Debug().Str("listener", name).Bool("edits", edits).Msg("adding listener")
	t.subscriptions = append(t.subscriptions, subscription{name: name, edits: edits, listener: l})
}

// Handle is the bot.HandlerFunc feeding updates into the transport.
func (t *Transport) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	t.Dispatch(ctx, update)
}

// MatchMessages selects the updates Handle understands, for bot.RegisterHandlerMatchFunc.
func MatchMessages(update *models.Update) bool {
	msg, _ := extract(update)
	return msg != nil
}

// Dispatch converts update and hands it to the listeners in subscription
// order until one of them stops propagation.
func (t *Transport) Dispatch(ctx context.Context, update *models.Update) {
	raw, edited := extract(update)
	if raw == nil {
		return
	}

	msg := convertMessage(raw)
	msg.Edited = edited

	t.remember(ctx, raw.From)

	t.mu.RLock()
	subscriptions := make([]subscription, len(t.subscriptions))
	copy(subscriptions, t.subscriptions)
	t.mu.RUnlock()

	for _, s := range subscriptions {
		if edited && !s.edits {
			continue
		}

		if s.listener(ctx, msg) == domain.Stop {
			log.Debug().Int("messageId", msg.ID).Int64("chatId", msg.ChatID).Str("listener", s.name).
				Msg("event consumed")
			return
		}
	}
}

func (t *Transport) remember(ctx context.Context, from *models.User) {
	if t.users == nil || from == nil || from.Username == "" {
		return
	}

	if err := t.users.RememberUser(ctx, from.ID, from.Username); err != nil {
		log.Warn().Err(err).Int64("userId", from.ID).Msg("failed to remember user")
	}
}

// extract returns the message carried by update and whether it is an edit.
// Channel posts come first so they are marked as outgoing by convertMessage.
func extract(update *models.Update) (*models.Message, bool) {
	switch {
	case update == nil:
		return nil, false
	case update.Message != nil:
		return update.Message, false
	case update.EditedMessage != nil:
		return update.EditedMessage, true
	case update.ChannelPost != nil:
		return update.ChannelPost, false
	case update.EditedChannelPost != nil:
		return update.EditedChannelPost, true
	default:
		return nil, false
	}
}

func convertMessage(m *models.Message) *domain.Message {
	msg := &domain.Message{
		ID:       m.ID,
		ChatID:   m.Chat.ID,
		Text:     m.Text,
		Outgoing: m.Chat.Type == models.ChatTypeChannel,
	}

	if msg.Text == "" {
		msg.Text = m.Caption
	}

	switch {
	case m.From != nil:
		msg.Sender = convertUser(m.From)
		msg.Language = m.From.LanguageCode
	case m.SenderChat != nil:
		msg.Sender = domain.User{ID: m.SenderChat.ID, Username: m.SenderChat.Username, FirstName: m.SenderChat.Title}
	}

	if m.ReplyToMessage != nil {
		msg.ReplyTo = convertMessage(m.ReplyToMessage)
	}

	return msg
}

func convertUser(u *models.User) domain.User {
	return domain.User{ID: u.ID, Username: u.Username, FirstName: u.FirstName}
}

// mapError translates the Bot API failures the dispatcher handles itself.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	description := strings.ToLower(err.Error())

	switch {
	case strings.Contains(description, "message is not modified"):
		return errors.Join(domain.ErrNotModified, err)
	case strings.Contains(description, "message is too long"),
		strings.Contains(description, "message_too_long"),
		strings.Contains(description, "text is too long"):
		return errors.Join(domain.ErrMessageTooLong, err)
	default:
		return err
	}
}
