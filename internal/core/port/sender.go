package port

import (
	"context"
	"userbot/internal/core/domain"
)

type MessageSender interface {
	// Me returns the identity the transport acts as.
	Me(ctx context.Context) (domain.User, error)
	// EditText replaces the text of message with HTML formatted text. The message must be owned by Me.
	EditText(ctx context.Context, message *domain.Message, text string) error
	// ReplyText sends HTML formatted text as a reply to message and returns the sent message.
	ReplyText(ctx context.Context, message *domain.Message, text string) (*domain.Message, error)
	// SendText sends HTML formatted text to a chat without replying to anything.
	SendText(ctx context.Context, chatID int64, text string) error
	// ReplyDocument uploads data as a named file in reply to message, with an HTML caption.
	ReplyDocument(ctx context.Context, message *domain.Message, name string, data []byte, caption string) error
}

// Listener handles one incoming event and decides whether later listeners see it.
type Listener func(ctx context.Context, message *domain.Message) domain.Propagation

type EventSource interface {
	// Listen subscribes l to new messages, and to edited messages as well when edits is set.
	// Listeners are called in subscription order until one returns domain.Stop.
	Listen(name string, edits bool, l Listener)
}
