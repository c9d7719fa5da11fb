package domain

// User is a chat participant as seen by the transport.
type User struct {
	ID        int64
	Username  string
	FirstName string
}

// DisplayName returns "@username" or the first name when no username is set.
func (u User) DisplayName() string {
	if u.Username == "" {
		return u.FirstName
	}

	return "@" + u.Username
}

// Message is the raw text event delivered by the transport.
type Message struct {
	ID       int
	ChatID   int64
	Sender   User
	Text     string
	Edited   bool
	Outgoing bool
	ReplyTo  *Message
	Language string
}

// Propagation tells the event source whether later listeners get to see the event.
type Propagation int

const (
	Stop Propagation = iota
	Continue
)

func (p Propagation) String() string {
	switch p {
	case Stop:
		return "stop"
	case Continue:
		return "continue"
	default:
		return "unknown"
	}
}

// Icons is the emoji set handlers use to decorate replies.
type Icons struct {
	Error   string
	Warning string
	Info    string
	Success string
	Wait    string
}

func DefaultIcons() Icons {
	return Icons{
		Error:   "❌",
		Warning: "⚠️",
		Info:    "ℹ️",
		Success: "✅",
		Wait:    "⏳",
	}
}

// Prompt is a single turn sent to a text generator.
type Prompt struct {
	Prompt string
	Author Author
}

type Author string

const (
	AuthorUser   Author = "user"
	AuthorSystem Author = "system"
)
