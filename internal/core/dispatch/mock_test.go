package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"userbot/internal/core/domain"
)

type call struct {
	method    string
	messageID int
	chatID    int64
	text      string
	name      string
}

type MockSender struct {
	mu      sync.Mutex
	calls   []call
	nextID  int
	editErr func(text string) error
	sendErr error
	docErr  error
}

func (m *MockSender) record(c call) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, c)
}

func (m *MockSender) Calls() []call {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]call, len(m.calls))
	copy(out, m.calls)

	return out
}

func (m *MockSender) Me(_ context.Context) (domain.User, error) {
	return domain.User{ID: 1, Username: "me"}, nil
}

func (m *MockSender) EditText(_ context.Context, message *domain.Message, text string) error {
	m.record(call{method: "edit", messageID: message.ID, chatID: message.ChatID, text: text})
	if m.editErr != nil {
		return m.editErr(text)
	}

	return nil
}

func (m *MockSender) ReplyText(_ context.Context, message *domain.Message, text string) (*domain.Message, error) {
	m.record(call{method: "reply", messageID: message.ID, chatID: message.ChatID, text: text})
	if m.editErr != nil {
		if err := m.editErr(text); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	m.nextID++
	id := 1000 + m.nextID
	m.mu.Unlock()

	return &domain.Message{ID: id, ChatID: message.ChatID, Outgoing: true, Text: text}, nil
}

func (m *MockSender) SendText(_ context.Context, chatID int64, text string) error {
	m.record(call{method: "send", chatID: chatID, text: text})
	return m.sendErr
}

func (m *MockSender) ReplyDocument(_ context.Context, message *domain.Message, name string, data []byte,
	_ string) error {
	m.record(call{method: "document", messageID: message.ID, chatID: message.ChatID, text: string(data), name: name})
	return m.docErr
}

type MockPaste struct {
	mu    sync.Mutex
	texts []string
	url   string
	err   error
}

func (m *MockPaste) Submit(_ context.Context, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.texts = append(m.texts, text)
	if m.err != nil {
		return "", m.err
	}

	return m.url, nil
}

type MockObserver struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (m *MockObserver) Observe(_, _ string, outcome Outcome, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.outcomes = append(m.outcomes, outcome)
}

var errPlatformTooLong = errors.Join(errors.New("bad request"), domain.ErrMessageTooLong)
