package registry

import (
	"context"
	"slices"
	"sync"

	"userbot/internal/core/dispatch"
	"userbot/internal/core/domain"
	"userbot/internal/core/inject"
	"userbot/internal/core/middleware"
	"userbot/internal/core/port"
)

type subscription struct {
	name     string
	edits    bool
	listener port.Listener
}

// MockSource delivers events to its listeners the way the transport does.
type MockSource struct {
	subscriptions []subscription
}

func (m *MockSource) Listen(name string, edits bool, l port.Listener) {
	m.subscriptions = append(m.subscriptions, subscription{name: name, edits: edits, listener: l})
}

func (m *MockSource) Emit(ctx context.Context, msg *domain.Message) domain.Propagation {
	for _, s := range m.subscriptions {
		if msg.Edited && !s.edits {
			continue
		}
		if s.listener(ctx, msg) == domain.Stop {
			return domain.Stop
		}
	}

	return domain.Continue
}

type sent struct {
	method    string
	messageID int
	text      string
}

type MockSender struct {
	mu    sync.Mutex
	calls []sent
}

func (m *MockSender) Calls() []sent {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.calls)
}

func (m *MockSender) Me(_ context.Context) (domain.User, error) {
	return domain.User{ID: 1}, nil
}

func (m *MockSender) EditText(_ context.Context, message *domain.Message, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, sent{method: "edit", messageID: message.ID, text: text})
	return nil
}

func (m *MockSender) ReplyText(_ context.Context, message *domain.Message, text string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, sent{method: "reply", messageID: message.ID, text: text})
	return &domain.Message{ID: message.ID + 1000, ChatID: message.ChatID, Outgoing: true}, nil
}

func (m *MockSender) SendText(_ context.Context, _ int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, sent{method: "send", text: text})
	return nil
}

func (m *MockSender) ReplyDocument(_ context.Context, message *domain.Message, _ string, _ []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, sent{method: "document", messageID: message.ID})
	return nil
}

type MockHookStore struct {
	mu      sync.Mutex
	enabled map[int64][]string
}

func (m *MockHookStore) EnableHook(_ context.Context, name string, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.enabled == nil {
		m.enabled = make(map[int64][]string)
	}
	if !slices.Contains(m.enabled[chatID], name) {
		m.enabled[chatID] = append(m.enabled[chatID], name)
	}

	return nil
}

func (m *MockHookStore) DisableHook(_ context.Context, name string, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enabled[chatID] = slices.DeleteFunc(m.enabled[chatID], func(n string) bool { return n == name })
	return nil
}

func (m *MockHookStore) IsHookEnabled(_ context.Context, name string, chatID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Contains(m.enabled[chatID], name), nil
}

func (m *MockHookStore) ListEnabledHooks(_ context.Context, chatID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.enabled[chatID]), nil
}

func newTestEngine(sender *MockSender, hooks port.HookStore, values ...any) *Engine {
	return &Engine{
		Prefixes: ".!",
		Runner:   dispatch.NewRunner(sender, dispatch.Config{Timeout: dispatch.DefaultTimeout, MaxLength: 4096}),
		Chain:    middleware.NewChain[*inject.Context](),
		Hooks:    hooks,
		Sender:   sender,
		Values:   values,
	}
}

func outgoing(id int, text string) *domain.Message {
	return &domain.Message{ID: id, ChatID: 10, Outgoing: true, Text: text, Sender: domain.User{ID: 1}}
}
