package features

import (
	"context"
	"slices"
	"sync"
	"testing"

	"userbot/internal/adapters/storage"
	"userbot/internal/core/dispatch"
	"userbot/internal/core/domain"
	"userbot/internal/core/inject"
	"userbot/internal/core/middleware"
	"userbot/internal/core/port"
	"userbot/internal/core/registry"
	"userbot/internal/core/usergroup"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSource struct {
	listeners []port.Listener
}

func (m *MockSource) Listen(_ string, _ bool, l port.Listener) {
	m.listeners = append(m.listeners, l)
}

func (m *MockSource) Emit(ctx context.Context, msg *domain.Message) {
	for _, l := range m.listeners {
		if l(ctx, msg) == domain.Stop {
			return
		}
	}
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

// Last returns the text of the most recent call.
func (m *MockSender) Last(t *testing.T) string {
	t.Helper()

	calls := m.Calls()
	require.NotEmpty(t, calls)

	return calls[len(calls)-1].text
}

func (m *MockSender) record(method string, id int, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, sent{method: method, messageID: id, text: text})
}

func (m *MockSender) Me(_ context.Context) (domain.User, error) {
	return domain.User{ID: 1}, nil
}

func (m *MockSender) EditText(_ context.Context, message *domain.Message, text string) error {
	m.record("edit", message.ID, text)
	return nil
}

func (m *MockSender) ReplyText(_ context.Context, message *domain.Message, text string) (*domain.Message, error) {
	m.record("reply", message.ID, text)
	return &domain.Message{ID: message.ID + 1000, ChatID: message.ChatID, Outgoing: true}, nil
}

func (m *MockSender) SendText(_ context.Context, _ int64, text string) error {
	m.record("send", 0, text)
	return nil
}

func (m *MockSender) ReplyDocument(_ context.Context, message *domain.Message, name string, _ []byte, _ string) error {
	m.record("document", message.ID, name)
	return nil
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateFromPrompt(ctx context.Context, prompts []domain.Prompt) (string, error) {
	args := m.Called(ctx, prompts)
	return args.String(0), args.Error(1)
}

type harness struct {
	source *MockSource
	sender *MockSender
	store  *storage.MemoryStore
	engine *registry.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := storage.NewMemoryStore()
	sender := &MockSender{}

	return &harness{
		source: &MockSource{},
		sender: sender,
		store:  store,
		engine: &registry.Engine{
			Prefixes: ".",
			Runner:   dispatch.NewRunner(sender, dispatch.Config{Timeout: dispatch.DefaultTimeout, MaxLength: 4096}),
			Chain:    middleware.NewChain[*inject.Context](),
			Icons:    domain.DefaultIcons(),
			Hooks:    store,
			Sender:   sender,
			Values:   []any{store, usergroup.NewResolver(store, store)},
		},
	}
}

func (h *harness) commands(t *testing.T, c *registry.Commands) *harness {
	t.Helper()

	require.NoError(t, c.Register(h.source, h.engine))
	return h
}

func (h *harness) send(t *testing.T, text string) string {
	t.Helper()

	h.source.Emit(t.Context(), &domain.Message{ID: 1, ChatID: 10, Outgoing: true, Text: text, Sender: domain.User{ID: 1}})
	return h.sender.Last(t)
}
