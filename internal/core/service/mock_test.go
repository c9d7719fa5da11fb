package service

import (
	"context"
	"sync"

	"userbot/internal/core/dispatch"
	"userbot/internal/core/domain"
	"userbot/internal/core/inject"
	"userbot/internal/core/port"
	"userbot/internal/core/registry"
	"userbot/internal/core/usergroup"
)

type mockSender struct {
	mu      sync.Mutex
	replies []string
	err     error
}

func (m *mockSender) Me(context.Context) (domain.User, error) { return domain.User{ID: 1}, nil }

func (m *mockSender) EditText(context.Context, *domain.Message, string) error { return nil }

func (m *mockSender) ReplyText(_ context.Context, msg *domain.Message, text string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.replies = append(m.replies, text)
	if m.err != nil {
		return nil, m.err
	}

	return &domain.Message{ID: msg.ID + 1, ChatID: msg.ChatID}, nil
}

func (m *mockSender) SendText(context.Context, int64, string) error { return nil }

func (m *mockSender) ReplyDocument(context.Context, *domain.Message, string, []byte, string) error {
	return nil
}

type mockResolver struct {
	result usergroup.Result
	err    error
	calls  int
}

func (m *mockResolver) ResolveAll(_ context.Context, _ ...string) (usergroup.Result, error) {
	m.calls++
	return m.result, m.err
}

func invocation(msg *domain.Message, kind registry.Kind, sender port.MessageSender) *inject.Context {
	c := inject.NewContext(msg, registry.Invocation{Kind: kind, Name: "test"})
	inject.ProvideAs(c, sender)
	inject.ProvideAs[port.Translator](c, dispatch.Passthrough{})

	return c
}

func reached(called *bool) func(context.Context, *inject.Context) error {
	return func(context.Context, *inject.Context) error {
		*called = true
		return nil
	}
}
