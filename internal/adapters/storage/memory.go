package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"userbot/internal/core/domain"
)

type noteKey struct {
	chatID int64
	name   string
}

// MemoryStore keeps everything in maps; nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	hooks  map[int64]map[string]bool
	groups map[string]map[int64]bool
	notes  map[noteKey]string
	users  map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hooks:  make(map[int64]map[string]bool),
		groups: make(map[string]map[int64]bool),
		notes:  make(map[noteKey]string),
		users:  make(map[string]int64),
	}
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) EnableHook(_ context.Context, name string, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hooks[chatID] == nil {
		m.hooks[chatID] = make(map[string]bool)
	}
	m.hooks[chatID][name] = true

	return nil
}

func (m *MemoryStore) DisableHook(_ context.Context, name string, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.hooks[chatID], name)

	return nil
}

func (m *MemoryStore) IsHookEnabled(_ context.Context, name string, chatID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.hooks[chatID][name], nil
}

func (m *MemoryStore) ListEnabledHooks(_ context.Context, chatID int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return sortedKeys(m.hooks[chatID]), nil
}

func (m *MemoryStore) GroupMembers(_ context.Context, name string) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members := m.groups[name]
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrGroupNotFound, name)
	}

	return sortedKeys(members), nil
}

func (m *MemoryStore) AddGroupMembers(_ context.Context, name string, ids ...int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.groups[name] == nil {
		m.groups[name] = make(map[int64]bool)
	}
	for _, id := range ids {
		m.groups[name][id] = true
	}

	return nil
}

func (m *MemoryStore) RemoveGroupMembers(_ context.Context, name string, ids ...int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		delete(m.groups[name], id)
	}
	if len(m.groups[name]) == 0 {
		delete(m.groups, name)
	}

	return nil
}

func (m *MemoryStore) ListGroups(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return sortedKeys(m.groups), nil
}

func (m *MemoryStore) GetNote(_ context.Context, chatID int64, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	text, ok := m.notes[noteKey{chatID, name}]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrNoteNotFound, name)
	}

	return text, nil
}

func (m *MemoryStore) SetNote(_ context.Context, chatID int64, name, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notes[noteKey{chatID, name}] = text

	return nil
}

func (m *MemoryStore) DeleteNote(_ context.Context, chatID int64, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := noteKey{chatID, name}
	if _, ok := m.notes[key]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrNoteNotFound, name)
	}
	delete(m.notes, key)

	return nil
}

func (m *MemoryStore) ListNotes(_ context.Context, chatID int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for key := range m.notes {
		if key.chatID == chatID {
			names = append(names, key.name)
		}
	}
	slices.Sort(names)

	return names, nil
}

func (m *MemoryStore) RememberUser(_ context.Context, id int64, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users[strings.ToLower(username)] = id

	return nil
}

func (m *MemoryStore) ResolveUsername(_ context.Context, username string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.users[strings.ToLower(username)]
	if !ok {
		return 0, fmt.Errorf("%w: @%s", domain.ErrUserNotFound, username)
	}

	return id, nil
}

func sortedKeys[K int64 | string, V any](m map[K]V) []K {
	if len(m) == 0 {
		return nil
	}

	return slices.Sorted(maps.Keys(m))
}
