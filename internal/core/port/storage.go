package port

import "context"

type HookStore interface {
	EnableHook(ctx context.Context, name string, chatID int64) error
	DisableHook(ctx context.Context, name string, chatID int64) error
	IsHookEnabled(ctx context.Context, name string, chatID int64) (bool, error)
	ListEnabledHooks(ctx context.Context, chatID int64) ([]string, error)
}

type GroupStore interface {
	// GroupMembers returns the stored members of a group, or domain.ErrGroupNotFound.
	GroupMembers(ctx context.Context, name string) ([]int64, error)
	AddGroupMembers(ctx context.Context, name string, ids ...int64) error
	RemoveGroupMembers(ctx context.Context, name string, ids ...int64) error
	ListGroups(ctx context.Context) ([]string, error)
}

type NoteStore interface {
	// GetNote returns the note text, or domain.ErrNoteNotFound.
	GetNote(ctx context.Context, chatID int64, name string) (string, error)
	SetNote(ctx context.Context, chatID int64, name, text string) error
	DeleteNote(ctx context.Context, chatID int64, name string) error
	ListNotes(ctx context.Context, chatID int64) ([]string, error)
}

type UserDirectory interface {
	// RememberUser records the username to ID mapping of a user seen by the transport.
	RememberUser(ctx context.Context, id int64, username string) error
	// ResolveUsername returns the ID of a known username (without "@"), or domain.ErrUserNotFound.
	ResolveUsername(ctx context.Context, username string) (int64, error)
}

// Store is everything the persistence adapters provide.
type Store interface {
	HookStore
	GroupStore
	NoteStore
	UserDirectory
	Close() error
}
