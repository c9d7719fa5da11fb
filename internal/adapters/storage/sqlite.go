// Package storage persists hook toggles, user groups, notes and known users.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"userbot/internal/core/domain"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// SQLiteStore keeps everything in one SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens the database at path, creating the schema if needed.
// ":memory:" gives a private in-memory database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// one connection, so ":memory:" is one database and writes never contend
	db.SetMaxOpenConns(1)

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err = db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if path != ":memory:" {
		_ = os.Chmod(path, 0600)
	}

	log.Info().Str("path", path).Msg("opened sqlite store")

	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreWithDB wraps an already prepared database.
func NewSQLiteStoreWithDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) EnableHook(ctx context.Context, name string, chatID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enabled_hooks (name, chat_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		name, chatID)
	if err != nil {
		return fmt.Errorf("enable hook: %w", err)
	}

	return nil
}

func (s *SQLiteStore) DisableHook(ctx context.Context, name string, chatID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM enabled_hooks WHERE name = ? AND chat_id = ?`, name, chatID)
	if err != nil {
		return fmt.Errorf("disable hook: %w", err)
	}

	return nil
}

func (s *SQLiteStore) IsHookEnabled(ctx context.Context, name string, chatID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enabled_hooks WHERE name = ? AND chat_id = ?`, name, chatID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check hook: %w", err)
	}

	return n > 0, nil
}

func (s *SQLiteStore) ListEnabledHooks(ctx context.Context, chatID int64) ([]string, error) {
	return s.column(ctx, `SELECT name FROM enabled_hooks WHERE chat_id = ? ORDER BY name`, chatID)
}

func (s *SQLiteStore) GroupMembers(ctx context.Context, name string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM group_members WHERE name = ? ORDER BY user_id`, name)
	if err != nil {
		return nil, fmt.Errorf("query group: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query group: %w", err)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrGroupNotFound, name)
	}

	return ids, nil
}

func (s *SQLiteStore) AddGroupMembers(ctx context.Context, name string, ids ...int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO group_members (name, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING`, name, id); err != nil {
				return fmt.Errorf("add group member: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) RemoveGroupMembers(ctx context.Context, name string, ids ...int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM group_members WHERE name = ? AND user_id = ?`, name, id); err != nil {
				return fmt.Errorf("remove group member: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListGroups(ctx context.Context) ([]string, error) {
	return s.column(ctx, `SELECT DISTINCT name FROM group_members ORDER BY name`)
}

func (s *SQLiteStore) GetNote(ctx context.Context, chatID int64, name string) (string, error) {
	var text string
	err := s.db.QueryRowContext(ctx,
		`SELECT text FROM notes WHERE chat_id = ? AND name = ?`, chatID, name).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", domain.ErrNoteNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("get note: %w", err)
	}

	return text, nil
}

func (s *SQLiteStore) SetNote(ctx context.Context, chatID int64, name, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (chat_id, name, text) VALUES (?, ?, ?)
		 ON CONFLICT(chat_id, name) DO UPDATE SET text = excluded.text, updated_at = datetime('now')`,
		chatID, name, text)
	if err != nil {
		return fmt.Errorf("set note: %w", err)
	}

	return nil
}

func (s *SQLiteStore) DeleteNote(ctx context.Context, chatID int64, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE chat_id = ? AND name = ?`, chatID, name)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNoteNotFound, name)
	}

	return nil
}

func (s *SQLiteStore) ListNotes(ctx context.Context, chatID int64) ([]string, error) {
	return s.column(ctx, `SELECT name FROM notes WHERE chat_id = ? ORDER BY name`, chatID)
}

func (s *SQLiteStore) RememberUser(ctx context.Context, id int64, username string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO known_users (username, user_id) VALUES (?, ?)
		 ON CONFLICT(username) DO UPDATE SET user_id = excluded.user_id`,
		strings.ToLower(username), id)
	if err != nil {
		return fmt.Errorf("remember user: %w", err)
	}

	return nil
}

func (s *SQLiteStore) ResolveUsername(ctx context.Context, username string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM known_users WHERE username = ?`, strings.ToLower(username)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: @%s", domain.ErrUserNotFound, username)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve username: %w", err)
	}

	return id, nil
}

func (s *SQLiteStore) column(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}

	return out, rows.Err()
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
