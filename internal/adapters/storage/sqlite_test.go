package storage

import (
	"errors"
	"testing"

	"userbot/internal/core/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewSQLiteStoreWithDB(db)
	broken := errors.New("disk I/O error")

	mock.ExpectQuery("SELECT COUNT").WithArgs("greet", int64(1)).WillReturnError(broken)
	_, err = s.IsHookEnabled(t.Context(), "greet", 1)
	require.ErrorIs(t, err, broken)

	mock.ExpectQuery("SELECT user_id FROM group_members").WithArgs("friends").WillReturnError(broken)
	_, err = s.GroupMembers(t.Context(), "friends")
	require.ErrorIs(t, err, broken)
	assert.NotErrorIs(t, err, domain.ErrGroupNotFound)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO group_members").WithArgs("friends", int64(1)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO group_members").WithArgs("friends", int64(2)).WillReturnError(broken)
	mock.ExpectRollback()
	err = s.AddGroupMembers(t.Context(), "friends", 1, 2)
	require.ErrorIs(t, err, broken)

	mock.ExpectExec("DELETE FROM notes").WithArgs(int64(1), "todo").WillReturnResult(sqlmock.NewResult(0, 0))
	err = s.DeleteNote(t.Context(), 1, "todo")
	require.ErrorIs(t, err, domain.ErrNoteNotFound)

	mock.ExpectQuery("SELECT user_id FROM known_users").WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(42))
	id, err := s.ResolveUsername(t.Context(), "Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	require.NoError(t, mock.ExpectationsWereMet())
}
