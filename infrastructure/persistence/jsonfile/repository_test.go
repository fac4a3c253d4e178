package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todolist-backend/application/ports"
	"todolist-backend/domain/core/valueobjects"
	"todolist-backend/infrastructure/persistence/repotest"
	pkgerrors "todolist-backend/pkg/errors"
)

func TestRepository_Contract(t *testing.T) {
	repotest.RunContract(t, func(t *testing.T, clock ports.Clock) ports.TodoRepository {
		repo, err := Open(filepath.Join(t.TempDir(), "todos.json"), clock, zap.NewNop())
		require.NoError(t, err)
		return repo
	})
}

func mustText(t *testing.T, raw string) valueobjects.TodoText {
	t.Helper()
	v, err := valueobjects.NewTodoText(raw)
	require.NoError(t, err)
	return v
}

func TestRepository_Persists(t *testing.T) {
	t.Run("Should reload todos and history from disk", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "todos.json")
		repo, err := Open(path, repotest.NewStepClock(), zap.NewNop())
		require.NoError(t, err)
		todo, err := repo.CreateTodo(ctx, "u", mustText(t, "A"))
		require.NoError(t, err)
		_, err = repo.UpdateTodoText(ctx, "u", todo.ID(), mustText(t, "B"))
		require.NoError(t, err)

		// Act
		reopened, err := Open(path, nil, zap.NewNop())
		require.NoError(t, err)
		got, err := reopened.GetTodoWithHistory(ctx, "u", todo.ID())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "B", got.Text().String())
		require.Len(t, got.EditHistory(), 1)
		assert.Equal(t, "A", got.EditHistory()[0].Text)
	})

	t.Run("Should write a readable document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "todos.json")
		repo, err := Open(path, nil, zap.NewNop())
		require.NoError(t, err)
		_, err = repo.CreateTodo(context.Background(), "u", mustText(t, "Buy milk"))
		require.NoError(t, err)

		b, err := os.ReadFile(path)
		require.NoError(t, err)
		var doc document
		require.NoError(t, json.Unmarshal(b, &doc))
		require.Len(t, doc.Todos, 1)
		assert.Equal(t, "Buy milk", doc.Todos[0].Text)
		assert.Empty(t, doc.EditHistory)
	})

	t.Run("Should keep memory unchanged when the write fails", func(t *testing.T) {
		// Arrange
		dir := t.TempDir()
		repo, err := Open(filepath.Join(dir, "sub", "todos.json"), nil, zap.NewNop())
		require.NoError(t, err)
		// a regular file where the directory should be makes every write fail
		require.NoError(t, os.WriteFile(filepath.Join(dir, "sub"), []byte("x"), 0o644))

		// Act
		_, err = repo.CreateTodo(context.Background(), "u", mustText(t, "Buy milk"))

		// Assert
		require.Error(t, err)
		assert.True(t, pkgerrors.IsPersistence(err))
		stats, err := repo.FetchStats(context.Background(), "u")
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Total())
	})
}

func TestOpen_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(path, nil, zap.NewNop())
	assert.Error(t, err)
}
