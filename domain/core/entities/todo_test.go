package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todolist-backend/domain/core/valueobjects"
)

func mustText(t *testing.T, raw string) valueobjects.TodoText {
	t.Helper()
	text, err := valueobjects.NewTodoText(raw)
	require.NoError(t, err)
	return text
}

func newTestTodo(t *testing.T, raw string, createdAt time.Time) *Todo {
	t.Helper()
	todo, err := NewTodo("user-1", valueobjects.NewTodoID(), mustText(t, raw), createdAt)
	require.NoError(t, err)
	return todo
}

func TestNewTodo(t *testing.T) {
	t.Run("Should create an active todo with empty history", func(t *testing.T) {
		now := time.Now()
		todo := newTestTodo(t, "Buy milk", now)

		assert.Equal(t, "Buy milk", todo.Text().String())
		assert.False(t, todo.IsCompleted())
		assert.Nil(t, todo.CompletedAt())
		assert.Empty(t, todo.EditHistory())
		assert.Equal(t, now, todo.CreatedAt())
	})

	t.Run("Should reject an empty owner", func(t *testing.T) {
		_, err := NewTodo("", valueobjects.NewTodoID(), mustText(t, "x"), time.Now())
		assert.Error(t, err)
	})

	t.Run("Should reject a zero id", func(t *testing.T) {
		_, err := NewTodo("user-1", valueobjects.TodoID{}, mustText(t, "x"), time.Now())
		assert.Error(t, err)
	})
}

func TestReconstructTodo(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Should order history newest first", func(t *testing.T) {
		history := []EditRecord{
			NewEditRecord("A", base.Add(time.Minute)),
			NewEditRecord("B", base.Add(2*time.Minute)),
		}
		todo, err := ReconstructTodo(valueobjects.NewTodoID(), "user-1", mustText(t, "C"), false, base, nil, history)
		require.NoError(t, err)

		got := todo.EditHistory()
		require.Len(t, got, 2)
		assert.Equal(t, "B", got[0].Text)
		assert.Equal(t, "A", got[1].Text)
	})

	t.Run("Should require completedAt for completed todos", func(t *testing.T) {
		_, err := ReconstructTodo(valueobjects.NewTodoID(), "user-1", mustText(t, "x"), true, base, nil, nil)
		assert.Error(t, err)
	})
}

func TestTodo_ApplyEdit(t *testing.T) {
	base := time.Now()
	todo := newTestTodo(t, "A", base)

	todo.ApplyEdit(NewEditRecord("A", base.Add(time.Second)), mustText(t, "B"))
	todo.ApplyEdit(NewEditRecord("B", base.Add(2*time.Second)), mustText(t, "C"))

	assert.Equal(t, "C", todo.Text().String())
	history := todo.EditHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "B", history[0].Text)
	assert.Equal(t, "A", history[1].Text)
}

func TestTodo_CompleteAndReopen(t *testing.T) {
	created := time.Now().Add(-time.Hour)
	todo := newTestTodo(t, "Buy milk", created)
	id := todo.ID()

	todo.MarkCompleted(time.Now())
	assert.True(t, todo.IsCompleted())
	assert.NotNil(t, todo.CompletedAt())

	todo.MarkActive()
	assert.False(t, todo.IsCompleted())
	assert.Nil(t, todo.CompletedAt())
	assert.True(t, id.Equals(todo.ID()))
	assert.Equal(t, created, todo.CreatedAt())
	assert.Equal(t, "Buy milk", todo.Text().String())
}

func TestTodo_Clone(t *testing.T) {
	todo := newTestTodo(t, "A", time.Now())
	todo.MarkCompleted(time.Now())

	clone := todo.Clone()
	clone.ApplyEdit(NewEditRecord("A", time.Now()), mustText(t, "B"))
	clone.MarkActive()

	assert.Equal(t, "A", todo.Text().String())
	assert.Empty(t, todo.EditHistory())
	assert.True(t, todo.IsCompleted())
}

func TestOrdering(t *testing.T) {
	base := time.Now()
	older := newTestTodo(t, "older", base.Add(-2*time.Hour))
	middle := newTestTodo(t, "middle", base.Add(-time.Hour))
	newer := newTestTodo(t, "newer", base)

	t.Run("Should sort by creation time descending", func(t *testing.T) {
		todos := []*Todo{older, newer, middle}
		SortByCreatedDesc(todos)
		assert.Equal(t, []*Todo{newer, middle, older}, todos)
	})

	t.Run("Should locate the creation-time slot", func(t *testing.T) {
		todos := []*Todo{newer, older}
		assert.Equal(t, 1, CreatedPosition(todos, middle))
		assert.Equal(t, 0, CreatedPosition(todos, newTestTodo(t, "newest", base.Add(time.Hour))))
		assert.Equal(t, 2, CreatedPosition(todos, newTestTodo(t, "oldest", base.Add(-3*time.Hour))))
	})

	t.Run("Should sort by completion time descending", func(t *testing.T) {
		a := older.Clone()
		a.MarkCompleted(base)
		b := newer.Clone()
		b.MarkCompleted(base.Add(-time.Minute))

		todos := []*Todo{b, a}
		SortByCompletedDesc(todos)
		assert.Equal(t, "older", todos[0].Text().String())
	})
}
