// Package repotest holds the behaviour every TodoRepository implementation must share.
package repotest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todolist-backend/application/ports"
	"todolist-backend/domain/core/valueobjects"
	pkgerrors "todolist-backend/pkg/errors"
)

// StepClock returns a strictly increasing time on every call
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewStepClock starts at a fixed instant and advances one second per call
func NewStepClock() *StepClock {
	return &StepClock{
		now:  time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		step: time.Second,
	}
}

// Now returns the next instant
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

// Factory builds a fresh, empty repository driven by the given clock
type Factory func(t *testing.T, clock ports.Clock) ports.TodoRepository

func text(t *testing.T, raw string) valueobjects.TodoText {
	t.Helper()
	v, err := valueobjects.NewTodoText(raw)
	require.NoError(t, err)
	return v
}

// RunContract exercises the repository semantics shared by every backend
func RunContract(t *testing.T, factory Factory) {
	const owner = "user-1"

	t.Run("Should create an active todo with empty history", func(t *testing.T) {
		ctx := context.Background()
		repo := factory(t, NewStepClock())

		todo, err := repo.CreateTodo(ctx, owner, text(t, "Buy milk"))
		require.NoError(t, err)

		assert.False(t, todo.ID().IsZero())
		assert.Equal(t, "Buy milk", todo.Text().String())
		assert.False(t, todo.IsCompleted())
		assert.Nil(t, todo.CompletedAt())
		assert.Empty(t, todo.EditHistory())

		got, err := repo.GetTodo(ctx, owner, todo.ID())
		require.NoError(t, err)
		assert.Equal(t, "Buy milk", got.Text().String())
		assert.True(t, todo.CreatedAt().Equal(got.CreatedAt()))
	})

	t.Run("Should report missing todos as not found", func(t *testing.T) {
		ctx := context.Background()
		repo := factory(t, NewStepClock())
		missing := valueobjects.NewTodoID()

		_, err := repo.GetTodo(ctx, owner, missing)
		assert.True(t, pkgerrors.IsNotFound(err), "GetTodo: %v", err)

		_, err = repo.GetTodoWithHistory(ctx, owner, missing)
		assert.True(t, pkgerrors.IsNotFound(err), "GetTodoWithHistory: %v", err)

		_, err = repo.UpdateTodoText(ctx, owner, missing, text(t, "x"))
		assert.True(t, pkgerrors.IsNotFound(err), "UpdateTodoText: %v", err)

		_, err = repo.MarkAsCompleted(ctx, owner, missing)
		assert.True(t, pkgerrors.IsNotFound(err), "MarkAsCompleted: %v", err)

		err = repo.MarkAsUncompleted(ctx, owner, missing)
		assert.True(t, pkgerrors.IsNotFound(err), "MarkAsUncompleted: %v", err)

		err = repo.DeleteTodo(ctx, owner, missing)
		assert.True(t, pkgerrors.IsNotFound(err), "DeleteTodo: %v", err)
	})

	t.Run("Should keep owners isolated", func(t *testing.T) {
		ctx := context.Background()
		repo := factory(t, NewStepClock())

		todo, err := repo.CreateTodo(ctx, owner, text(t, "mine"))
		require.NoError(t, err)

		_, err = repo.GetTodo(ctx, "someone-else", todo.ID())
		assert.True(t, pkgerrors.IsNotFound(err))

		others, err := repo.FetchTodos(ctx, "someone-else")
		require.NoError(t, err)
		assert.Empty(t, others)
	})

	t.Run("Should record edit history newest first", func(t *testing.T) {
		ctx := context.Background()
		repo := factory(t, NewStepClock())

		todo, err := repo.CreateTodo(ctx, owner, text(t, "A"))
		require.NoError(t, err)

		first, err := repo.UpdateTodoText(ctx, owner, todo.ID(), text(t, "B"))
		require.NoError(t, err)
		assert.Equal(t, "A", first.Text)

		second, err := repo.UpdateTodoText(ctx, owner, todo.ID(), text(t, "C"))
		require.NoError(t, err)
		assert.Equal(t, "B", second.Text)
		assert.True(t, second.EditedAt.After(first.EditedAt))

		got, err := repo.GetTodoWithHistory(ctx, owner, todo.ID())
		require.NoError(t, err)
		assert.Equal(t, "C", got.Text().String())
		history := got.EditHistory()
		require.Len(t, history, 2)
		assert.Equal(t, "B", history[0].Text)
		assert.Equal(t, "A", history[1].Text)

		raw, err := repo.GetTodo(ctx, owner, todo.ID())
		require.NoError(t, err)
		assert.Equal(t, "C", raw.Text().String())
		assert.Empty(t, raw.EditHistory())
	})

	t.Run("Should treat unchanged text as noop", func(t *testing.T) {
		ctx := context.Background()
		repo := factory(t, NewStepClock())

		todo, err := repo.CreateTodo(ctx, owner, text(t, "same"))
		require.NoError(t, err)

		_, err = repo.UpdateTodoText(ctx, owner, todo.ID(), text(t, "same"))
		assert.True(t, pkgerrors.IsNoop(err), "got %v", err)

		got, err := repo.GetTodoWithHistory(ctx, owner, todo.ID())
		require.NoError(t, err)
		assert.Empty(t, got.EditHistory())
	})

	t.Run("Should complete and reopen", func(t *testing.T) {
		ctx := context.Background()
		repo := factory(t, NewStepClock())

		todo, err := repo.CreateTodo(ctx, owner, text(t, "Buy milk"))
		require.NoError(t, err)

		completedAt, err := repo.MarkAsCompleted(ctx, owner, todo.ID())
		require.NoError(t, err)
		assert.False(t, completedAt.IsZero())

		got, err := repo.GetTodo(ctx, owner, todo.ID())
		require.NoError(t, err)
		assert.True(t, got.IsCompleted())
		require.NotNil(t, got.CompletedAt())
		assert.True(t, completedAt.Equal(*got.CompletedAt()))

		require.NoError(t, repo.MarkAsUncompleted(ctx, owner, todo.ID()))

		got, err = repo.GetTodo(ctx, owner, todo.ID())
		require.NoError(t, err)
		assert.False(t, got.IsCompleted())
		assert.Nil(t, got.CompletedAt())
		assert.True(t, todo.CreatedAt().Equal(got.CreatedAt()))
	})

	t.Run("Should order partitions by their timestamps", func(t *testing.T) {
		ctx := context.Background()
		repo := factory(t, NewStepClock())

		a, err := repo.CreateTodo(ctx, owner, text(t, "a"))
		require.NoError(t, err)
		b, err := repo.CreateTodo(ctx, owner, text(t, "b"))
		require.NoError(t, err)
		c, err := repo.CreateTodo(ctx, owner, text(t, "c"))
		require.NoError(t, err)
		d, err := repo.CreateTodo(ctx, owner, text(t, "d"))
		require.NoError(t, err)

		// complete b after a so a is older in the completed list
		_, err = repo.MarkAsCompleted(ctx, owner, a.ID())
		require.NoError(t, err)
		_, err = repo.MarkAsCompleted(ctx, owner, b.ID())
		require.NoError(t, err)

		active, err := repo.FetchActiveTodos(ctx, owner)
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, d.ID(), active[0].ID())
		assert.Equal(t, c.ID(), active[1].ID())

		completed, err := repo.FetchCompletedTodos(ctx, owner)
		require.NoError(t, err)
		require.Len(t, completed, 2)
		assert.Equal(t, b.ID(), completed[0].ID())
		assert.Equal(t, a.ID(), completed[1].ID())

		all, err := repo.FetchTodos(ctx, owner)
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, d.ID(), all[0].ID())
		assert.Equal(t, a.ID(), all[3].ID())

		stats, err := repo.FetchStats(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.ActiveCount)
		assert.Equal(t, 2, stats.CompletedCount)
	})

	t.Run("Should include history in fetched lists", func(t *testing.T) {
		ctx := context.Background()
		repo := factory(t, NewStepClock())

		todo, err := repo.CreateTodo(ctx, owner, text(t, "A"))
		require.NoError(t, err)
		_, err = repo.UpdateTodoText(ctx, owner, todo.ID(), text(t, "B"))
		require.NoError(t, err)

		active, err := repo.FetchActiveTodos(ctx, owner)
		require.NoError(t, err)
		require.Len(t, active, 1)
		require.Len(t, active[0].EditHistory(), 1)
		assert.Equal(t, "A", active[0].EditHistory()[0].Text)
	})

	t.Run("Should cascade deletes to history", func(t *testing.T) {
		ctx := context.Background()
		repo := factory(t, NewStepClock())

		todo, err := repo.CreateTodo(ctx, owner, text(t, "A"))
		require.NoError(t, err)
		_, err = repo.UpdateTodoText(ctx, owner, todo.ID(), text(t, "B"))
		require.NoError(t, err)

		require.NoError(t, repo.DeleteTodo(ctx, owner, todo.ID()))

		_, err = repo.GetTodoWithHistory(ctx, owner, todo.ID())
		assert.True(t, pkgerrors.IsNotFound(err))

		all, err := repo.FetchTodos(ctx, owner)
		require.NoError(t, err)
		assert.Empty(t, all)

		stats, err := repo.FetchStats(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Total())
	})
}
