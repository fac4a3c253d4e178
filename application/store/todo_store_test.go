package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todolist-backend/application/ports/mocks"
	"todolist-backend/domain/core/entities"
	"todolist-backend/domain/core/valueobjects"
	"todolist-backend/infrastructure/persistence/memory"
	"todolist-backend/infrastructure/persistence/repotest"
	pkgerrors "todolist-backend/pkg/errors"
)

const testOwner = "user-1"

func newMemoryStore(t *testing.T) *TodoStore {
	t.Helper()
	repo := memory.NewRepository(repotest.NewStepClock())
	s := NewTodoStore(testOwner, repo, zap.NewNop())
	require.NoError(t, s.Load(context.Background()))
	return s
}

func texts(todos []*entities.Todo) []string {
	out := make([]string, len(todos))
	for i, t := range todos {
		out[i] = t.Text().String()
	}
	return out
}

func TestTodoStore_Add(t *testing.T) {
	t.Run("Should add exactly one active todo", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		s := newMemoryStore(t)

		// Act
		todo, err := s.Add(ctx, "Buy milk")

		// Assert
		require.NoError(t, err)
		assert.False(t, todo.IsCompleted())
		assert.Empty(t, todo.EditHistory())
		assert.Equal(t, []string{"Buy milk"}, texts(s.Active()))
		assert.Empty(t, s.Completed())
	})

	t.Run("Should put the newest todo first", func(t *testing.T) {
		ctx := context.Background()
		s := newMemoryStore(t)

		_, err := s.Add(ctx, "first")
		require.NoError(t, err)
		_, err = s.Add(ctx, "second")
		require.NoError(t, err)

		assert.Equal(t, []string{"second", "first"}, texts(s.Active()))
	})

	t.Run("Should reject empty and whitespace text without calling the repository", func(t *testing.T) {
		ctx := context.Background()
		repo := new(mocks.MockTodoRepository)
		s := NewTodoStore(testOwner, repo, zap.NewNop())

		for _, raw := range []string{"", "   ", "\t\n"} {
			_, err := s.Add(ctx, raw)
			assert.True(t, pkgerrors.IsValidation(err), "input %q", raw)
		}

		assert.Empty(t, s.Active())
		repo.AssertNotCalled(t, "CreateTodo", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should leave the active count unchanged when persistence fails", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		repo := new(mocks.MockTodoRepository)
		existing := mustTodo(t, "existing", time.Now())
		repo.On("FetchActiveTodos", ctx, testOwner).Return([]*entities.Todo{existing}, nil)
		repo.On("FetchCompletedTodos", ctx, testOwner).Return([]*entities.Todo{}, nil)
		repo.On("CreateTodo", ctx, testOwner, mock.AnythingOfType("valueobjects.TodoText")).
			Return(nil, errors.New("connection refused"))

		s := NewTodoStore(testOwner, repo, zap.NewNop())
		require.NoError(t, s.Load(ctx))
		before := len(s.Active())

		// Act
		_, err := s.Add(ctx, "Buy milk")

		// Assert
		assert.True(t, pkgerrors.IsPersistence(err))
		assert.Equal(t, before, len(s.Active()))
		repo.AssertExpectations(t)
	})
}

func mustTodo(t *testing.T, raw string, createdAt time.Time) *entities.Todo {
	t.Helper()
	text, err := valueobjects.NewTodoText(raw)
	require.NoError(t, err)
	todo, err := entities.NewTodo(testOwner, valueobjects.NewTodoID(), text, createdAt)
	require.NoError(t, err)
	return todo
}

func TestTodoStore_Edit(t *testing.T) {
	t.Run("Should prepend the previous text to history", func(t *testing.T) {
		ctx := context.Background()
		s := newMemoryStore(t)
		todo, err := s.Add(ctx, "A")
		require.NoError(t, err)

		edited, err := s.Edit(ctx, todo.ID(), "B")
		require.NoError(t, err)

		assert.Equal(t, "B", edited.Text().String())
		require.Len(t, edited.EditHistory(), 1)
		assert.Equal(t, "A", edited.EditHistory()[0].Text)
	})

	t.Run("Should keep history most recent first across edits", func(t *testing.T) {
		ctx := context.Background()
		s := newMemoryStore(t)
		todo, err := s.Add(ctx, "A")
		require.NoError(t, err)

		_, err = s.Edit(ctx, todo.ID(), "B")
		require.NoError(t, err)
		_, err = s.Edit(ctx, todo.ID(), "C")
		require.NoError(t, err)

		got, err := s.Get(todo.ID())
		require.NoError(t, err)
		assert.Equal(t, "C", got.Text().String())
		history := got.EditHistory()
		require.Len(t, history, 2)
		assert.Equal(t, "B", history[0].Text)
		assert.Equal(t, "A", history[1].Text)
	})

	t.Run("Should return noop for unchanged text without calling the repository", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		repo := new(mocks.MockTodoRepository)
		existing := mustTodo(t, "Buy milk", time.Now())
		repo.On("FetchActiveTodos", ctx, testOwner).Return([]*entities.Todo{existing}, nil)
		repo.On("FetchCompletedTodos", ctx, testOwner).Return([]*entities.Todo{}, nil)
		s := NewTodoStore(testOwner, repo, zap.NewNop())
		require.NoError(t, s.Load(ctx))

		// Act
		_, err := s.Edit(ctx, existing.ID(), "  Buy milk ")

		// Assert
		assert.True(t, pkgerrors.IsNoop(err))
		got, getErr := s.Get(existing.ID())
		require.NoError(t, getErr)
		assert.Empty(t, got.EditHistory())
		repo.AssertNotCalled(t, "UpdateTodoText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should reject empty text", func(t *testing.T) {
		ctx := context.Background()
		s := newMemoryStore(t)
		todo, err := s.Add(ctx, "A")
		require.NoError(t, err)

		_, err = s.Edit(ctx, todo.ID(), " ")
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("Should report unknown ids as not found", func(t *testing.T) {
		s := newMemoryStore(t)
		_, err := s.Edit(context.Background(), valueobjects.NewTodoID(), "x")
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("Should leave text and history unchanged when persistence fails", func(t *testing.T) {
		ctx := context.Background()
		repo := new(mocks.MockTodoRepository)
		existing := mustTodo(t, "A", time.Now())
		repo.On("FetchActiveTodos", ctx, testOwner).Return([]*entities.Todo{existing}, nil)
		repo.On("FetchCompletedTodos", ctx, testOwner).Return([]*entities.Todo{}, nil)
		repo.On("UpdateTodoText", ctx, testOwner, existing.ID(), mock.Anything).
			Return(entities.EditRecord{}, errors.New("timeout"))
		s := NewTodoStore(testOwner, repo, zap.NewNop())
		require.NoError(t, s.Load(ctx))

		_, err := s.Edit(ctx, existing.ID(), "B")

		assert.True(t, pkgerrors.IsPersistence(err))
		got, getErr := s.Get(existing.ID())
		require.NoError(t, getErr)
		assert.Equal(t, "A", got.Text().String())
		assert.Empty(t, got.EditHistory())
	})
}

func TestTodoStore_CompleteUncomplete(t *testing.T) {
	t.Run("Should restore the todo after a round trip", func(t *testing.T) {
		ctx := context.Background()
		s := newMemoryStore(t)
		todo, err := s.Add(ctx, "A")
		require.NoError(t, err)
		_, err = s.Edit(ctx, todo.ID(), "B")
		require.NoError(t, err)
		before, err := s.Get(todo.ID())
		require.NoError(t, err)

		done, err := s.Complete(ctx, todo.ID())
		require.NoError(t, err)
		assert.True(t, done.IsCompleted())
		assert.NotNil(t, done.CompletedAt())

		reopened, err := s.Uncomplete(ctx, todo.ID())
		require.NoError(t, err)

		assert.False(t, reopened.IsCompleted())
		assert.Nil(t, reopened.CompletedAt())
		assert.Equal(t, before.ID(), reopened.ID())
		assert.Equal(t, before.Text(), reopened.Text())
		assert.True(t, before.CreatedAt().Equal(reopened.CreatedAt()))
		assert.Equal(t, before.EditHistory(), reopened.EditHistory())
	})

	t.Run("Should put the latest completion first", func(t *testing.T) {
		ctx := context.Background()
		s := newMemoryStore(t)
		a, err := s.Add(ctx, "a")
		require.NoError(t, err)
		b, err := s.Add(ctx, "b")
		require.NoError(t, err)

		_, err = s.Complete(ctx, b.ID())
		require.NoError(t, err)
		_, err = s.Complete(ctx, a.ID())
		require.NoError(t, err)

		assert.Equal(t, []string{"a", "b"}, texts(s.Completed()))
	})

	t.Run("Should reinsert at the createdAt position", func(t *testing.T) {
		ctx := context.Background()
		s := newMemoryStore(t)
		_, err := s.Add(ctx, "oldest")
		require.NoError(t, err)
		middle, err := s.Add(ctx, "middle")
		require.NoError(t, err)
		_, err = s.Add(ctx, "newest")
		require.NoError(t, err)

		_, err = s.Complete(ctx, middle.ID())
		require.NoError(t, err)
		assert.Equal(t, []string{"newest", "oldest"}, texts(s.Active()))

		_, err = s.Uncomplete(ctx, middle.ID())
		require.NoError(t, err)
		assert.Equal(t, []string{"newest", "middle", "oldest"}, texts(s.Active()))
	})

	t.Run("Should only complete active todos", func(t *testing.T) {
		ctx := context.Background()
		s := newMemoryStore(t)
		todo, err := s.Add(ctx, "A")
		require.NoError(t, err)
		_, err = s.Complete(ctx, todo.ID())
		require.NoError(t, err)

		_, err = s.Complete(ctx, todo.ID())
		assert.True(t, pkgerrors.IsNotFound(err))

		_, err = s.Uncomplete(ctx, valueobjects.NewTodoID())
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestTodoStore_FailedMutationKeepsMemory(t *testing.T) {
	completedAt := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	newStore := func(t *testing.T, ctx context.Context, repo *mocks.MockTodoRepository, active, completed *entities.Todo) *TodoStore {
		t.Helper()
		repo.On("FetchActiveTodos", ctx, testOwner).Return([]*entities.Todo{active}, nil)
		repo.On("FetchCompletedTodos", ctx, testOwner).Return([]*entities.Todo{completed}, nil)
		s := NewTodoStore(testOwner, repo, zap.NewNop())
		require.NoError(t, s.Load(ctx))
		return s
	}

	completedTodo := func(t *testing.T) *entities.Todo {
		t.Helper()
		text, err := valueobjects.NewTodoText("done")
		require.NoError(t, err)
		todo, err := entities.ReconstructTodo(valueobjects.NewTodoID(), testOwner, text, true,
			completedAt.Add(-time.Hour), &completedAt, nil)
		require.NoError(t, err)
		return todo
	}

	t.Run("Should keep the todo active when completing fails", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		repo := new(mocks.MockTodoRepository)
		active := mustTodo(t, "open", completedAt.Add(-time.Hour))
		s := newStore(t, ctx, repo, active, completedTodo(t))
		repo.On("MarkAsCompleted", ctx, testOwner, active.ID()).Return(time.Time{}, errors.New("timeout")).Once()
		repo.On("MarkAsCompleted", ctx, testOwner, active.ID()).Return(completedAt, nil).Once()

		// Act
		_, err := s.Complete(ctx, active.ID())

		// Assert
		assert.True(t, pkgerrors.IsPersistence(err))
		assert.Equal(t, []string{"open"}, texts(s.Active()))
		assert.Equal(t, []string{"done"}, texts(s.Completed()))
		got, getErr := s.Get(active.ID())
		require.NoError(t, getErr)
		assert.False(t, got.IsCompleted())
		assert.Nil(t, got.CompletedAt())

		retried, err := s.Complete(ctx, active.ID())
		require.NoError(t, err)
		assert.True(t, retried.IsCompleted())
		repo.AssertExpectations(t)
	})

	t.Run("Should keep the todo completed when reopening fails", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		repo := new(mocks.MockTodoRepository)
		done := completedTodo(t)
		s := newStore(t, ctx, repo, mustTodo(t, "open", completedAt), done)
		repo.On("MarkAsUncompleted", ctx, testOwner, done.ID()).Return(errors.New("timeout")).Once()
		repo.On("MarkAsUncompleted", ctx, testOwner, done.ID()).Return(nil).Once()

		// Act
		_, err := s.Uncomplete(ctx, done.ID())

		// Assert
		assert.True(t, pkgerrors.IsPersistence(err))
		assert.Equal(t, []string{"open"}, texts(s.Active()))
		assert.Equal(t, []string{"done"}, texts(s.Completed()))
		got, getErr := s.Get(done.ID())
		require.NoError(t, getErr)
		assert.True(t, got.IsCompleted())
		require.NotNil(t, got.CompletedAt())
		assert.True(t, completedAt.Equal(*got.CompletedAt()))

		reopened, err := s.Uncomplete(ctx, done.ID())
		require.NoError(t, err)
		assert.False(t, reopened.IsCompleted())
		repo.AssertExpectations(t)
	})

	t.Run("Should keep the todo when deleting fails", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		repo := new(mocks.MockTodoRepository)
		active := mustTodo(t, "open", completedAt.Add(-time.Hour))
		done := completedTodo(t)
		s := newStore(t, ctx, repo, active, done)
		repo.On("DeleteTodo", ctx, testOwner, active.ID()).Return(errors.New("timeout")).Once()
		repo.On("DeleteTodo", ctx, testOwner, done.ID()).Return(errors.New("timeout")).Once()
		repo.On("DeleteTodo", ctx, testOwner, active.ID()).Return(nil).Once()

		// Act
		activeErr := s.Delete(ctx, active.ID())
		doneErr := s.Delete(ctx, done.ID())

		// Assert
		assert.True(t, pkgerrors.IsPersistence(activeErr))
		assert.True(t, pkgerrors.IsPersistence(doneErr))
		assert.Equal(t, []string{"open"}, texts(s.Active()))
		assert.Equal(t, []string{"done"}, texts(s.Completed()))
		got, getErr := s.Get(done.ID())
		require.NoError(t, getErr)
		assert.True(t, got.IsCompleted())

		require.NoError(t, s.Delete(ctx, active.ID()))
		assert.Empty(t, s.Active())
		repo.AssertExpectations(t)
	})
}

func TestTodoStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(t)
	active, err := s.Add(ctx, "active")
	require.NoError(t, err)
	done, err := s.Add(ctx, "done")
	require.NoError(t, err)
	_, err = s.Complete(ctx, done.ID())
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, active.ID()))
	require.NoError(t, s.Delete(ctx, done.ID()))

	assert.Empty(t, s.Active())
	assert.Empty(t, s.Completed())
	assert.True(t, pkgerrors.IsNotFound(s.Delete(ctx, active.ID())))
}

func TestTodoStore_BuyMilkScenario(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(t)

	todo, err := s.Add(ctx, "Buy milk")
	require.NoError(t, err)
	assert.Equal(t, []string{"Buy milk"}, texts(s.Active()))
	assert.Empty(t, s.Completed())

	_, err = s.Complete(ctx, todo.ID())
	require.NoError(t, err)
	assert.Empty(t, s.Active())
	require.Len(t, s.Completed(), 1)
	assert.NotNil(t, s.Completed()[0].CompletedAt())

	_, err = s.Uncomplete(ctx, todo.ID())
	require.NoError(t, err)
	edited, err := s.Edit(ctx, todo.ID(), "Buy milk and eggs")
	require.NoError(t, err)
	require.Len(t, edited.EditHistory(), 1)
	assert.Equal(t, "Buy milk", edited.EditHistory()[0].Text)

	require.NoError(t, s.Delete(ctx, todo.ID()))
	assert.Empty(t, s.Active())
	assert.Empty(t, s.Completed())
}

func TestTodoStore_InFlightGuard(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(mocks.MockTodoRepository)
	first := mustTodo(t, "first", time.Now().Add(-time.Minute))
	second := mustTodo(t, "second", time.Now())
	repo.On("FetchActiveTodos", ctx, testOwner).Return([]*entities.Todo{second, first}, nil)
	repo.On("FetchCompletedTodos", ctx, testOwner).Return([]*entities.Todo{}, nil)

	started := make(chan struct{})
	unblock := make(chan struct{})
	repo.On("MarkAsCompleted", ctx, testOwner, first.ID()).
		Run(func(mock.Arguments) {
			close(started)
			<-unblock
		}).
		Return(time.Now(), nil)
	repo.On("MarkAsCompleted", ctx, testOwner, second.ID()).Return(time.Now(), nil)

	s := NewTodoStore(testOwner, repo, zap.NewNop())
	require.NoError(t, s.Load(ctx))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.Complete(ctx, first.ID())
		assert.NoError(t, err)
	}()
	<-started

	// Act
	conflictErr := s.Delete(ctx, first.ID())
	_, otherErr := s.Complete(ctx, second.ID())

	close(unblock)
	wg.Wait()

	// Assert
	assert.True(t, pkgerrors.IsConflict(conflictErr))
	assert.NoError(t, otherErr)
	assert.Empty(t, s.Active())
	assert.Len(t, s.Completed(), 2)
	repo.AssertNotCalled(t, "DeleteTodo", mock.Anything, mock.Anything, mock.Anything)
}

func TestTodoStore_LoadWaitsForMutations(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(mocks.MockTodoRepository)
	fresh := mustTodo(t, "fresh", time.Now())

	started := make(chan struct{})
	unblock := make(chan struct{})
	repo.On("CreateTodo", ctx, testOwner, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-unblock
		}).
		Return(fresh, nil)
	repo.On("FetchActiveTodos", ctx, testOwner).Return([]*entities.Todo{fresh}, nil)
	repo.On("FetchCompletedTodos", ctx, testOwner).Return([]*entities.Todo{}, nil)
	s := NewTodoStore(testOwner, repo, zap.NewNop())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.Add(ctx, "fresh")
		assert.NoError(t, err)
	}()
	<-started

	// Act
	loaded := make(chan error, 1)
	go func() { loaded <- s.Load(ctx) }()

	// Assert
	assert.True(t, s.Busy())
	select {
	case <-loaded:
		t.Fatal("Load finished while an add was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(unblock)
	wg.Wait()
	require.NoError(t, <-loaded)
	assert.False(t, s.Busy())
	assert.Equal(t, []string{"fresh"}, texts(s.Active()))
}

func TestTodoStore_LoadFailureKeepsPartitions(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockTodoRepository)
	existing := mustTodo(t, "kept", time.Now())
	repo.On("FetchActiveTodos", ctx, testOwner).Return([]*entities.Todo{existing}, nil).Once()
	repo.On("FetchCompletedTodos", ctx, testOwner).Return([]*entities.Todo{}, nil).Once()
	repo.On("FetchActiveTodos", ctx, testOwner).Return(nil, errors.New("offline")).Once()

	s := NewTodoStore(testOwner, repo, zap.NewNop())
	require.NoError(t, s.Load(ctx))

	err := s.Load(ctx)

	assert.True(t, pkgerrors.IsPersistence(err))
	assert.Equal(t, []string{"kept"}, texts(s.Active()))
}

func TestTodoStore_ReadersGetClones(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(t)
	todo, err := s.Add(ctx, "A")
	require.NoError(t, err)

	snapshot := s.Active()
	_, err = s.Edit(ctx, todo.ID(), "B")
	require.NoError(t, err)

	assert.Equal(t, "A", snapshot[0].Text().String())
	assert.Empty(t, snapshot[0].EditHistory())
	assert.Equal(t, "B", s.Active()[0].Text().String())
}
