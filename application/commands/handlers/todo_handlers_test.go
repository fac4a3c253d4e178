package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todolist-backend/application/commands"
	"todolist-backend/application/commands/bus"
	"todolist-backend/application/ports/mocks"
	"todolist-backend/application/store"
	"todolist-backend/domain/core/entities"
	"todolist-backend/infrastructure/persistence/memory"
	"todolist-backend/infrastructure/persistence/repotest"
	pkgerrors "todolist-backend/pkg/errors"
)

type countingMetrics struct {
	events []string
}

func (m *countingMetrics) RecordTodoEvent(eventType string) {
	m.events = append(m.events, eventType)
}

type fixture struct {
	bus       *bus.CommandBus
	publisher *mocks.MockEventPublisher
	metrics   *countingMetrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	logger := zap.NewNop()
	publisher := new(mocks.MockEventPublisher)
	metrics := &countingMetrics{}
	sessions := store.NewSessionRegistry(memory.NewRepository(repotest.NewStepClock()), logger, time.Minute)

	b := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	require.NoError(t, Register(b, Deps{
		Sessions:  sessions,
		Publisher: publisher,
		Metrics:   metrics,
		Logger:    logger,
	}))
	return fixture{bus: b, publisher: publisher, metrics: metrics}
}

func (f fixture) add(t *testing.T, text string) *entities.Todo {
	t.Helper()
	result, err := f.bus.Send(context.Background(), commands.AddTodoCommand{Owner: "user-1", Text: text})
	require.NoError(t, err)
	return result.(*entities.Todo)
}

func TestAddTodoHandler(t *testing.T) {
	t.Run("Should create the todo and publish an event", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.publisher.On("Publish", mock.Anything, mock.AnythingOfType("events.TodoCreated")).Return(nil)

		// Act
		todo := f.add(t, "Buy milk")

		// Assert
		assert.Equal(t, "Buy milk", todo.Text().String())
		assert.Equal(t, []string{"todo.created"}, f.metrics.events)
		f.publisher.AssertExpectations(t)
	})

	t.Run("Should not fail when publishing fails", func(t *testing.T) {
		f := newFixture(t)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("bus down"))

		todo := f.add(t, "Buy milk")

		assert.NotNil(t, todo)
	})

	t.Run("Should reject empty text", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.bus.Send(context.Background(), commands.AddTodoCommand{Owner: "user-1", Text: ""})

		assert.True(t, pkgerrors.IsValidation(err))
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestEditTodoHandler(t *testing.T) {
	t.Run("Should report a changed edit", func(t *testing.T) {
		f := newFixture(t)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
		todo := f.add(t, "A")

		result, err := f.bus.Send(context.Background(), commands.EditTodoCommand{
			Owner: "user-1", TodoID: todo.ID().String(), Text: "B",
		})

		require.NoError(t, err)
		edit := result.(EditResult)
		assert.True(t, edit.Changed)
		assert.Equal(t, "B", edit.Todo.Text().String())
		require.Len(t, edit.Todo.EditHistory(), 1)
		f.publisher.AssertCalled(t, "Publish", mock.Anything, mock.AnythingOfType("events.TodoTextEdited"))
	})

	t.Run("Should return unchanged for identical text", func(t *testing.T) {
		f := newFixture(t)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
		todo := f.add(t, "A")

		result, err := f.bus.Send(context.Background(), commands.EditTodoCommand{
			Owner: "user-1", TodoID: todo.ID().String(), Text: "A",
		})

		require.NoError(t, err)
		edit := result.(EditResult)
		assert.False(t, edit.Changed)
		assert.Empty(t, edit.Todo.EditHistory())
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.AnythingOfType("events.TodoTextEdited"))
	})

	t.Run("Should reject malformed ids", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.bus.Send(context.Background(), commands.EditTodoCommand{
			Owner: "user-1", TodoID: "42", Text: "B",
		})

		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestLifecycleHandlers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	todo := f.add(t, "Buy milk")
	id := todo.ID().String()

	result, err := f.bus.Send(ctx, commands.CompleteTodoCommand{Owner: "user-1", TodoID: id})
	require.NoError(t, err)
	assert.True(t, result.(*entities.Todo).IsCompleted())

	_, err = f.bus.Send(ctx, commands.CompleteTodoCommand{Owner: "user-1", TodoID: id})
	assert.True(t, pkgerrors.IsNotFound(err))

	result, err = f.bus.Send(ctx, commands.UncompleteTodoCommand{Owner: "user-1", TodoID: id})
	require.NoError(t, err)
	assert.False(t, result.(*entities.Todo).IsCompleted())

	_, err = f.bus.Send(ctx, commands.DeleteTodoCommand{Owner: "user-1", TodoID: id})
	require.NoError(t, err)

	result, err = f.bus.Send(ctx, commands.RefreshSessionCommand{Owner: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.(entities.Stats).Total())

	assert.Equal(t, []string{"todo.created", "todo.completed", "todo.reopened", "todo.deleted"}, f.metrics.events)
}
