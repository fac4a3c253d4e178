// Package mocks provides testify mocks for the application ports.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"todolist-backend/domain/core/entities"
	"todolist-backend/domain/core/valueobjects"
	"todolist-backend/domain/events"
)

// MockTodoRepository is a testify mock of ports.TodoRepository
type MockTodoRepository struct {
	mock.Mock
}

func todoOrNil(v interface{}) *entities.Todo {
	if v == nil {
		return nil
	}
	return v.(*entities.Todo)
}

func todosOrNil(v interface{}) []*entities.Todo {
	if v == nil {
		return nil
	}
	return v.([]*entities.Todo)
}

func (m *MockTodoRepository) GetTodo(ctx context.Context, owner string, id valueobjects.TodoID) (*entities.Todo, error) {
	args := m.Called(ctx, owner, id)
	return todoOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTodoRepository) GetTodoWithHistory(ctx context.Context, owner string, id valueobjects.TodoID) (*entities.Todo, error) {
	args := m.Called(ctx, owner, id)
	return todoOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTodoRepository) CreateTodo(ctx context.Context, owner string, text valueobjects.TodoText) (*entities.Todo, error) {
	args := m.Called(ctx, owner, text)
	return todoOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTodoRepository) UpdateTodoText(ctx context.Context, owner string, id valueobjects.TodoID, text valueobjects.TodoText) (entities.EditRecord, error) {
	args := m.Called(ctx, owner, id, text)
	record, _ := args.Get(0).(entities.EditRecord)
	return record, args.Error(1)
}

func (m *MockTodoRepository) MarkAsCompleted(ctx context.Context, owner string, id valueobjects.TodoID) (time.Time, error) {
	args := m.Called(ctx, owner, id)
	at, _ := args.Get(0).(time.Time)
	return at, args.Error(1)
}

func (m *MockTodoRepository) MarkAsUncompleted(ctx context.Context, owner string, id valueobjects.TodoID) error {
	args := m.Called(ctx, owner, id)
	return args.Error(0)
}

func (m *MockTodoRepository) DeleteTodo(ctx context.Context, owner string, id valueobjects.TodoID) error {
	args := m.Called(ctx, owner, id)
	return args.Error(0)
}

func (m *MockTodoRepository) FetchActiveTodos(ctx context.Context, owner string) ([]*entities.Todo, error) {
	args := m.Called(ctx, owner)
	return todosOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTodoRepository) FetchCompletedTodos(ctx context.Context, owner string) ([]*entities.Todo, error) {
	args := m.Called(ctx, owner)
	return todosOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTodoRepository) FetchTodos(ctx context.Context, owner string) ([]*entities.Todo, error) {
	args := m.Called(ctx, owner)
	return todosOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTodoRepository) FetchStats(ctx context.Context, owner string) (entities.Stats, error) {
	args := m.Called(ctx, owner)
	stats, _ := args.Get(0).(entities.Stats)
	return stats, args.Error(1)
}

// MockEventPublisher is a testify mock of ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}
