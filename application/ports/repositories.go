package ports

import (
	"context"
	"time"

	"todolist-backend/domain/core/entities"
	"todolist-backend/domain/core/valueobjects"
	"todolist-backend/domain/events"
)

// TodoReader reads single todos by id
type TodoReader interface {
	// GetTodo returns the stored row without its edit history
	GetTodo(ctx context.Context, owner string, id valueobjects.TodoID) (*entities.Todo, error)

	// GetTodoWithHistory returns the todo joined with its edit history, newest first
	GetTodoWithHistory(ctx context.Context, owner string, id valueobjects.TodoID) (*entities.Todo, error)
}

// TodoRepository defines the persistence port for todos and their edit history.
// Every method is scoped to one owner. Missing rows yield a NOT_FOUND error and
// backend failures a PERSISTENCE error.
type TodoRepository interface {
	TodoReader

	// CreateTodo stores a new active todo and returns it with its assigned id and createdAt
	CreateTodo(ctx context.Context, owner string, text valueobjects.TodoText) (*entities.Todo, error)

	// UpdateTodoText writes the previous text to the history and the new text to the
	// todo as one unit, returning the history record. Unchanged text yields NOOP.
	UpdateTodoText(ctx context.Context, owner string, id valueobjects.TodoID, text valueobjects.TodoText) (entities.EditRecord, error)

	// MarkAsCompleted sets completed and returns the completion time
	MarkAsCompleted(ctx context.Context, owner string, id valueobjects.TodoID) (time.Time, error)

	// MarkAsUncompleted clears completed and completedAt
	MarkAsUncompleted(ctx context.Context, owner string, id valueobjects.TodoID) error

	// DeleteTodo removes the todo and its edit history
	DeleteTodo(ctx context.Context, owner string, id valueobjects.TodoID) error

	// FetchActiveTodos returns active todos ordered by createdAt descending
	FetchActiveTodos(ctx context.Context, owner string) ([]*entities.Todo, error)

	// FetchCompletedTodos returns completed todos ordered by completedAt descending
	FetchCompletedTodos(ctx context.Context, owner string) ([]*entities.Todo, error)

	// FetchTodos returns every todo ordered by createdAt descending
	FetchTodos(ctx context.Context, owner string) ([]*entities.Todo, error)

	// FetchStats counts active and completed todos
	FetchStats(ctx context.Context, owner string) (entities.Stats, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Clock abstracts the time source so adapters and tests agree on "now"
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC
type SystemClock struct{}

// Now returns the current UTC time
func (SystemClock) Now() time.Time { return time.Now().UTC() }
