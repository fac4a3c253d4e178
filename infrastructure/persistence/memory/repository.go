// Package memory is an in-process TodoRepository for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"todolist-backend/application/ports"
	"todolist-backend/domain/core/entities"
	"todolist-backend/domain/core/valueobjects"
	"todolist-backend/infrastructure/persistence/abstractions"
	pkgerrors "todolist-backend/pkg/errors"
)

// Repository keeps todos and history rows in maps guarded by one mutex
type Repository struct {
	mu      sync.RWMutex
	clock   ports.Clock
	todos   map[string]abstractions.TodoRow      // todo id -> row
	history map[string][]abstractions.HistoryRow // todo id -> history rows
}

// NewRepository creates an empty repository
func NewRepository(clock ports.Clock) *Repository {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Repository{
		clock:   clock,
		todos:   make(map[string]abstractions.TodoRow),
		history: make(map[string][]abstractions.HistoryRow),
	}
}

var _ ports.TodoRepository = (*Repository)(nil)

// row must be called with the lock held
func (r *Repository) row(owner string, id valueobjects.TodoID) (abstractions.TodoRow, error) {
	row, ok := r.todos[id.String()]
	if !ok || row.Owner != owner {
		return abstractions.TodoRow{}, pkgerrors.NewNotFoundError("todo")
	}
	return row, nil
}

func (r *Repository) GetTodo(ctx context.Context, owner string, id valueobjects.TodoID) (*entities.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, err := r.row(owner, id)
	if err != nil {
		return nil, err
	}
	return row.ToEntity(nil)
}

func (r *Repository) GetTodoWithHistory(ctx context.Context, owner string, id valueobjects.TodoID) (*entities.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, err := r.row(owner, id)
	if err != nil {
		return nil, err
	}
	todos, err := abstractions.AttachHistory([]abstractions.TodoRow{row}, r.history[row.ID])
	if err != nil {
		return nil, err
	}
	return todos[0], nil
}

func (r *Repository) CreateTodo(ctx context.Context, owner string, text valueobjects.TodoText) (*entities.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewPersistenceError("create todo", err)
	}

	row := abstractions.TodoRow{
		ID:        valueobjects.NewTodoID().String(),
		Owner:     owner,
		Text:      text.String(),
		CreatedAt: r.clock.Now(),
	}

	r.mu.Lock()
	r.todos[row.ID] = row
	r.mu.Unlock()

	return row.ToEntity(nil)
}

func (r *Repository) UpdateTodoText(ctx context.Context, owner string, id valueobjects.TodoID, text valueobjects.TodoText) (entities.EditRecord, error) {
	if err := ctx.Err(); err != nil {
		return entities.EditRecord{}, pkgerrors.NewPersistenceError("update todo text", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	row, err := r.row(owner, id)
	if err != nil {
		return entities.EditRecord{}, err
	}
	if row.Text == text.String() {
		return entities.EditRecord{}, pkgerrors.NewNoopError("text unchanged")
	}

	entry := abstractions.HistoryRow{
		ID:       uuid.New().String(),
		TodoID:   row.ID,
		Text:     row.Text,
		EditedAt: r.clock.Now(),
	}
	r.history[row.ID] = append(r.history[row.ID], entry)
	row.Text = text.String()
	r.todos[row.ID] = row

	return entry.Record(), nil
}

func (r *Repository) MarkAsCompleted(ctx context.Context, owner string, id valueobjects.TodoID) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, pkgerrors.NewPersistenceError("mark completed", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	row, err := r.row(owner, id)
	if err != nil {
		return time.Time{}, err
	}
	now := r.clock.Now()
	row.Completed = true
	row.CompletedAt = &now
	r.todos[row.ID] = row

	return now, nil
}

func (r *Repository) MarkAsUncompleted(ctx context.Context, owner string, id valueobjects.TodoID) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.NewPersistenceError("mark uncompleted", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	row, err := r.row(owner, id)
	if err != nil {
		return err
	}
	row.Completed = false
	row.CompletedAt = nil
	r.todos[row.ID] = row

	return nil
}

func (r *Repository) DeleteTodo(ctx context.Context, owner string, id valueobjects.TodoID) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.NewPersistenceError("delete todo", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	row, err := r.row(owner, id)
	if err != nil {
		return err
	}
	delete(r.todos, row.ID)
	delete(r.history, row.ID)

	return nil
}

func (r *Repository) fetch(owner string, partition abstractions.Partition) ([]*entities.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []abstractions.TodoRow
	var history []abstractions.HistoryRow
	for _, row := range r.todos {
		if row.Owner != owner || !partition.Matches(row.Completed) {
			continue
		}
		rows = append(rows, row)
		history = append(history, r.history[row.ID]...)
	}

	todos, err := abstractions.AttachHistory(rows, history)
	if err != nil {
		return nil, err
	}
	partition.Order(todos)
	return todos, nil
}

func (r *Repository) FetchActiveTodos(ctx context.Context, owner string) ([]*entities.Todo, error) {
	return r.fetch(owner, abstractions.PartitionActive)
}

func (r *Repository) FetchCompletedTodos(ctx context.Context, owner string) ([]*entities.Todo, error) {
	return r.fetch(owner, abstractions.PartitionCompleted)
}

func (r *Repository) FetchTodos(ctx context.Context, owner string) ([]*entities.Todo, error) {
	return r.fetch(owner, abstractions.PartitionAll)
}

func (r *Repository) FetchStats(ctx context.Context, owner string) (entities.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []abstractions.TodoRow
	for _, row := range r.todos {
		if row.Owner == owner {
			rows = append(rows, row)
		}
	}
	return abstractions.CountStats(rows), nil
}
