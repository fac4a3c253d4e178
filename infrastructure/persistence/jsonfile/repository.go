// Package jsonfile stores todos in a single human-readable JSON document.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"todolist-backend/application/ports"
	"todolist-backend/domain/core/entities"
	"todolist-backend/domain/core/valueobjects"
	"todolist-backend/infrastructure/persistence/abstractions"
	pkgerrors "todolist-backend/pkg/errors"
)

// document is the on-disk layout
type document struct {
	Todos       []abstractions.TodoRow    `json:"todos"`
	EditHistory []abstractions.HistoryRow `json:"edit_history"`
}

func (d document) clone() document {
	return document{
		Todos:       slices.Clone(d.Todos),
		EditHistory: slices.Clone(d.EditHistory),
	}
}

func (d document) find(owner, id string) (int, bool) {
	for i, row := range d.Todos {
		if row.ID == id && row.Owner == owner {
			return i, true
		}
	}
	return -1, false
}

// Repository keeps the document in memory and rewrites the file after every
// mutation. A failed write leaves both the file and memory unchanged.
type Repository struct {
	mu     sync.RWMutex
	path   string
	doc    document
	clock  ports.Clock
	logger *zap.Logger
}

var _ ports.TodoRepository = (*Repository)(nil)

// Open reads path, treating a missing file as an empty store
func Open(path string, clock ports.Clock, logger *zap.Logger) (*Repository, error) {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	r := &Repository{path: path, clock: clock, logger: logger}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return r, nil
	case err != nil:
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &r.doc); err != nil {
			return nil, fmt.Errorf("json unmarshal: %w", err)
		}
	}
	logger.Info("JSON store opened", zap.String("path", path), zap.Int("todos", len(r.doc.Todos)))
	return r, nil
}

// save writes doc to a temp file in the same directory and renames it over the target
func (r *Repository) save(doc document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".todos-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}

// mutate applies fn to a copy of the document and commits it only when both
// fn and the file write succeed
func (r *Repository) mutate(ctx context.Context, op string, fn func(doc *document) error) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.NewPersistenceError(op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.doc.clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := r.save(next); err != nil {
		r.logger.Error("JSON store write failed", zap.String("operation", op), zap.Error(err))
		return pkgerrors.NewPersistenceError(op, err)
	}
	r.doc = next
	return nil
}

func (r *Repository) GetTodo(ctx context.Context, owner string, id valueobjects.TodoID) (*entities.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.doc.find(owner, id.String())
	if !ok {
		return nil, pkgerrors.NewNotFoundError("todo")
	}
	return r.doc.Todos[i].ToEntity(nil)
}

func (r *Repository) GetTodoWithHistory(ctx context.Context, owner string, id valueobjects.TodoID) (*entities.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.doc.find(owner, id.String())
	if !ok {
		return nil, pkgerrors.NewNotFoundError("todo")
	}
	todos, err := abstractions.AttachHistory(r.doc.Todos[i:i+1], r.doc.EditHistory)
	if err != nil {
		return nil, err
	}
	return todos[0], nil
}

func (r *Repository) CreateTodo(ctx context.Context, owner string, text valueobjects.TodoText) (*entities.Todo, error) {
	row := abstractions.TodoRow{
		ID:        valueobjects.NewTodoID().String(),
		Owner:     owner,
		Text:      text.String(),
		CreatedAt: r.clock.Now().UTC(),
	}
	err := r.mutate(ctx, "create todo", func(doc *document) error {
		doc.Todos = append(doc.Todos, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row.ToEntity(nil)
}

func (r *Repository) UpdateTodoText(ctx context.Context, owner string, id valueobjects.TodoID, text valueobjects.TodoText) (entities.EditRecord, error) {
	var entry abstractions.HistoryRow
	err := r.mutate(ctx, "update todo text", func(doc *document) error {
		i, ok := doc.find(owner, id.String())
		if !ok {
			return pkgerrors.NewNotFoundError("todo")
		}
		if doc.Todos[i].Text == text.String() {
			return pkgerrors.NewNoopError("text unchanged")
		}
		entry = abstractions.HistoryRow{
			ID:       uuid.New().String(),
			TodoID:   doc.Todos[i].ID,
			Text:     doc.Todos[i].Text,
			EditedAt: r.clock.Now().UTC(),
		}
		doc.EditHistory = append(doc.EditHistory, entry)
		doc.Todos[i].Text = text.String()
		return nil
	})
	if err != nil {
		return entities.EditRecord{}, err
	}
	return entry.Record(), nil
}

func (r *Repository) MarkAsCompleted(ctx context.Context, owner string, id valueobjects.TodoID) (time.Time, error) {
	var at time.Time
	err := r.mutate(ctx, "mark completed", func(doc *document) error {
		i, ok := doc.find(owner, id.String())
		if !ok {
			return pkgerrors.NewNotFoundError("todo")
		}
		at = r.clock.Now().UTC()
		doc.Todos[i].Completed = true
		doc.Todos[i].CompletedAt = &at
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return at, nil
}

func (r *Repository) MarkAsUncompleted(ctx context.Context, owner string, id valueobjects.TodoID) error {
	return r.mutate(ctx, "mark uncompleted", func(doc *document) error {
		i, ok := doc.find(owner, id.String())
		if !ok {
			return pkgerrors.NewNotFoundError("todo")
		}
		doc.Todos[i].Completed = false
		doc.Todos[i].CompletedAt = nil
		return nil
	})
}

func (r *Repository) DeleteTodo(ctx context.Context, owner string, id valueobjects.TodoID) error {
	return r.mutate(ctx, "delete todo", func(doc *document) error {
		i, ok := doc.find(owner, id.String())
		if !ok {
			return pkgerrors.NewNotFoundError("todo")
		}
		doc.Todos = slices.Delete(doc.Todos, i, i+1)
		doc.EditHistory = slices.DeleteFunc(doc.EditHistory, func(h abstractions.HistoryRow) bool {
			return h.TodoID == id.String()
		})
		return nil
	})
}

func (r *Repository) fetch(owner string, partition abstractions.Partition) ([]*entities.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []abstractions.TodoRow
	for _, row := range r.doc.Todos {
		if row.Owner == owner && partition.Matches(row.Completed) {
			rows = append(rows, row)
		}
	}
	todos, err := abstractions.AttachHistory(rows, r.doc.EditHistory)
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
	for _, row := range r.doc.Todos {
		if row.Owner == owner {
			rows = append(rows, row)
		}
	}
	return abstractions.CountStats(rows), nil
}
