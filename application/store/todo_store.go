// Package store holds the per-session in-memory view of one owner's todos.
package store

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"todolist-backend/application/ports"
	"todolist-backend/domain/config"
	"todolist-backend/domain/core/entities"
	"todolist-backend/domain/core/valueobjects"
	pkgerrors "todolist-backend/pkg/errors"
)

// Option configures a TodoStore
type Option func(*TodoStore)

// WithDomainConfig overrides the text limits
func WithDomainConfig(cfg *config.DomainConfig) Option {
	return func(s *TodoStore) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// TodoStore owns the active and completed partitions of one owner's todos.
// Every mutation calls the repository first and changes memory only after it
// succeeds. Readers always receive clones.
//
// Active is ordered by createdAt descending, completed by completedAt descending.
type TodoStore struct {
	owner  string
	repo   ports.TodoRepository
	logger *zap.Logger
	cfg    *config.DomainConfig

	// gate is held shared by every mutation and exclusively by Load, so a
	// reload never swaps partitions under a mutation that has not applied yet
	gate     sync.RWMutex
	inflight atomic.Int32

	mu        sync.RWMutex
	active    []*entities.Todo
	completed []*entities.Todo
	pending   map[string]struct{} // ids with a repository call in flight
}

// NewTodoStore creates an empty store for owner. Call Load to populate it.
func NewTodoStore(owner string, repo ports.TodoRepository, logger *zap.Logger, opts ...Option) *TodoStore {
	s := &TodoStore{
		owner:     owner,
		repo:      repo,
		logger:    logger.With(zap.String("owner", owner)),
		cfg:       config.DefaultDomainConfig(),
		active:    []*entities.Todo{},
		completed: []*entities.Todo{},
		pending:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Owner returns the owner this store belongs to
func (s *TodoStore) Owner() string {
	return s.owner
}

// Busy reports whether a mutation is in flight
func (s *TodoStore) Busy() bool {
	return s.inflight.Load() > 0
}

// begin registers a mutation; the returned func ends it
func (s *TodoStore) begin() func() {
	s.gate.RLock()
	s.inflight.Add(1)
	return func() {
		s.inflight.Add(-1)
		s.gate.RUnlock()
	}
}

// Load replaces both partitions from the repository. It waits for in-flight
// mutations to finish and holds new ones back until the swap is done. On
// failure the current partitions are kept.
func (s *TodoStore) Load(ctx context.Context) error {
	s.gate.Lock()
	defer s.gate.Unlock()

	active, err := s.repo.FetchActiveTodos(ctx, s.owner)
	if err != nil {
		s.logger.Warn("Failed to load active todos", zap.Error(err))
		return pkgerrors.AsPersistence("fetch active todos", err)
	}
	completed, err := s.repo.FetchCompletedTodos(ctx, s.owner)
	if err != nil {
		s.logger.Warn("Failed to load completed todos", zap.Error(err))
		return pkgerrors.AsPersistence("fetch completed todos", err)
	}

	entities.SortByCreatedDesc(active)
	entities.SortByCompletedDesc(completed)

	s.mu.Lock()
	s.active = active
	s.completed = completed
	s.mu.Unlock()

	s.logger.Debug("Loaded todos",
		zap.Int("active", len(active)),
		zap.Int("completed", len(completed)),
	)
	return nil
}

// Add creates a todo and places it at the head of the active partition
func (s *TodoStore) Add(ctx context.Context, raw string) (*entities.Todo, error) {
	defer s.begin()()

	text, err := valueobjects.NewTodoTextWithConfig(raw, s.cfg)
	if err != nil {
		return nil, err
	}

	todo, err := s.repo.CreateTodo(ctx, s.owner, text)
	if err != nil {
		s.logger.Error("Failed to create todo", zap.Error(err))
		return nil, pkgerrors.AsPersistence("create todo", err)
	}

	s.mu.Lock()
	s.active = prepend(s.active, todo.Clone())
	s.mu.Unlock()

	s.logger.Debug("Added todo", zap.String("todoID", todo.ID().String()))
	return todo.Clone(), nil
}

// Edit replaces the text of a todo in either partition and records the
// previous text at the head of its history. Unchanged text yields a NOOP
// error without touching the repository.
func (s *TodoStore) Edit(ctx context.Context, id valueobjects.TodoID, raw string) (*entities.Todo, error) {
	defer s.begin()()

	text, err := valueobjects.NewTodoTextWithConfig(raw, s.cfg)
	if err != nil {
		return nil, err
	}

	current, err := s.acquire(id, func() (*entities.Todo, error) {
		todo, _, _ := s.locate(id)
		if todo == nil {
			return nil, pkgerrors.NewNotFoundError("todo")
		}
		if todo.Text().Equals(text) {
			return nil, pkgerrors.NewNoopError("text unchanged")
		}
		return todo, nil
	})
	if err != nil {
		return nil, err
	}
	defer s.release(id)

	record, err := s.repo.UpdateTodoText(ctx, s.owner, id, text)
	if err != nil {
		if !pkgerrors.IsNoop(err) {
			s.logger.Error("Failed to update todo text",
				zap.String("todoID", id.String()),
				zap.Error(err),
			)
		}
		return nil, pkgerrors.AsPersistence("update todo text", err)
	}

	edited := current.Clone()
	edited.ApplyEdit(record, text)

	s.mu.Lock()
	s.replace(edited)
	s.mu.Unlock()

	return edited.Clone(), nil
}

// Complete moves an active todo to the head of the completed partition
func (s *TodoStore) Complete(ctx context.Context, id valueobjects.TodoID) (*entities.Todo, error) {
	defer s.begin()()

	current, err := s.acquire(id, func() (*entities.Todo, error) {
		todo, completed, _ := s.locate(id)
		if todo == nil || completed {
			return nil, pkgerrors.NewNotFoundError("active todo")
		}
		return todo, nil
	})
	if err != nil {
		return nil, err
	}
	defer s.release(id)

	completedAt, err := s.repo.MarkAsCompleted(ctx, s.owner, id)
	if err != nil {
		s.logger.Error("Failed to complete todo", zap.String("todoID", id.String()), zap.Error(err))
		return nil, pkgerrors.AsPersistence("mark completed", err)
	}

	done := current.Clone()
	done.MarkCompleted(completedAt)

	s.mu.Lock()
	s.active = removeByID(s.active, id)
	s.completed = prepend(s.completed, done)
	s.mu.Unlock()

	return done.Clone(), nil
}

// Uncomplete returns a completed todo to the active partition at the slot its
// createdAt dictates
func (s *TodoStore) Uncomplete(ctx context.Context, id valueobjects.TodoID) (*entities.Todo, error) {
	defer s.begin()()

	current, err := s.acquire(id, func() (*entities.Todo, error) {
		todo, completed, _ := s.locate(id)
		if todo == nil || !completed {
			return nil, pkgerrors.NewNotFoundError("completed todo")
		}
		return todo, nil
	})
	if err != nil {
		return nil, err
	}
	defer s.release(id)

	if err := s.repo.MarkAsUncompleted(ctx, s.owner, id); err != nil {
		s.logger.Error("Failed to reopen todo", zap.String("todoID", id.String()), zap.Error(err))
		return nil, pkgerrors.AsPersistence("mark uncompleted", err)
	}

	reopened := current.Clone()
	reopened.MarkActive()

	s.mu.Lock()
	s.completed = removeByID(s.completed, id)
	s.active = insertAt(s.active, entities.CreatedPosition(s.active, reopened), reopened)
	s.mu.Unlock()

	return reopened.Clone(), nil
}

// Delete removes a todo from whichever partition holds it
func (s *TodoStore) Delete(ctx context.Context, id valueobjects.TodoID) error {
	defer s.begin()()

	_, err := s.acquire(id, func() (*entities.Todo, error) {
		todo, _, _ := s.locate(id)
		if todo == nil {
			return nil, pkgerrors.NewNotFoundError("todo")
		}
		return todo, nil
	})
	if err != nil {
		return err
	}
	defer s.release(id)

	if err := s.repo.DeleteTodo(ctx, s.owner, id); err != nil {
		s.logger.Error("Failed to delete todo", zap.String("todoID", id.String()), zap.Error(err))
		return pkgerrors.AsPersistence("delete todo", err)
	}

	s.mu.Lock()
	s.active = removeByID(s.active, id)
	s.completed = removeByID(s.completed, id)
	s.mu.Unlock()

	return nil
}

// Active returns clones of the active todos, newest first
func (s *TodoStore) Active() []*entities.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.active)
}

// Completed returns clones of the completed todos, most recently completed first
func (s *TodoStore) Completed() []*entities.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.completed)
}

// All returns every todo ordered by createdAt descending
func (s *TodoStore) All() []*entities.Todo {
	s.mu.RLock()
	all := make([]*entities.Todo, 0, len(s.active)+len(s.completed))
	all = append(all, cloneAll(s.active)...)
	all = append(all, cloneAll(s.completed)...)
	s.mu.RUnlock()

	entities.SortByCreatedDesc(all)
	return all
}

// Get returns a clone of the todo with the given id from either partition
func (s *TodoStore) Get(id valueobjects.TodoID) (*entities.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todo, _, _ := s.locate(id)
	if todo == nil {
		return nil, pkgerrors.NewNotFoundError("todo")
	}
	return todo.Clone(), nil
}

// Stats counts the in-memory partitions
func (s *TodoStore) Stats() entities.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entities.Stats{ActiveCount: len(s.active), CompletedCount: len(s.completed)}
}

// acquire runs check under the write lock and, if it passes, marks id as
// having a repository call in flight. A second mutation on the same id fails
// with CONFLICT until release is called.
func (s *TodoStore) acquire(id valueobjects.TodoID, check func() (*entities.Todo, error)) (*entities.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.pending[id.String()]; busy {
		return nil, pkgerrors.NewConflictError("operation already in progress").
			WithDetails(map[string]interface{}{"todoID": id.String()})
	}

	todo, err := check()
	if err != nil {
		return nil, err
	}

	s.pending[id.String()] = struct{}{}
	return todo, nil
}

func (s *TodoStore) release(id valueobjects.TodoID) {
	s.mu.Lock()
	delete(s.pending, id.String())
	s.mu.Unlock()
}

// locate must be called with the lock held
func (s *TodoStore) locate(id valueobjects.TodoID) (todo *entities.Todo, completed bool, index int) {
	for i, t := range s.active {
		if t.ID().Equals(id) {
			return t, false, i
		}
	}
	for i, t := range s.completed {
		if t.ID().Equals(id) {
			return t, true, i
		}
	}
	return nil, false, -1
}

// replace swaps the stored todo with the same id; lock must be held
func (s *TodoStore) replace(todo *entities.Todo) {
	_, completed, i := s.locate(todo.ID())
	if i < 0 {
		return
	}
	if completed {
		s.completed = replaceAt(s.completed, i, todo)
	} else {
		s.active = replaceAt(s.active, i, todo)
	}
}
