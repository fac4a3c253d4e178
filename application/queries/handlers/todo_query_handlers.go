package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"todolist-backend/application/ports"
	"todolist-backend/application/queries"
	"todolist-backend/application/queries/bus"
	"todolist-backend/application/store"
	"todolist-backend/domain/core/entities"
	"todolist-backend/domain/core/valueobjects"
	pkgerrors "todolist-backend/pkg/errors"
)

// ListTodosHandler serves ListTodosQuery from the owner's session store
type ListTodosHandler struct {
	sessions *store.SessionRegistry
}

// NewListTodosHandler creates a new list handler
func NewListTodosHandler(sessions *store.SessionRegistry) *ListTodosHandler {
	return &ListTodosHandler{sessions: sessions}
}

// Handle returns []*entities.Todo
func (h *ListTodosHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.ListTodosQuery)
	if !ok {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("unexpected query type %T", q))
	}

	s, err := h.sessions.Get(ctx, query.Owner)
	if err != nil {
		return nil, err
	}

	switch query.Status {
	case queries.StatusCompleted:
		return s.Completed(), nil
	case queries.StatusAll:
		return s.All(), nil
	default:
		return s.Active(), nil
	}
}

// GetTodoHandler serves GetTodoQuery
type GetTodoHandler struct {
	sessions *store.SessionRegistry
	reader   ports.TodoReader
	logger   *zap.Logger
}

// NewGetTodoHandler creates a new get handler
func NewGetTodoHandler(sessions *store.SessionRegistry, reader ports.TodoReader, logger *zap.Logger) *GetTodoHandler {
	return &GetTodoHandler{sessions: sessions, reader: reader, logger: logger}
}

// Handle returns *entities.Todo with history. The session store answers
// first; the backing store's history view is consulted when the session does
// not hold the id, e.g. after another client created it.
func (h *GetTodoHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetTodoQuery)
	if !ok {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("unexpected query type %T", q))
	}
	id, err := valueobjects.NewTodoIDFromString(query.TodoID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	s, err := h.sessions.Get(ctx, query.Owner)
	if err != nil {
		return nil, err
	}
	if todo, err := s.Get(id); err == nil {
		return todo, nil
	}

	todo, err := h.reader.GetTodoWithHistory(ctx, query.Owner, id)
	if err != nil {
		return nil, pkgerrors.AsPersistence("get todo with history", err)
	}
	h.logger.Debug("Todo served from backing store",
		zap.String("owner", query.Owner),
		zap.String("todoID", id.String()),
	)
	return todo, nil
}

// GetStatsHandler serves GetStatsQuery from the backing store
type GetStatsHandler struct {
	repo ports.TodoRepository
}

// NewGetStatsHandler creates a new stats handler
func NewGetStatsHandler(repo ports.TodoRepository) *GetStatsHandler {
	return &GetStatsHandler{repo: repo}
}

// Handle returns entities.Stats
func (h *GetStatsHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetStatsQuery)
	if !ok {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("unexpected query type %T", q))
	}

	stats, err := h.repo.FetchStats(ctx, query.Owner)
	if err != nil {
		return entities.Stats{}, pkgerrors.AsPersistence("fetch stats", err)
	}
	return stats, nil
}

// Register wires every todo query handler into the bus
func Register(b *bus.QueryBus, sessions *store.SessionRegistry, repo ports.TodoRepository, logger *zap.Logger) error {
	if err := b.Register(queries.ListTodosQuery{}, NewListTodosHandler(sessions)); err != nil {
		return err
	}
	if err := b.Register(queries.GetTodoQuery{}, NewGetTodoHandler(sessions, repo, logger)); err != nil {
		return err
	}
	return b.Register(queries.GetStatsQuery{}, NewGetStatsHandler(repo))
}
