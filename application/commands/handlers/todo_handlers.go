package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"todolist-backend/application/commands"
	"todolist-backend/application/commands/bus"
	"todolist-backend/domain/events"
	pkgerrors "todolist-backend/pkg/errors"
)

func unexpected(cmd bus.Command) error {
	return pkgerrors.NewInternalError(fmt.Sprintf("unexpected command type %T", cmd))
}

// AddTodoHandler handles AddTodoCommand
type AddTodoHandler struct{ base }

// NewAddTodoHandler creates a new add todo handler
func NewAddTodoHandler(deps Deps) *AddTodoHandler {
	return &AddTodoHandler{base{deps}}
}

// Handle creates the todo and returns it
func (h *AddTodoHandler) Handle(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.AddTodoCommand)
	if !ok {
		return nil, unexpected(c)
	}

	s, err := h.Sessions.Get(ctx, cmd.Owner)
	if err != nil {
		return nil, err
	}

	todo, err := s.Add(ctx, cmd.Text)
	if err != nil {
		return nil, err
	}

	h.publish(ctx, events.NewTodoCreated(cmd.Owner, todo.ID(), todo.Text().String(), todo.CreatedAt()))
	h.Logger.Info("Todo created",
		zap.String("owner", cmd.Owner),
		zap.String("todoID", todo.ID().String()),
	)
	return todo, nil
}

// EditTodoHandler handles EditTodoCommand
type EditTodoHandler struct{ base }

// NewEditTodoHandler creates a new edit todo handler
func NewEditTodoHandler(deps Deps) *EditTodoHandler {
	return &EditTodoHandler{base{deps}}
}

// Handle edits the todo and returns an EditResult. Unchanged text is not an
// error: the current todo is returned with Changed set to false.
func (h *EditTodoHandler) Handle(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.EditTodoCommand)
	if !ok {
		return nil, unexpected(c)
	}
	id, err := commands.ParseTodoID(cmd.TodoID)
	if err != nil {
		return nil, err
	}

	s, err := h.Sessions.Get(ctx, cmd.Owner)
	if err != nil {
		return nil, err
	}

	before, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	todo, err := s.Edit(ctx, id, cmd.Text)
	if pkgerrors.IsNoop(err) {
		current, getErr := s.Get(id)
		if getErr != nil {
			return nil, getErr
		}
		return EditResult{Todo: current, Changed: false}, nil
	}
	if err != nil {
		return nil, err
	}

	h.publish(ctx, events.NewTodoTextEdited(cmd.Owner, id, before.Text().String(), todo.Text().String(), time.Now().UTC()))
	return EditResult{Todo: todo, Changed: true}, nil
}

// CompleteTodoHandler handles CompleteTodoCommand
type CompleteTodoHandler struct{ base }

// NewCompleteTodoHandler creates a new complete todo handler
func NewCompleteTodoHandler(deps Deps) *CompleteTodoHandler {
	return &CompleteTodoHandler{base{deps}}
}

// Handle marks the todo done and returns it
func (h *CompleteTodoHandler) Handle(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.CompleteTodoCommand)
	if !ok {
		return nil, unexpected(c)
	}
	id, err := commands.ParseTodoID(cmd.TodoID)
	if err != nil {
		return nil, err
	}

	s, err := h.Sessions.Get(ctx, cmd.Owner)
	if err != nil {
		return nil, err
	}

	todo, err := s.Complete(ctx, id)
	if err != nil {
		return nil, err
	}

	h.publish(ctx, events.NewTodoCompleted(cmd.Owner, id, *todo.CompletedAt()))
	return todo, nil
}

// UncompleteTodoHandler handles UncompleteTodoCommand
type UncompleteTodoHandler struct{ base }

// NewUncompleteTodoHandler creates a new uncomplete todo handler
func NewUncompleteTodoHandler(deps Deps) *UncompleteTodoHandler {
	return &UncompleteTodoHandler{base{deps}}
}

// Handle reopens the todo and returns it
func (h *UncompleteTodoHandler) Handle(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.UncompleteTodoCommand)
	if !ok {
		return nil, unexpected(c)
	}
	id, err := commands.ParseTodoID(cmd.TodoID)
	if err != nil {
		return nil, err
	}

	s, err := h.Sessions.Get(ctx, cmd.Owner)
	if err != nil {
		return nil, err
	}

	todo, err := s.Uncomplete(ctx, id)
	if err != nil {
		return nil, err
	}

	h.publish(ctx, events.NewTodoReopened(cmd.Owner, id, time.Now().UTC()))
	return todo, nil
}

// DeleteTodoHandler handles DeleteTodoCommand
type DeleteTodoHandler struct{ base }

// NewDeleteTodoHandler creates a new delete todo handler
func NewDeleteTodoHandler(deps Deps) *DeleteTodoHandler {
	return &DeleteTodoHandler{base{deps}}
}

// Handle deletes the todo
func (h *DeleteTodoHandler) Handle(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.DeleteTodoCommand)
	if !ok {
		return nil, unexpected(c)
	}
	id, err := commands.ParseTodoID(cmd.TodoID)
	if err != nil {
		return nil, err
	}

	s, err := h.Sessions.Get(ctx, cmd.Owner)
	if err != nil {
		return nil, err
	}

	if err := s.Delete(ctx, id); err != nil {
		return nil, err
	}

	h.publish(ctx, events.NewTodoDeleted(cmd.Owner, id, time.Now().UTC()))
	h.Logger.Info("Todo deleted",
		zap.String("owner", cmd.Owner),
		zap.String("todoID", id.String()),
	)
	return nil, nil
}

// RefreshSessionHandler handles RefreshSessionCommand
type RefreshSessionHandler struct{ base }

// NewRefreshSessionHandler creates a new refresh session handler
func NewRefreshSessionHandler(deps Deps) *RefreshSessionHandler {
	return &RefreshSessionHandler{base{deps}}
}

// Handle drops the session, reloads it and returns the fresh partition counts
func (h *RefreshSessionHandler) Handle(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.RefreshSessionCommand)
	if !ok {
		return nil, unexpected(c)
	}

	h.Sessions.Invalidate(cmd.Owner)
	s, err := h.Sessions.Get(ctx, cmd.Owner)
	if err != nil {
		return nil, err
	}
	return s.Stats(), nil
}
