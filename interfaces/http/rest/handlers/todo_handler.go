package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"todolist-backend/application/commands"
	"todolist-backend/application/commands/bus"
	cmdhandlers "todolist-backend/application/commands/handlers"
	"todolist-backend/application/queries"
	querybus "todolist-backend/application/queries/bus"
	"todolist-backend/domain/core/entities"
	"todolist-backend/pkg/auth"
	pkgerrors "todolist-backend/pkg/errors"
	"todolist-backend/pkg/utils"
)

// TodoHandler handles todo-related HTTP requests
type TodoHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *TodoHandler {
	return &TodoHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// ListTodos handles GET /todos?status=active|completed|all
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		status = queries.StatusActive
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListTodosQuery{Owner: owner, Status: status})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	todos, ok := result.([]*entities.Todo)
	if !ok {
		h.errors.Handle(w, r, unexpectedResult(result))
		return
	}

	h.respondJSON(w, http.StatusOK, ListTodosResponse{
		Todos:  toTodoResponses(todos),
		Status: status,
		Count:  len(todos),
	})
}

// CreateTodo handles POST /todos
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req TodoTextRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.AddTodoCommand{Owner: owner, Text: req.Text})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	todo, ok := result.(*entities.Todo)
	if !ok {
		h.errors.Handle(w, r, unexpectedResult(result))
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/todos/%s", todo.ID()))
	h.respondJSON(w, http.StatusCreated, ToTodoResponse(todo))
}

// GetTodo handles GET /todos/{todoID}
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	todo, ok := h.fetch(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, ToTodoResponse(todo))
}

// GetHistory handles GET /todos/{todoID}/history
func (h *TodoHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	todo, ok := h.fetch(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, HistoryResponse{
		TodoID:      todo.ID().String(),
		EditHistory: toHistoryResponse(todo.EditHistory()),
	})
}

// UpdateTodo handles PUT /todos/{todoID}
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req TodoTextRequest
	if !h.decode(w, r, &req) {
		return
	}

	cmd := commands.EditTodoCommand{Owner: owner, TodoID: chi.URLParam(r, "todoID"), Text: req.Text}
	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	edit, ok := result.(cmdhandlers.EditResult)
	if !ok {
		h.errors.Handle(w, r, unexpectedResult(result))
		return
	}

	h.respondJSON(w, http.StatusOK, UpdateTodoResponse{
		TodoResponse: ToTodoResponse(edit.Todo),
		Changed:      edit.Changed,
	})
}

// CompleteTodo handles POST /todos/{todoID}/complete
func (h *TodoHandler) CompleteTodo(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	h.sendForTodo(w, r, commands.CompleteTodoCommand{Owner: owner, TodoID: chi.URLParam(r, "todoID")})
}

// UncompleteTodo handles POST /todos/{todoID}/uncomplete
func (h *TodoHandler) UncompleteTodo(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	h.sendForTodo(w, r, commands.UncompleteTodoCommand{Owner: owner, TodoID: chi.URLParam(r, "todoID")})
}

// DeleteTodo handles DELETE /todos/{todoID}
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	cmd := commands.DeleteTodoCommand{Owner: owner, TodoID: chi.URLParam(r, "todoID")}
	if _, err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStats handles GET /stats
func (h *TodoHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetStatsQuery{Owner: owner})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondStats(w, r, result)
}

// RefreshSession handles POST /session/refresh
func (h *TodoHandler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.RefreshSessionCommand{Owner: owner})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondStats(w, r, result)
}

func (h *TodoHandler) sendForTodo(w http.ResponseWriter, r *http.Request, cmd bus.Command) {
	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	todo, ok := result.(*entities.Todo)
	if !ok {
		h.errors.Handle(w, r, unexpectedResult(result))
		return
	}
	h.respondJSON(w, http.StatusOK, ToTodoResponse(todo))
}

func (h *TodoHandler) fetch(w http.ResponseWriter, r *http.Request) (*entities.Todo, bool) {
	owner, ok := h.owner(w, r)
	if !ok {
		return nil, false
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetTodoQuery{Owner: owner, TodoID: chi.URLParam(r, "todoID")})
	if err != nil {
		h.errors.Handle(w, r, err)
		return nil, false
	}

	todo, ok := result.(*entities.Todo)
	if !ok {
		h.errors.Handle(w, r, unexpectedResult(result))
		return nil, false
	}
	return todo, true
}

func (h *TodoHandler) respondStats(w http.ResponseWriter, r *http.Request, result interface{}) {
	stats, ok := result.(entities.Stats)
	if !ok {
		h.errors.Handle(w, r, unexpectedResult(result))
		return
	}
	h.respondJSON(w, http.StatusOK, toStatsResponse(stats))
}

// owner returns the authenticated owner or writes a 401
func (h *TodoHandler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError(""))
		return "", false
	}
	return user.UserID, true
}

// decode reads and validates a JSON body, writing a 400 on failure
func (h *TodoHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		h.errors.Handle(w, r, err)
		return false
	}
	return true
}

func (h *TodoHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func unexpectedResult(result interface{}) error {
	return pkgerrors.NewInternalError(fmt.Sprintf("unexpected result type %T", result))
}
