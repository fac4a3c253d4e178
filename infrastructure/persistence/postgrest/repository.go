// Package postgrest implements the todo repository on Supabase through its
// PostgREST interface.
package postgrest

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pgrest "github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"todolist-backend/application/ports"
	"todolist-backend/domain/core/entities"
	"todolist-backend/domain/core/valueobjects"
	"todolist-backend/infrastructure/persistence/abstractions"
	pkgerrors "todolist-backend/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the Postgres migration for the Supabase project
func Schema() string {
	return schemaSQL
}

const (
	tableTodos = "todos"
	viewTodos  = "todos_with_history"
	rpcEdit    = "edit_todo_text"
	rpcStats   = "get_todo_stats"

	todoColumns = "id,owner,text,completed,created_at,completed_at"
	viewColumns = todoColumns + ",edit_history"
)

// RestClient is the part of the Supabase client the repository uses.
// *supabase.Client and a bare PostgREST client both satisfy it.
type RestClient interface {
	From(table string) *pgrest.QueryBuilder
	Rpc(name string, count string, rpcBody interface{}) string
}

var _ RestClient = (*supabase.Client)(nil)

// Repository talks to the todos table, the edit_history table and the
// todos_with_history view
type Repository struct {
	client RestClient
	clock  ports.Clock
	logger *zap.Logger
}

var _ ports.TodoRepository = (*Repository)(nil)

// NewClient creates a Supabase client authenticated with the service role key
func NewClient(url, serviceRoleKey string) (*supabase.Client, error) {
	if url == "" || serviceRoleKey == "" {
		return nil, errors.New("supabase url and service role key are required")
	}
	return supabase.NewClient(url, serviceRoleKey, nil)
}

// NewRepository wraps a Supabase (or bare PostgREST) client
func NewRepository(client RestClient, clock ports.Clock, logger *zap.Logger) *Repository {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Repository{client: client, clock: clock, logger: logger}
}

// viewRow is one row of todos_with_history
type viewRow struct {
	abstractions.TodoRow
	EditHistory []viewHistory `json:"edit_history"`
}

type viewHistory struct {
	Text     string    `json:"text"`
	EditedAt time.Time `json:"edited_at"`
}

// editResult is the json returned by edit_todo_text
type editResult struct {
	Status   string    `json:"status"`
	Text     string    `json:"text"`
	EditedAt time.Time `json:"edited_at"`
}

// rpcError is the PostgREST error body
type rpcError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (r *Repository) fail(op string, err error) error {
	r.logger.Error("Supabase operation failed", zap.String("operation", op), zap.Error(err))
	return pkgerrors.NewPersistenceError(op, err)
}

func toEntities(rows []viewRow) ([]*entities.Todo, error) {
	todoRows := make([]abstractions.TodoRow, 0, len(rows))
	var history []abstractions.HistoryRow
	for _, row := range rows {
		todoRows = append(todoRows, row.TodoRow)
		for _, h := range row.EditHistory {
			history = append(history, abstractions.HistoryRow{TodoID: row.ID, Text: h.Text, EditedAt: h.EditedAt})
		}
	}
	return abstractions.AttachHistory(todoRows, history)
}

// decodeEditResult maps the rpc response body onto the repository outcomes
func decodeEditResult(body string) (entities.EditRecord, error) {
	if body == "" {
		return entities.EditRecord{}, pkgerrors.NewPersistenceError(rpcEdit, errors.New("empty response"))
	}

	var res editResult
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return entities.EditRecord{}, pkgerrors.NewPersistenceError(rpcEdit, err)
	}

	switch res.Status {
	case "edited":
		return entities.NewEditRecord(res.Text, res.EditedAt.UTC()), nil
	case "noop":
		return entities.EditRecord{}, pkgerrors.NewNoopError("text unchanged")
	case "not_found":
		return entities.EditRecord{}, pkgerrors.NewNotFoundError("todo")
	}

	var rpcErr rpcError
	if err := json.Unmarshal([]byte(body), &rpcErr); err == nil && rpcErr.Message != "" {
		return entities.EditRecord{}, pkgerrors.NewPersistenceError(rpcEdit,
			fmt.Errorf("(%s) %s", rpcErr.Code, rpcErr.Message))
	}
	return entities.EditRecord{}, pkgerrors.NewPersistenceError(rpcEdit,
		fmt.Errorf("unexpected response %q", body))
}

type statsResult struct {
	ActiveCount    *int `json:"active_count"`
	CompletedCount *int `json:"completed_count"`
}

func decodeStats(body string) (entities.Stats, error) {
	if body == "" {
		return entities.Stats{}, pkgerrors.NewPersistenceError(rpcStats, errors.New("empty response"))
	}

	var res statsResult
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return entities.Stats{}, pkgerrors.NewPersistenceError(rpcStats, err)
	}
	if res.ActiveCount != nil && res.CompletedCount != nil {
		return entities.Stats{ActiveCount: *res.ActiveCount, CompletedCount: *res.CompletedCount}, nil
	}

	var rpcErr rpcError
	if err := json.Unmarshal([]byte(body), &rpcErr); err == nil && rpcErr.Message != "" {
		return entities.Stats{}, pkgerrors.NewPersistenceError(rpcStats,
			fmt.Errorf("(%s) %s", rpcErr.Code, rpcErr.Message))
	}
	return entities.Stats{}, pkgerrors.NewPersistenceError(rpcStats,
		fmt.Errorf("unexpected response %q", body))
}

func (r *Repository) GetTodo(ctx context.Context, owner string, id valueobjects.TodoID) (*entities.Todo, error) {
	var rows []abstractions.TodoRow
	_, err := r.client.From(tableTodos).
		Select(todoColumns, "", false).
		Eq("id", id.String()).
		Eq("owner", owner).
		ExecuteTo(&rows)
	if err != nil {
		return nil, r.fail("get todo", err)
	}
	if len(rows) == 0 {
		return nil, pkgerrors.NewNotFoundError("todo")
	}
	return rows[0].ToEntity(nil)
}

func (r *Repository) GetTodoWithHistory(ctx context.Context, owner string, id valueobjects.TodoID) (*entities.Todo, error) {
	var rows []viewRow
	_, err := r.client.From(viewTodos).
		Select(viewColumns, "", false).
		Eq("id", id.String()).
		Eq("owner", owner).
		ExecuteTo(&rows)
	if err != nil {
		return nil, r.fail("get todo with history", err)
	}
	if len(rows) == 0 {
		return nil, pkgerrors.NewNotFoundError("todo")
	}
	todos, err := toEntities(rows)
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

	var created []abstractions.TodoRow
	_, err := r.client.From(tableTodos).
		Insert(row, false, "", "representation", "").
		ExecuteTo(&created)
	if err != nil {
		return nil, r.fail("create todo", err)
	}
	if len(created) == 0 {
		return nil, r.fail("create todo", errors.New("insert returned no rows"))
	}
	return created[0].ToEntity(nil)
}

// UpdateTodoText runs edit_todo_text, which locks the row and writes the
// history entry and the new text in one transaction
func (r *Repository) UpdateTodoText(ctx context.Context, owner string, id valueobjects.TodoID, text valueobjects.TodoText) (entities.EditRecord, error) {
	body := r.client.Rpc(rpcEdit, "", map[string]interface{}{
		"p_owner":     owner,
		"p_id":        id.String(),
		"p_text":      text.String(),
		"p_edited_at": r.clock.Now().UTC(),
	})

	record, err := decodeEditResult(body)
	if pkgerrors.IsPersistence(err) {
		r.logger.Error("Supabase operation failed", zap.String("operation", rpcEdit), zap.Error(err))
	}
	return record, err
}

// update applies values to the owner's row and reports NOT_FOUND when no row matched
func (r *Repository) update(op string, owner string, id valueobjects.TodoID, values map[string]interface{}) error {
	var rows []abstractions.TodoRow
	_, err := r.client.From(tableTodos).
		Update(values, "representation", "").
		Eq("id", id.String()).
		Eq("owner", owner).
		ExecuteTo(&rows)
	if err != nil {
		return r.fail(op, err)
	}
	if len(rows) == 0 {
		return pkgerrors.NewNotFoundError("todo")
	}
	return nil
}

func (r *Repository) MarkAsCompleted(ctx context.Context, owner string, id valueobjects.TodoID) (time.Time, error) {
	now := r.clock.Now().UTC()
	err := r.update("mark completed", owner, id, map[string]interface{}{
		"completed":    true,
		"completed_at": now,
	})
	if err != nil {
		return time.Time{}, err
	}
	return now, nil
}

func (r *Repository) MarkAsUncompleted(ctx context.Context, owner string, id valueobjects.TodoID) error {
	return r.update("mark uncompleted", owner, id, map[string]interface{}{
		"completed":    false,
		"completed_at": nil,
	})
}

// DeleteTodo removes the row; edit_history follows through ON DELETE CASCADE
func (r *Repository) DeleteTodo(ctx context.Context, owner string, id valueobjects.TodoID) error {
	var rows []abstractions.TodoRow
	_, err := r.client.From(tableTodos).
		Delete("representation", "").
		Eq("id", id.String()).
		Eq("owner", owner).
		ExecuteTo(&rows)
	if err != nil {
		return r.fail("delete todo", err)
	}
	if len(rows) == 0 {
		return pkgerrors.NewNotFoundError("todo")
	}
	return nil
}

func (r *Repository) fetch(op, owner string, partition abstractions.Partition) ([]*entities.Todo, error) {
	filter := r.client.From(viewTodos).
		Select(viewColumns, "", false).
		Eq("owner", owner)

	orderBy := "created_at"
	switch partition {
	case abstractions.PartitionActive:
		filter = filter.Eq("completed", "false")
	case abstractions.PartitionCompleted:
		filter = filter.Eq("completed", "true")
		orderBy = "completed_at"
	}

	var rows []viewRow
	if _, err := filter.Order(orderBy, &pgrest.OrderOpts{Ascending: false}).ExecuteTo(&rows); err != nil {
		return nil, r.fail(op, err)
	}
	return toEntities(rows)
}

func (r *Repository) FetchActiveTodos(ctx context.Context, owner string) ([]*entities.Todo, error) {
	return r.fetch("fetch active todos", owner, abstractions.PartitionActive)
}

func (r *Repository) FetchCompletedTodos(ctx context.Context, owner string) ([]*entities.Todo, error) {
	return r.fetch("fetch completed todos", owner, abstractions.PartitionCompleted)
}

func (r *Repository) FetchTodos(ctx context.Context, owner string) ([]*entities.Todo, error) {
	return r.fetch("fetch todos", owner, abstractions.PartitionAll)
}

// FetchStats calls the get_todo_stats function
func (r *Repository) FetchStats(ctx context.Context, owner string) (entities.Stats, error) {
	body := r.client.Rpc(rpcStats, "", map[string]interface{}{"p_owner": owner})

	stats, err := decodeStats(body)
	if err != nil {
		r.logger.Error("Supabase operation failed", zap.String("operation", rpcStats), zap.Error(err))
	}
	return stats, err
}
