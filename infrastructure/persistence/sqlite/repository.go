package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"todolist-backend/application/ports"
	"todolist-backend/domain/core/entities"
	"todolist-backend/domain/core/valueobjects"
	"todolist-backend/infrastructure/persistence/abstractions"
	pkgerrors "todolist-backend/pkg/errors"
)

var _ ports.TodoRepository = (*Repository)(nil)

const todoColumns = `id, owner, text, completed, created_at, completed_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTodoRow(s scanner, extra ...any) (abstractions.TodoRow, error) {
	var (
		row         abstractions.TodoRow
		createdAt   string
		completedAt sql.NullString
	)
	dest := append([]any{&row.ID, &row.Owner, &row.Text, &row.Completed, &createdAt, &completedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return row, err
	}

	var err error
	if row.CreatedAt, err = parseTime(createdAt); err != nil {
		return row, err
	}
	if completedAt.Valid {
		at, err := parseTime(completedAt.String)
		if err != nil {
			return row, err
		}
		row.CompletedAt = &at
	}
	return row, nil
}

// historyJSON is one element of the todos_with_history.edit_history array
type historyJSON struct {
	Text     string `json:"text"`
	EditedAt string `json:"edited_at"`
}

func decodeHistory(todoID, raw string) ([]abstractions.HistoryRow, error) {
	if raw == "" {
		return nil, nil
	}
	var items []historyJSON
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	rows := make([]abstractions.HistoryRow, 0, len(items))
	for _, item := range items {
		at, err := parseTime(item.EditedAt)
		if err != nil {
			return nil, err
		}
		rows = append(rows, abstractions.HistoryRow{TodoID: todoID, Text: item.Text, EditedAt: at})
	}
	return rows, nil
}

func (r *Repository) fail(op string, err error) error {
	r.logger.Error("SQLite operation failed", zap.String("operation", op), zap.Error(err))
	return pkgerrors.NewPersistenceError(op, err)
}

func (r *Repository) GetTodo(ctx context.Context, owner string, id valueobjects.TodoID) (*entities.Todo, error) {
	row, err := scanTodoRow(r.db.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = ? AND owner = ?`, id.String(), owner))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.NewNotFoundError("todo")
	}
	if err != nil {
		return nil, r.fail("get todo", err)
	}
	return row.ToEntity(nil)
}

func (r *Repository) GetTodoWithHistory(ctx context.Context, owner string, id valueobjects.TodoID) (*entities.Todo, error) {
	todos, err := r.queryView(ctx, "get todo with history",
		`SELECT `+todoColumns+`, edit_history FROM todos_with_history WHERE id = ? AND owner = ?`,
		id.String(), owner)
	if err != nil {
		return nil, err
	}
	if len(todos) == 0 {
		return nil, pkgerrors.NewNotFoundError("todo")
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

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO todos (id, owner, text, completed, created_at) VALUES (?, ?, ?, 0, ?)`,
		row.ID, row.Owner, row.Text, formatTime(row.CreatedAt))
	if err != nil {
		return nil, r.fail("create todo", err)
	}
	return row.ToEntity(nil)
}

// UpdateTodoText reads the current text, appends it to edit_history and
// writes the new text in one transaction
func (r *Repository) UpdateTodoText(ctx context.Context, owner string, id valueobjects.TodoID, text valueobjects.TodoText) (entities.EditRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return entities.EditRecord{}, r.fail("begin edit", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT text FROM todos WHERE id = ? AND owner = ?`, id.String(), owner).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.EditRecord{}, pkgerrors.NewNotFoundError("todo")
	}
	if err != nil {
		return entities.EditRecord{}, r.fail("read todo text", err)
	}
	if current == text.String() {
		return entities.EditRecord{}, pkgerrors.NewNoopError("text unchanged")
	}

	editedAt := r.clock.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO edit_history (id, todo_id, text, edited_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), id.String(), current, formatTime(editedAt)); err != nil {
		return entities.EditRecord{}, r.fail("insert edit history", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE todos SET text = ? WHERE id = ? AND owner = ?`,
		text.String(), id.String(), owner); err != nil {
		return entities.EditRecord{}, r.fail("update todo text", err)
	}

	if err := tx.Commit(); err != nil {
		return entities.EditRecord{}, r.fail("commit edit", err)
	}
	return entities.NewEditRecord(current, editedAt), nil
}

func (r *Repository) exec(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return r.fail(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return r.fail(op, err)
	}
	if n == 0 {
		return pkgerrors.NewNotFoundError("todo")
	}
	return nil
}

func (r *Repository) MarkAsCompleted(ctx context.Context, owner string, id valueobjects.TodoID) (time.Time, error) {
	now := r.clock.Now().UTC()
	err := r.exec(ctx, "mark completed",
		`UPDATE todos SET completed = 1, completed_at = ? WHERE id = ? AND owner = ?`,
		formatTime(now), id.String(), owner)
	if err != nil {
		return time.Time{}, err
	}
	return now, nil
}

func (r *Repository) MarkAsUncompleted(ctx context.Context, owner string, id valueobjects.TodoID) error {
	return r.exec(ctx, "mark uncompleted",
		`UPDATE todos SET completed = 0, completed_at = NULL WHERE id = ? AND owner = ?`,
		id.String(), owner)
}

// DeleteTodo removes the todo; edit_history rows go with it through the foreign key
func (r *Repository) DeleteTodo(ctx context.Context, owner string, id valueobjects.TodoID) error {
	return r.exec(ctx, "delete todo",
		`DELETE FROM todos WHERE id = ? AND owner = ?`,
		id.String(), owner)
}

func (r *Repository) queryView(ctx context.Context, op, query string, args ...any) ([]*entities.Todo, error) {
	rs, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.fail(op, err)
	}
	defer rs.Close()

	var (
		rows    []abstractions.TodoRow
		history []abstractions.HistoryRow
	)
	for rs.Next() {
		var raw sql.NullString
		row, err := scanTodoRow(rs, &raw)
		if err != nil {
			return nil, r.fail(op, err)
		}
		h, err := decodeHistory(row.ID, raw.String)
		if err != nil {
			return nil, r.fail(op, err)
		}
		rows = append(rows, row)
		history = append(history, h...)
	}
	if err := rs.Err(); err != nil {
		return nil, r.fail(op, err)
	}

	return abstractions.AttachHistory(rows, history)
}

func (r *Repository) FetchActiveTodos(ctx context.Context, owner string) ([]*entities.Todo, error) {
	return r.queryView(ctx, "fetch active todos",
		`SELECT `+todoColumns+`, edit_history FROM todos_with_history
		 WHERE owner = ? AND completed = 0 ORDER BY created_at DESC`, owner)
}

func (r *Repository) FetchCompletedTodos(ctx context.Context, owner string) ([]*entities.Todo, error) {
	return r.queryView(ctx, "fetch completed todos",
		`SELECT `+todoColumns+`, edit_history FROM todos_with_history
		 WHERE owner = ? AND completed = 1 ORDER BY completed_at DESC`, owner)
}

func (r *Repository) FetchTodos(ctx context.Context, owner string) ([]*entities.Todo, error) {
	return r.queryView(ctx, "fetch todos",
		`SELECT `+todoColumns+`, edit_history FROM todos_with_history
		 WHERE owner = ? ORDER BY created_at DESC`, owner)
}

func (r *Repository) FetchStats(ctx context.Context, owner string) (entities.Stats, error) {
	var stats entities.Stats
	err := r.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN completed = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN completed = 1 THEN 1 ELSE 0 END), 0)
		 FROM todos WHERE owner = ?`, owner).Scan(&stats.ActiveCount, &stats.CompletedCount)
	if err != nil {
		return entities.Stats{}, r.fail("fetch stats", err)
	}
	return stats, nil
}
