package entities

import (
	"time"

	"todolist-backend/domain/core/valueobjects"
	pkgerrors "todolist-backend/pkg/errors"
)

// Todo is a single task owned by one user.
// Fields are private; mutation happens only through the methods below, which
// the store calls after the backing store has accepted the change.
type Todo struct {
	id          valueobjects.TodoID
	owner       string
	text        valueobjects.TodoText
	completed   bool
	createdAt   time.Time
	completedAt *time.Time
	editHistory []EditRecord
}

// NewTodo creates an active todo with an empty edit history
func NewTodo(owner string, id valueobjects.TodoID, text valueobjects.TodoText, createdAt time.Time) (*Todo, error) {
	if owner == "" {
		return nil, pkgerrors.NewValidationError("owner cannot be empty")
	}
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("todo ID cannot be empty")
	}
	if text.IsEmpty() {
		return nil, pkgerrors.NewValidationError("text cannot be empty")
	}

	return &Todo{
		id:          id,
		owner:       owner,
		text:        text,
		createdAt:   createdAt,
		editHistory: []EditRecord{},
	}, nil
}

// ReconstructTodo rebuilds a todo from stored data with preserved timestamps.
// The history is copied and ordered newest first.
func ReconstructTodo(
	id valueobjects.TodoID,
	owner string,
	text valueobjects.TodoText,
	completed bool,
	createdAt time.Time,
	completedAt *time.Time,
	history []EditRecord,
) (*Todo, error) {
	todo, err := NewTodo(owner, id, text, createdAt)
	if err != nil {
		return nil, err
	}

	if completed {
		if completedAt == nil {
			return nil, pkgerrors.NewValidationError("completed todo requires a completion time")
		}
		at := *completedAt
		todo.completed = true
		todo.completedAt = &at
	}

	if len(history) > 0 {
		todo.editHistory = append(make([]EditRecord, 0, len(history)), history...)
		SortHistory(todo.editHistory)
	}

	return todo, nil
}

// ID returns the todo's identifier
func (t *Todo) ID() valueobjects.TodoID {
	return t.id
}

// Owner returns the owning user's ID
func (t *Todo) Owner() string {
	return t.owner
}

// Text returns the current text
func (t *Todo) Text() valueobjects.TodoText {
	return t.text
}

// IsCompleted reports whether the todo is in the completed partition
func (t *Todo) IsCompleted() bool {
	return t.completed
}

// CreatedAt returns the creation time
func (t *Todo) CreatedAt() time.Time {
	return t.createdAt
}

// CompletedAt returns the completion time, nil while active
func (t *Todo) CompletedAt() *time.Time {
	if t.completedAt == nil {
		return nil
	}
	at := *t.completedAt
	return &at
}

// EditHistory returns a copy of the history, newest first
func (t *Todo) EditHistory() []EditRecord {
	out := make([]EditRecord, len(t.editHistory))
	copy(out, t.editHistory)
	return out
}

// ApplyEdit records the pre-edit snapshot at the head of the history and
// replaces the text.
func (t *Todo) ApplyEdit(record EditRecord, newText valueobjects.TodoText) {
	history := make([]EditRecord, 0, len(t.editHistory)+1)
	history = append(history, record)
	history = append(history, t.editHistory...)
	t.editHistory = history
	t.text = newText
}

// MarkCompleted moves the todo into the completed state
func (t *Todo) MarkCompleted(at time.Time) {
	t.completed = true
	t.completedAt = &at
}

// MarkActive clears the completion state
func (t *Todo) MarkActive() {
	t.completed = false
	t.completedAt = nil
}

// Clone returns a deep copy
func (t *Todo) Clone() *Todo {
	c := *t
	c.completedAt = t.CompletedAt()
	c.editHistory = t.EditHistory()
	return &c
}
