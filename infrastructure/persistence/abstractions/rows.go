package abstractions

import (
	"time"

	"todolist-backend/domain/core/entities"
	"todolist-backend/domain/core/valueobjects"
	pkgerrors "todolist-backend/pkg/errors"
)

// TodoRow is the storage-neutral shape of a row in the todos table
type TodoRow struct {
	ID          string     `json:"id" db:"id"`
	Owner       string     `json:"owner" db:"owner"`
	Text        string     `json:"text" db:"text"`
	Completed   bool       `json:"completed" db:"completed"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// HistoryRow is the storage-neutral shape of a row in the edit_history table
type HistoryRow struct {
	ID       string    `json:"id" db:"id"`
	TodoID   string    `json:"todo_id" db:"todo_id"`
	Text     string    `json:"text" db:"text"`
	EditedAt time.Time `json:"edited_at" db:"edited_at"`
}

// Record converts the row into a domain edit record
func (h HistoryRow) Record() entities.EditRecord {
	return entities.NewEditRecord(h.Text, h.EditedAt)
}

// RowFromTodo flattens a todo into a row
func RowFromTodo(t *entities.Todo) TodoRow {
	return TodoRow{
		ID:          t.ID().String(),
		Owner:       t.Owner(),
		Text:        t.Text().String(),
		Completed:   t.IsCompleted(),
		CreatedAt:   t.CreatedAt(),
		CompletedAt: t.CompletedAt(),
	}
}

// ToEntity rebuilds a todo from a row and its (possibly empty) history
func (r TodoRow) ToEntity(history []entities.EditRecord) (*entities.Todo, error) {
	id, err := valueobjects.NewTodoIDFromString(r.ID)
	if err != nil {
		return nil, pkgerrors.NewPersistenceError("decode todo id", err)
	}
	text, err := valueobjects.NewTodoText(r.Text)
	if err != nil {
		return nil, pkgerrors.NewPersistenceError("decode todo text", err)
	}
	todo, err := entities.ReconstructTodo(id, r.Owner, text, r.Completed, r.CreatedAt, r.CompletedAt, history)
	if err != nil {
		return nil, pkgerrors.NewPersistenceError("reconstruct todo", err)
	}
	return todo, nil
}

// AttachHistory groups history rows by todo id and builds entities, each with
// its history ordered newest first. Row order is preserved.
func AttachHistory(rows []TodoRow, history []HistoryRow) ([]*entities.Todo, error) {
	grouped := make(map[string][]entities.EditRecord, len(rows))
	for _, h := range history {
		grouped[h.TodoID] = append(grouped[h.TodoID], h.Record())
	}

	todos := make([]*entities.Todo, 0, len(rows))
	for _, row := range rows {
		todo, err := row.ToEntity(grouped[row.ID])
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	return todos, nil
}

// Partition selects which todos a fetch returns
type Partition int

const (
	PartitionAll Partition = iota
	PartitionActive
	PartitionCompleted
)

// Matches reports whether a row belongs to the partition
func (p Partition) Matches(completed bool) bool {
	switch p {
	case PartitionActive:
		return !completed
	case PartitionCompleted:
		return completed
	default:
		return true
	}
}

// Order sorts todos the way the partition is presented
func (p Partition) Order(todos []*entities.Todo) {
	if p == PartitionCompleted {
		entities.SortByCompletedDesc(todos)
		return
	}
	entities.SortByCreatedDesc(todos)
}

// CountStats tallies rows per partition
func CountStats(rows []TodoRow) entities.Stats {
	var stats entities.Stats
	for _, r := range rows {
		if r.Completed {
			stats.CompletedCount++
		} else {
			stats.ActiveCount++
		}
	}
	return stats
}
