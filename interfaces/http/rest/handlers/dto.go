package handlers

import (
	"time"

	"todolist-backend/domain/core/entities"
)

// TodoTextRequest is the body of POST /todos and PUT /todos/{todoID}
type TodoTextRequest struct {
	Text string `json:"text" validate:"required,max=100"`
}

// EditRecordResponse is one entry of a todo's edit history
type EditRecordResponse struct {
	Text     string    `json:"text"`
	EditedAt time.Time `json:"editedAt"`
}

// TodoResponse is the wire shape of a todo
type TodoResponse struct {
	ID          string               `json:"id"`
	Text        string               `json:"text"`
	Completed   bool                 `json:"completed"`
	CreatedAt   time.Time            `json:"createdAt"`
	CompletedAt *time.Time           `json:"completedAt,omitempty"`
	EditHistory []EditRecordResponse `json:"editHistory"`
}

// UpdateTodoResponse reports whether an edit changed anything
type UpdateTodoResponse struct {
	TodoResponse
	Changed bool `json:"changed"`
}

// ListTodosResponse wraps a todo listing
type ListTodosResponse struct {
	Todos  []TodoResponse `json:"todos"`
	Status string         `json:"status"`
	Count  int            `json:"count"`
}

// HistoryResponse lists a todo's previous texts, newest first
type HistoryResponse struct {
	TodoID      string               `json:"todoId"`
	EditHistory []EditRecordResponse `json:"editHistory"`
}

// StatsResponse counts an owner's todos
type StatsResponse struct {
	ActiveCount    int `json:"activeCount"`
	CompletedCount int `json:"completedCount"`
	Total          int `json:"total"`
}

func toHistoryResponse(records []entities.EditRecord) []EditRecordResponse {
	out := make([]EditRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, EditRecordResponse{Text: rec.Text, EditedAt: rec.EditedAt})
	}
	return out
}

// ToTodoResponse converts a todo entity into its wire shape
func ToTodoResponse(todo *entities.Todo) TodoResponse {
	return TodoResponse{
		ID:          todo.ID().String(),
		Text:        todo.Text().String(),
		Completed:   todo.IsCompleted(),
		CreatedAt:   todo.CreatedAt(),
		CompletedAt: todo.CompletedAt(),
		EditHistory: toHistoryResponse(todo.EditHistory()),
	}
}

func toTodoResponses(todos []*entities.Todo) []TodoResponse {
	out := make([]TodoResponse, 0, len(todos))
	for _, todo := range todos {
		out = append(out, ToTodoResponse(todo))
	}
	return out
}

func toStatsResponse(stats entities.Stats) StatsResponse {
	return StatsResponse{
		ActiveCount:    stats.ActiveCount,
		CompletedCount: stats.CompletedCount,
		Total:          stats.Total(),
	}
}
