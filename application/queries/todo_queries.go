package queries

import (
	"todolist-backend/pkg/utils"
)

// Status filters for ListTodosQuery
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusAll       = "all"
)

// ListTodosQuery lists an owner's todos in one partition or all of them
type ListTodosQuery struct {
	Owner  string `json:"owner" validate:"required"`
	Status string `json:"status" validate:"omitempty,oneof=active completed all"`
}

// Validate implements bus.Query
func (q ListTodosQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// GetTodoQuery returns one todo with its edit history
type GetTodoQuery struct {
	Owner  string `json:"owner" validate:"required"`
	TodoID string `json:"todo_id" validate:"required,uuid"`
}

// Validate implements bus.Query
func (q GetTodoQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// GetStatsQuery counts an owner's todos in the backing store
type GetStatsQuery struct {
	Owner string `json:"owner" validate:"required"`
}

// Validate implements bus.Query
func (q GetStatsQuery) Validate() error {
	return utils.ValidateStruct(q)
}
