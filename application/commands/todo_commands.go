package commands

import (
	"todolist-backend/domain/core/valueobjects"
	pkgerrors "todolist-backend/pkg/errors"
	"todolist-backend/pkg/utils"
)

// AddTodoCommand creates a todo for Owner
type AddTodoCommand struct {
	Owner string `json:"owner" validate:"required"`
	Text  string `json:"text" validate:"required,max=100"`
}

// Validate implements bus.Command
func (c AddTodoCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// EditTodoCommand replaces a todo's text
type EditTodoCommand struct {
	Owner  string `json:"owner" validate:"required"`
	TodoID string `json:"todo_id" validate:"required"`
	Text   string `json:"text" validate:"required,max=100"`
}

// Validate implements bus.Command
func (c EditTodoCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	_, err := ParseTodoID(c.TodoID)
	return err
}

// CompleteTodoCommand marks an active todo as done
type CompleteTodoCommand struct {
	Owner  string `json:"owner" validate:"required"`
	TodoID string `json:"todo_id" validate:"required"`
}

// Validate implements bus.Command
func (c CompleteTodoCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	_, err := ParseTodoID(c.TodoID)
	return err
}

// UncompleteTodoCommand returns a completed todo to the active list
type UncompleteTodoCommand struct {
	Owner  string `json:"owner" validate:"required"`
	TodoID string `json:"todo_id" validate:"required"`
}

// Validate implements bus.Command
func (c UncompleteTodoCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	_, err := ParseTodoID(c.TodoID)
	return err
}

// DeleteTodoCommand removes a todo and its history
type DeleteTodoCommand struct {
	Owner  string `json:"owner" validate:"required"`
	TodoID string `json:"todo_id" validate:"required"`
}

// Validate implements bus.Command
func (c DeleteTodoCommand) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	_, err := ParseTodoID(c.TodoID)
	return err
}

// RefreshSessionCommand drops the owner's session and reloads it from storage
type RefreshSessionCommand struct {
	Owner string `json:"owner" validate:"required"`
}

// Validate implements bus.Command
func (c RefreshSessionCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ParseTodoID converts a raw id into a TodoID, reporting bad input as a validation error
func ParseTodoID(raw string) (valueobjects.TodoID, error) {
	id, err := valueobjects.NewTodoIDFromString(raw)
	if err != nil {
		return valueobjects.TodoID{}, pkgerrors.NewValidationError(err.Error())
	}
	return id, nil
}
