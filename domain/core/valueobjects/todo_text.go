package valueobjects

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"todolist-backend/domain/config"
	pkgerrors "todolist-backend/pkg/errors"
)

// TodoText is the validated, trimmed text of a todo item
type TodoText struct {
	value string
}

// NewTodoText creates text with validation using default configuration
func NewTodoText(raw string) (TodoText, error) {
	return NewTodoTextWithConfig(raw, config.DefaultDomainConfig())
}

// NewTodoTextWithConfig creates text with validation and configuration
func NewTodoTextWithConfig(raw string, cfg *config.DomainConfig) (TodoText, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return TodoText{}, pkgerrors.NewValidationError("text cannot be empty")
	}

	length := utf8.RuneCountInString(text)
	if length < cfg.MinTextLength {
		return TodoText{}, pkgerrors.NewValidationError(
			fmt.Sprintf("text too short: minimum %d characters required", cfg.MinTextLength))
	}
	if length > cfg.MaxTextLength {
		return TodoText{}, pkgerrors.NewValidationError(
			fmt.Sprintf("text exceeds maximum length of %d characters", cfg.MaxTextLength))
	}

	return TodoText{value: text}, nil
}

// String returns the text
func (t TodoText) String() string {
	return t.value
}

// IsEmpty reports whether the text is the zero value
func (t TodoText) IsEmpty() bool {
	return t.value == ""
}

// Equals checks if two texts are equal
func (t TodoText) Equals(other TodoText) bool {
	return t.value == other.value
}

// MarshalJSON implements json.Marshaler
func (t TodoText) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.value)
}
