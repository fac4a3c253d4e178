package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// TodoID is an opaque identifier for a todo item. It carries no ordering.
type TodoID struct {
	value string
}

// NewTodoID creates a new random TodoID
func NewTodoID() TodoID {
	return TodoID{value: uuid.New().String()}
}

// NewTodoIDFromString creates a TodoID from an existing string
func NewTodoIDFromString(id string) (TodoID, error) {
	if id == "" {
		return TodoID{}, errors.New("todo ID cannot be empty")
	}
	if !isValidUUID(id) {
		return TodoID{}, errors.New("todo ID must be a valid UUID")
	}
	return TodoID{value: id}, nil
}

// MustTodoID parses id and panics on failure. Intended for tests and literals.
func MustTodoID(id string) TodoID {
	v, err := NewTodoIDFromString(id)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the string representation of the TodoID
func (id TodoID) String() string {
	return id.value
}

// Equals checks if two TodoIDs are equal
func (id TodoID) Equals(other TodoID) bool {
	return id.value == other.value
}

// IsZero checks if the TodoID is the zero value
func (id TodoID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id TodoID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *TodoID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("TodoID must be a string")
	}
	parsed, err := NewTodoIDFromString(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
