package events

import (
	"time"

	"github.com/google/uuid"

	"todolist-backend/domain/core/valueobjects"
)

// Event type names
const (
	TypeTodoCreated    = "todo.created"
	TypeTodoTextEdited = "todo.text_edited"
	TypeTodoCompleted  = "todo.completed"
	TypeTodoReopened   = "todo.reopened"
	TypeTodoDeleted    = "todo.deleted"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetEventID() string
	GetAggregateID() string
	GetOwner() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventID     string    `json:"event_id"`
	AggregateID string    `json:"aggregate_id"`
	Owner       string    `json:"owner"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetEventID() string      { return e.EventID }
func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetOwner() string        { return e.Owner }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

func newBase(eventType, owner string, id valueobjects.TodoID, at time.Time) BaseEvent {
	return BaseEvent{
		EventID:     uuid.New().String(),
		AggregateID: id.String(),
		Owner:       owner,
		EventType:   eventType,
		Timestamp:   at,
	}
}

// TodoCreated is raised when a new todo is added
type TodoCreated struct {
	BaseEvent
	Text string `json:"text"`
}

// NewTodoCreated creates a TodoCreated event
func NewTodoCreated(owner string, id valueobjects.TodoID, text string, at time.Time) TodoCreated {
	return TodoCreated{
		BaseEvent: newBase(TypeTodoCreated, owner, id, at),
		Text:      text,
	}
}

// TodoTextEdited is raised when a todo's text changes
type TodoTextEdited struct {
	BaseEvent
	OldText string `json:"old_text"`
	NewText string `json:"new_text"`
}

// NewTodoTextEdited creates a TodoTextEdited event
func NewTodoTextEdited(owner string, id valueobjects.TodoID, oldText, newText string, at time.Time) TodoTextEdited {
	return TodoTextEdited{
		BaseEvent: newBase(TypeTodoTextEdited, owner, id, at),
		OldText:   oldText,
		NewText:   newText,
	}
}

// TodoCompleted is raised when a todo is marked done
type TodoCompleted struct {
	BaseEvent
	CompletedAt time.Time `json:"completed_at"`
}

// NewTodoCompleted creates a TodoCompleted event
func NewTodoCompleted(owner string, id valueobjects.TodoID, completedAt time.Time) TodoCompleted {
	return TodoCompleted{
		BaseEvent:   newBase(TypeTodoCompleted, owner, id, completedAt),
		CompletedAt: completedAt,
	}
}

// TodoReopened is raised when a completed todo returns to the active list
type TodoReopened struct {
	BaseEvent
}

// NewTodoReopened creates a TodoReopened event
func NewTodoReopened(owner string, id valueobjects.TodoID, at time.Time) TodoReopened {
	return TodoReopened{BaseEvent: newBase(TypeTodoReopened, owner, id, at)}
}

// TodoDeleted is raised when a todo and its history are removed
type TodoDeleted struct {
	BaseEvent
}

// NewTodoDeleted creates a TodoDeleted event
func NewTodoDeleted(owner string, id valueobjects.TodoID, at time.Time) TodoDeleted {
	return TodoDeleted{BaseEvent: newBase(TypeTodoDeleted, owner, id, at)}
}
