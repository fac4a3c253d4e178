package dynamodb

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"todolist-backend/infrastructure/persistence/abstractions"
)

const (
	entityTodo = "TODO"
	entityEdit = "EDIT"

	// timeLayout is fixed width so sort keys built from it order correctly
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

func userPK(owner string) string {
	return fmt.Sprintf("USER#%s", owner)
}

func todoSK(id string) string {
	return fmt.Sprintf("TODO#%s", id)
}

func editSK(todoID string, editedAt time.Time, editID string) string {
	return fmt.Sprintf("TODO#%s#EDIT#%s#%s", todoID, formatTime(editedAt), editID)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// todoItem is the DynamoDB item for a todo
type todoItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	TodoID      string `dynamodbav:"TodoID"`
	Owner       string `dynamodbav:"Owner"`
	Text        string `dynamodbav:"Text"`
	Completed   bool   `dynamodbav:"Completed"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
	CompletedAt string `dynamodbav:"CompletedAt,omitempty"`
}

// editItem is the DynamoDB item for one edit_history entry. Its sort key
// shares the todo's prefix so a single query returns a todo with its history.
type editItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	EditID     string `dynamodbav:"EditID"`
	TodoID     string `dynamodbav:"TodoID"`
	Text       string `dynamodbav:"Text"`
	EditedAt   string `dynamodbav:"EditedAt"`
}

func newTodoItem(row abstractions.TodoRow) todoItem {
	item := todoItem{
		PK:         userPK(row.Owner),
		SK:         todoSK(row.ID),
		EntityType: entityTodo,
		TodoID:     row.ID,
		Owner:      row.Owner,
		Text:       row.Text,
		Completed:  row.Completed,
		CreatedAt:  formatTime(row.CreatedAt),
	}
	if row.CompletedAt != nil {
		item.CompletedAt = formatTime(*row.CompletedAt)
	}
	return item
}

func (i todoItem) row() (abstractions.TodoRow, error) {
	createdAt, err := parseTime(i.CreatedAt)
	if err != nil {
		return abstractions.TodoRow{}, err
	}
	row := abstractions.TodoRow{
		ID:        i.TodoID,
		Owner:     i.Owner,
		Text:      i.Text,
		Completed: i.Completed,
		CreatedAt: createdAt,
	}
	if i.CompletedAt != "" {
		at, err := parseTime(i.CompletedAt)
		if err != nil {
			return abstractions.TodoRow{}, err
		}
		row.CompletedAt = &at
	}
	return row, nil
}

func newEditItem(owner string, h abstractions.HistoryRow) editItem {
	return editItem{
		PK:         userPK(owner),
		SK:         editSK(h.TodoID, h.EditedAt, h.ID),
		EntityType: entityEdit,
		EditID:     h.ID,
		TodoID:     h.TodoID,
		Text:       h.Text,
		EditedAt:   formatTime(h.EditedAt),
	}
}

func (i editItem) row() (abstractions.HistoryRow, error) {
	at, err := parseTime(i.EditedAt)
	if err != nil {
		return abstractions.HistoryRow{}, err
	}
	return abstractions.HistoryRow{ID: i.EditID, TodoID: i.TodoID, Text: i.Text, EditedAt: at}, nil
}

// splitItems separates todo and edit items returned by a query
func splitItems(items []map[string]types.AttributeValue) ([]abstractions.TodoRow, []abstractions.HistoryRow, error) {
	var (
		todos   []abstractions.TodoRow
		history []abstractions.HistoryRow
	)
	for _, raw := range items {
		var kind struct {
			EntityType string `dynamodbav:"EntityType"`
		}
		if err := attributevalue.UnmarshalMap(raw, &kind); err != nil {
			return nil, nil, err
		}

		switch kind.EntityType {
		case entityTodo:
			var item todoItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, nil, err
			}
			row, err := item.row()
			if err != nil {
				return nil, nil, err
			}
			todos = append(todos, row)
		case entityEdit:
			var item editItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, nil, err
			}
			row, err := item.row()
			if err != nil {
				return nil, nil, err
			}
			history = append(history, row)
		}
	}
	return todos, history, nil
}
