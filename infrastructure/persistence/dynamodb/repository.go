// Package dynamodb implements the todo repository on a single DynamoDB table.
//
// Layout:
//
//	PK=USER#<owner>  SK=TODO#<id>                       todo
//	PK=USER#<owner>  SK=TODO#<id>#EDIT#<editedAt>#<uuid> edit_history entry
package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"todolist-backend/application/ports"
	"todolist-backend/domain/core/entities"
	"todolist-backend/domain/core/valueobjects"
	"todolist-backend/infrastructure/persistence/abstractions"
	pkgerrors "todolist-backend/pkg/errors"
)

// batchLimit is the DynamoDB limit of items per BatchWriteItem call
const batchLimit = 25

// API is the subset of the DynamoDB client the repository needs
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// Repository implements ports.TodoRepository using DynamoDB
type Repository struct {
	client    API
	tableName string
	clock     ports.Clock
	logger    *zap.Logger
}

var _ ports.TodoRepository = (*Repository)(nil)

// NewRepository creates a new Repository
func NewRepository(client API, tableName string, clock ports.Clock, logger *zap.Logger) *Repository {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Repository{
		client:    client,
		tableName: tableName,
		clock:     clock,
		logger:    logger,
	}
}

func (r *Repository) key(owner, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: userPK(owner)},
		"SK": &types.AttributeValueMemberS{Value: todoSK(id)},
	}
}

func (r *Repository) fail(op string, err error) error {
	classified := classify(op, err)
	if pkgerrors.IsPersistence(classified) || pkgerrors.IsUnavailable(classified) {
		r.logger.Error("DynamoDB operation failed",
			zap.String("operation", op),
			zap.String("table", r.tableName),
			zap.Error(err),
		)
	}
	return classified
}

func (r *Repository) getItem(ctx context.Context, owner string, id valueobjects.TodoID) (todoItem, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            r.key(owner, id.String()),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return todoItem{}, r.fail("get todo", err)
	}
	if result.Item == nil {
		return todoItem{}, pkgerrors.NewNotFoundError("todo")
	}

	var item todoItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return todoItem{}, pkgerrors.NewPersistenceError("unmarshal todo", err)
	}
	return item, nil
}

func (r *Repository) GetTodo(ctx context.Context, owner string, id valueobjects.TodoID) (*entities.Todo, error) {
	item, err := r.getItem(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	row, err := item.row()
	if err != nil {
		return nil, pkgerrors.NewPersistenceError("decode todo", err)
	}
	return row.ToEntity(nil)
}

// query returns every item under the owner whose sort key starts with prefix
func (r *Repository) query(ctx context.Context, op, owner, prefix string) ([]map[string]types.AttributeValue, error) {
	keyExpr := expression.Key("PK").Equal(expression.Value(userPK(owner))).
		And(expression.Key("SK").BeginsWith(prefix))

	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
	if err != nil {
		return nil, pkgerrors.NewPersistenceError("build expression", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
	}

	var items []map[string]types.AttributeValue
	for {
		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, r.fail(op, err)
		}
		items = append(items, result.Items...)

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	return items, nil
}

func (r *Repository) GetTodoWithHistory(ctx context.Context, owner string, id valueobjects.TodoID) (*entities.Todo, error) {
	items, err := r.query(ctx, "get todo with history", owner, todoSK(id.String()))
	if err != nil {
		return nil, err
	}
	rows, history, err := splitItems(items)
	if err != nil {
		return nil, pkgerrors.NewPersistenceError("decode todo", err)
	}
	if len(rows) == 0 {
		return nil, pkgerrors.NewNotFoundError("todo")
	}
	todos, err := abstractions.AttachHistory(rows[:1], history)
	if err != nil {
		return nil, err
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

	av, err := attributevalue.MarshalMap(newTodoItem(row))
	if err != nil {
		return nil, pkgerrors.NewPersistenceError("marshal todo", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeNotExists()).
		Build()
	if err != nil {
		return nil, pkgerrors.NewPersistenceError("build expression", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, r.fail("create todo", err)
	}

	r.logger.Debug("Todo created",
		zap.String("todoID", row.ID),
		zap.String("owner", owner),
	)
	return row.ToEntity(nil)
}

// UpdateTodoText writes the history item and the new text in one
// transaction. The update is conditioned on the text read beforehand so a
// concurrent edit cancels the transaction instead of losing a history entry.
func (r *Repository) UpdateTodoText(ctx context.Context, owner string, id valueobjects.TodoID, text valueobjects.TodoText) (entities.EditRecord, error) {
	current, err := r.getItem(ctx, owner, id)
	if err != nil {
		return entities.EditRecord{}, err
	}
	if current.Text == text.String() {
		return entities.EditRecord{}, pkgerrors.NewNoopError("text unchanged")
	}

	entry := abstractions.HistoryRow{
		ID:       uuid.New().String(),
		TodoID:   current.TodoID,
		Text:     current.Text,
		EditedAt: r.clock.Now().UTC(),
	}
	editAV, err := attributevalue.MarshalMap(newEditItem(owner, entry))
	if err != nil {
		return entities.EditRecord{}, pkgerrors.NewPersistenceError("marshal edit", err)
	}

	update := expression.Set(expression.Name("Text"), expression.Value(text.String()))
	condition := expression.Name("Text").Equal(expression.Value(current.Text))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(condition).Build()
	if err != nil {
		return entities.EditRecord{}, pkgerrors.NewPersistenceError("build expression", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName: aws.String(r.tableName),
					Item:      editAV,
				},
			},
			{
				Update: &types.Update{
					TableName:                 aws.String(r.tableName),
					Key:                       r.key(owner, id.String()),
					UpdateExpression:          expr.Update(),
					ConditionExpression:       expr.Condition(),
					ExpressionAttributeNames:  expr.Names(),
					ExpressionAttributeValues: expr.Values(),
				},
			},
		},
	})
	if err != nil {
		return entities.EditRecord{}, r.fail("update todo text", err)
	}

	return entry.Record(), nil
}

// updateExisting applies update to the todo, failing with NOT_FOUND when it does not exist
func (r *Repository) updateExisting(ctx context.Context, op, owner string, id valueobjects.TodoID, update expression.UpdateBuilder) error {
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.Name("PK").AttributeExists()).
		Build()
	if err != nil {
		return pkgerrors.NewPersistenceError("build expression", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       r.key(owner, id.String()),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return r.fail(op, err)
	}
	return nil
}

func (r *Repository) MarkAsCompleted(ctx context.Context, owner string, id valueobjects.TodoID) (time.Time, error) {
	now := r.clock.Now().UTC()
	update := expression.Set(expression.Name("Completed"), expression.Value(true)).
		Set(expression.Name("CompletedAt"), expression.Value(formatTime(now)))

	if err := r.updateExisting(ctx, "mark completed", owner, id, update); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

func (r *Repository) MarkAsUncompleted(ctx context.Context, owner string, id valueobjects.TodoID) error {
	update := expression.Set(expression.Name("Completed"), expression.Value(false)).
		Remove(expression.Name("CompletedAt"))

	return r.updateExisting(ctx, "mark uncompleted", owner, id, update)
}

// DeleteTodo removes the todo item and every edit item sharing its key prefix.
// Edit items go first and the todo item last, so a failed batch leaves the
// todo in place and a retry finishes the cascade.
func (r *Repository) DeleteTodo(ctx context.Context, owner string, id valueobjects.TodoID) error {
	items, err := r.query(ctx, "delete todo", owner, todoSK(id.String()))
	if err != nil {
		return err
	}
	rows, _, err := splitItems(items)
	if err != nil {
		return pkgerrors.NewPersistenceError("decode todo", err)
	}

	requests := make([]types.WriteRequest, 0, len(items))
	var todoRequest *types.WriteRequest
	for _, item := range items {
		req := types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: map[string]types.AttributeValue{"PK": item["PK"], "SK": item["SK"]},
			},
		}
		if sk, ok := item["SK"].(*types.AttributeValueMemberS); ok && sk.Value == todoSK(id.String()) {
			todoRequest = &req
			continue
		}
		requests = append(requests, req)
	}
	if todoRequest != nil {
		requests = append(requests, *todoRequest)
	}

	if err := r.batchDelete(ctx, requests); err != nil {
		return err
	}

	if len(rows) == 0 {
		if len(requests) > 0 {
			r.logger.Warn("Removed orphaned edit items",
				zap.String("todoID", id.String()),
				zap.String("owner", owner),
				zap.Int("count", len(requests)),
			)
		}
		return pkgerrors.NewNotFoundError("todo")
	}

	r.logger.Debug("Todo deleted",
		zap.String("todoID", id.String()),
		zap.String("owner", owner),
		zap.Int("historyItems", len(items)-1),
	)
	return nil
}

func (r *Repository) batchDelete(ctx context.Context, requests []types.WriteRequest) error {
	for i := 0; i < len(requests); i += batchLimit {
		end := min(i+batchLimit, len(requests))

		result, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				r.tableName: requests[i:end],
			},
		})
		if err != nil {
			return r.fail("delete todo", err)
		}
		if n := len(result.UnprocessedItems[r.tableName]); n > 0 {
			return r.fail("delete todo", fmt.Errorf("%d items left unprocessed", n))
		}
	}
	return nil
}

func (r *Repository) fetch(ctx context.Context, op, owner string, partition abstractions.Partition) ([]*entities.Todo, error) {
	items, err := r.query(ctx, op, owner, "TODO#")
	if err != nil {
		return nil, err
	}
	rows, history, err := splitItems(items)
	if err != nil {
		return nil, pkgerrors.NewPersistenceError("decode todos", err)
	}

	selected := rows[:0]
	for _, row := range rows {
		if partition.Matches(row.Completed) {
			selected = append(selected, row)
		}
	}

	todos, err := abstractions.AttachHistory(selected, history)
	if err != nil {
		return nil, err
	}
	partition.Order(todos)
	return todos, nil
}

func (r *Repository) FetchActiveTodos(ctx context.Context, owner string) ([]*entities.Todo, error) {
	return r.fetch(ctx, "fetch active todos", owner, abstractions.PartitionActive)
}

func (r *Repository) FetchCompletedTodos(ctx context.Context, owner string) ([]*entities.Todo, error) {
	return r.fetch(ctx, "fetch completed todos", owner, abstractions.PartitionCompleted)
}

func (r *Repository) FetchTodos(ctx context.Context, owner string) ([]*entities.Todo, error) {
	return r.fetch(ctx, "fetch todos", owner, abstractions.PartitionAll)
}

func (r *Repository) FetchStats(ctx context.Context, owner string) (entities.Stats, error) {
	items, err := r.query(ctx, "fetch stats", owner, "TODO#")
	if err != nil {
		return entities.Stats{}, err
	}
	rows, _, err := splitItems(items)
	if err != nil {
		return entities.Stats{}, pkgerrors.NewPersistenceError("decode todos", err)
	}
	return abstractions.CountStats(rows), nil
}
