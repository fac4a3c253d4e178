package decorators

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"todolist-backend/application/ports"
	"todolist-backend/domain/core/entities"
	"todolist-backend/domain/core/valueobjects"
	pkgerrors "todolist-backend/pkg/errors"
)

// OperationRecorder receives one observation per repository call
type OperationRecorder interface {
	RecordDBOperation(operation, backend string, duration time.Duration, err error)
}

// InstrumentedRepository records metrics and a span for every repository call
type InstrumentedRepository struct {
	next     ports.TodoRepository
	backend  string
	recorder OperationRecorder
	tracer   trace.Tracer
}

// NewInstrumentedRepository wraps next. backend labels the metrics, e.g. "sqlite".
func NewInstrumentedRepository(next ports.TodoRepository, backend string, recorder OperationRecorder) *InstrumentedRepository {
	return &InstrumentedRepository{
		next:     next,
		backend:  backend,
		recorder: recorder,
		tracer:   otel.Tracer("todolist-backend/persistence"),
	}
}

var _ ports.TodoRepository = (*InstrumentedRepository)(nil)

func (r *InstrumentedRepository) observe(ctx context.Context, operation, owner string, fn func(ctx context.Context) error) {
	ctx, span := r.tracer.Start(ctx, "TodoRepository."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", r.backend),
			attribute.String("db.operation", operation),
			attribute.String("todo.owner", owner),
		),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	if r.recorder != nil {
		r.recorder.RecordDBOperation(operation, r.backend, time.Since(start), err)
	}

	if err != nil && !pkgerrors.IsDomainOutcome(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func (r *InstrumentedRepository) GetTodo(ctx context.Context, owner string, id valueobjects.TodoID) (todo *entities.Todo, err error) {
	r.observe(ctx, "GetTodo", owner, func(ctx context.Context) error {
		todo, err = r.next.GetTodo(ctx, owner, id)
		return err
	})
	return todo, err
}

func (r *InstrumentedRepository) GetTodoWithHistory(ctx context.Context, owner string, id valueobjects.TodoID) (todo *entities.Todo, err error) {
	r.observe(ctx, "GetTodoWithHistory", owner, func(ctx context.Context) error {
		todo, err = r.next.GetTodoWithHistory(ctx, owner, id)
		return err
	})
	return todo, err
}

func (r *InstrumentedRepository) CreateTodo(ctx context.Context, owner string, text valueobjects.TodoText) (todo *entities.Todo, err error) {
	r.observe(ctx, "CreateTodo", owner, func(ctx context.Context) error {
		todo, err = r.next.CreateTodo(ctx, owner, text)
		return err
	})
	return todo, err
}

func (r *InstrumentedRepository) UpdateTodoText(ctx context.Context, owner string, id valueobjects.TodoID, text valueobjects.TodoText) (record entities.EditRecord, err error) {
	r.observe(ctx, "UpdateTodoText", owner, func(ctx context.Context) error {
		record, err = r.next.UpdateTodoText(ctx, owner, id, text)
		return err
	})
	return record, err
}

func (r *InstrumentedRepository) MarkAsCompleted(ctx context.Context, owner string, id valueobjects.TodoID) (at time.Time, err error) {
	r.observe(ctx, "MarkAsCompleted", owner, func(ctx context.Context) error {
		at, err = r.next.MarkAsCompleted(ctx, owner, id)
		return err
	})
	return at, err
}

func (r *InstrumentedRepository) MarkAsUncompleted(ctx context.Context, owner string, id valueobjects.TodoID) (err error) {
	r.observe(ctx, "MarkAsUncompleted", owner, func(ctx context.Context) error {
		err = r.next.MarkAsUncompleted(ctx, owner, id)
		return err
	})
	return err
}

func (r *InstrumentedRepository) DeleteTodo(ctx context.Context, owner string, id valueobjects.TodoID) (err error) {
	r.observe(ctx, "DeleteTodo", owner, func(ctx context.Context) error {
		err = r.next.DeleteTodo(ctx, owner, id)
		return err
	})
	return err
}

func (r *InstrumentedRepository) FetchActiveTodos(ctx context.Context, owner string) (todos []*entities.Todo, err error) {
	r.observe(ctx, "FetchActiveTodos", owner, func(ctx context.Context) error {
		todos, err = r.next.FetchActiveTodos(ctx, owner)
		return err
	})
	return todos, err
}

func (r *InstrumentedRepository) FetchCompletedTodos(ctx context.Context, owner string) (todos []*entities.Todo, err error) {
	r.observe(ctx, "FetchCompletedTodos", owner, func(ctx context.Context) error {
		todos, err = r.next.FetchCompletedTodos(ctx, owner)
		return err
	})
	return todos, err
}

func (r *InstrumentedRepository) FetchTodos(ctx context.Context, owner string) (todos []*entities.Todo, err error) {
	r.observe(ctx, "FetchTodos", owner, func(ctx context.Context) error {
		todos, err = r.next.FetchTodos(ctx, owner)
		return err
	})
	return todos, err
}

func (r *InstrumentedRepository) FetchStats(ctx context.Context, owner string) (stats entities.Stats, err error) {
	r.observe(ctx, "FetchStats", owner, func(ctx context.Context) error {
		stats, err = r.next.FetchStats(ctx, owner)
		return err
	})
	return stats, err
}
