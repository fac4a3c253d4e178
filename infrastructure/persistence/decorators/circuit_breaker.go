package decorators

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"todolist-backend/application/ports"
	"todolist-backend/domain/core/entities"
	"todolist-backend/domain/core/valueobjects"
	pkgerrors "todolist-backend/pkg/errors"
)

// CircuitBreakerConfig holds configuration for the repository breaker
type CircuitBreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureRatio and MinRequests decide when the breaker trips
	FailureRatio float64
	MinRequests  uint32
}

// DefaultCircuitBreakerConfig returns a default configuration for the breaker
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  5,
		Interval:     30 * time.Second,
		Timeout:      60 * time.Second,
		FailureRatio: 0.8,
		MinRequests:  5,
	}
}

// CircuitBreakerRepository stops calling a failing backing store. Only
// infrastructure failures count against it; not found, noop, validation and
// conflict outcomes are successes.
type CircuitBreakerRepository struct {
	next   ports.TodoRepository
	cb     *gobreaker.CircuitBreaker
	name   string
	logger *zap.Logger
}

// NewCircuitBreakerRepository wraps next with a breaker
func NewCircuitBreakerRepository(next ports.TodoRepository, config CircuitBreakerConfig, logger *zap.Logger) *CircuitBreakerRepository {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Only trip if we have enough requests to make a decision
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || pkgerrors.IsDomainOutcome(err)
		},
	})

	return &CircuitBreakerRepository{next: next, cb: cb, name: config.Name, logger: logger}
}

var _ ports.TodoRepository = (*CircuitBreakerRepository)(nil)

// State reports the breaker state
func (r *CircuitBreakerRepository) State() gobreaker.State {
	return r.cb.State()
}

func guard[T any](r *CircuitBreakerRepository, fn func() (T, error)) (T, error) {
	result, err := r.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, pkgerrors.NewUnavailableError(r.name).WithCause(err)
		}
		if result == nil {
			return zero, err
		}
		return result.(T), err
	}
	return result.(T), nil
}

func guardErr(r *CircuitBreakerRepository, fn func() error) error {
	_, err := guard(r, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func (r *CircuitBreakerRepository) GetTodo(ctx context.Context, owner string, id valueobjects.TodoID) (*entities.Todo, error) {
	return guard(r, func() (*entities.Todo, error) { return r.next.GetTodo(ctx, owner, id) })
}

func (r *CircuitBreakerRepository) GetTodoWithHistory(ctx context.Context, owner string, id valueobjects.TodoID) (*entities.Todo, error) {
	return guard(r, func() (*entities.Todo, error) { return r.next.GetTodoWithHistory(ctx, owner, id) })
}

func (r *CircuitBreakerRepository) CreateTodo(ctx context.Context, owner string, text valueobjects.TodoText) (*entities.Todo, error) {
	return guard(r, func() (*entities.Todo, error) { return r.next.CreateTodo(ctx, owner, text) })
}

func (r *CircuitBreakerRepository) UpdateTodoText(ctx context.Context, owner string, id valueobjects.TodoID, text valueobjects.TodoText) (entities.EditRecord, error) {
	return guard(r, func() (entities.EditRecord, error) { return r.next.UpdateTodoText(ctx, owner, id, text) })
}

func (r *CircuitBreakerRepository) MarkAsCompleted(ctx context.Context, owner string, id valueobjects.TodoID) (time.Time, error) {
	return guard(r, func() (time.Time, error) { return r.next.MarkAsCompleted(ctx, owner, id) })
}

func (r *CircuitBreakerRepository) MarkAsUncompleted(ctx context.Context, owner string, id valueobjects.TodoID) error {
	return guardErr(r, func() error { return r.next.MarkAsUncompleted(ctx, owner, id) })
}

func (r *CircuitBreakerRepository) DeleteTodo(ctx context.Context, owner string, id valueobjects.TodoID) error {
	return guardErr(r, func() error { return r.next.DeleteTodo(ctx, owner, id) })
}

func (r *CircuitBreakerRepository) FetchActiveTodos(ctx context.Context, owner string) ([]*entities.Todo, error) {
	return guard(r, func() ([]*entities.Todo, error) { return r.next.FetchActiveTodos(ctx, owner) })
}

func (r *CircuitBreakerRepository) FetchCompletedTodos(ctx context.Context, owner string) ([]*entities.Todo, error) {
	return guard(r, func() ([]*entities.Todo, error) { return r.next.FetchCompletedTodos(ctx, owner) })
}

func (r *CircuitBreakerRepository) FetchTodos(ctx context.Context, owner string) ([]*entities.Todo, error) {
	return guard(r, func() ([]*entities.Todo, error) { return r.next.FetchTodos(ctx, owner) })
}

func (r *CircuitBreakerRepository) FetchStats(ctx context.Context, owner string) (entities.Stats, error) {
	return guard(r, func() (entities.Stats, error) { return r.next.FetchStats(ctx, owner) })
}
