package decorators

import (
	"context"

	"todolist-backend/application/ports"
)

// Pinger is implemented by repositories that can check their connection
type Pinger interface {
	Ping(ctx context.Context) error
}

// ping checks repo when it supports it. Stores without a connection are
// always reachable.
func ping(ctx context.Context, repo ports.TodoRepository) error {
	if p, ok := repo.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Ping goes through the breaker, so an open breaker reports unavailable
func (r *CircuitBreakerRepository) Ping(ctx context.Context) error {
	return guardErr(r, func() error { return ping(ctx, r.next) })
}

// Ping checks the wrapped repository
func (r *InstrumentedRepository) Ping(ctx context.Context) (err error) {
	r.observe(ctx, "Ping", "", func(ctx context.Context) error {
		err = ping(ctx, r.next)
		return err
	})
	return err
}
