package handlers

import (
	"context"

	"go.uber.org/zap"

	"todolist-backend/application/commands"
	"todolist-backend/application/commands/bus"
	"todolist-backend/application/ports"
	"todolist-backend/application/store"
	"todolist-backend/domain/core/entities"
	"todolist-backend/domain/events"
)

// BusinessMetrics counts successful todo lifecycle events
type BusinessMetrics interface {
	RecordTodoEvent(eventType string)
}

// EditResult is returned by the edit handler. Changed is false when the new
// text matched the current text and nothing was written.
type EditResult struct {
	Todo    *entities.Todo
	Changed bool
}

// Deps are the collaborators shared by every todo command handler
type Deps struct {
	Sessions  *store.SessionRegistry
	Publisher ports.EventPublisher
	Metrics   BusinessMetrics
	Logger    *zap.Logger
}

type base struct {
	Deps
}

// publish hands the event to the publisher. Failures are logged and never
// fail the command.
func (b base) publish(ctx context.Context, event events.DomainEvent) {
	if b.Metrics != nil {
		b.Metrics.RecordTodoEvent(event.GetEventType())
	}
	if b.Publisher == nil {
		return
	}
	if err := b.Publisher.Publish(ctx, event); err != nil {
		b.Logger.Warn("Failed to publish event",
			zap.String("event_type", event.GetEventType()),
			zap.String("todoID", event.GetAggregateID()),
			zap.String("owner", event.GetOwner()),
			zap.Error(err),
		)
	}
}

// Register wires every todo command handler into the bus
func Register(b *bus.CommandBus, deps Deps) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.AddTodoCommand{}, NewAddTodoHandler(deps)},
		{commands.EditTodoCommand{}, NewEditTodoHandler(deps)},
		{commands.CompleteTodoCommand{}, NewCompleteTodoHandler(deps)},
		{commands.UncompleteTodoCommand{}, NewUncompleteTodoHandler(deps)},
		{commands.DeleteTodoCommand{}, NewDeleteTodoHandler(deps)},
		{commands.RefreshSessionCommand{}, NewRefreshSessionHandler(deps)},
	}
	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}
