// Package di assembles the application from configuration.
package di

import (
	"net/http"

	"go.uber.org/zap"

	"todolist-backend/application/commands/bus"
	"todolist-backend/application/ports"
	querybus "todolist-backend/application/queries/bus"
	"todolist-backend/application/store"
	"todolist-backend/infrastructure/config"
	"todolist-backend/interfaces/http/rest"
	"todolist-backend/pkg/auth"
	"todolist-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	LogLevel      zap.AtomicLevel
	Logger        *zap.Logger
	Collector     *observability.Collector
	Metrics       MetricsRecorder
	Tracer        *observability.TracerProvider
	Repository    ports.TodoRepository
	Publisher     ports.EventPublisher
	Sessions      *store.SessionRegistry
	CommandBus    *bus.CommandBus
	QueryBus      *querybus.QueryBus
	Authenticator auth.Authenticator
}

// HTTPHandler builds the REST router over the container's buses
func (c *Container) HTTPHandler() http.Handler {
	collector := c.Collector
	if !c.Config.EnableMetrics || c.Config.IsLambda {
		collector = nil
	}

	opts := rest.Options{
		ServiceName:    "todolist-backend",
		EnableCORS:     c.Config.EnableCORS,
		AllowedOrigins: c.Config.CORSAllowedOrigins,
		EnableTracing:  c.Tracer != nil,
		Debug:          c.Config.IsDevelopment(),
	}
	if checker, ok := c.Repository.(rest.ReadinessChecker); ok {
		opts.Readiness = checker
	}

	return rest.NewRouter(c.CommandBus, c.QueryBus, c.Authenticator, collector, c.Logger, opts).Setup()
}
