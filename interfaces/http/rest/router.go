// Package rest exposes the todo application over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"todolist-backend/application/commands/bus"
	querybus "todolist-backend/application/queries/bus"
	"todolist-backend/interfaces/http/rest/handlers"
	"todolist-backend/interfaces/http/rest/middleware"
	"todolist-backend/pkg/api"
	"todolist-backend/pkg/auth"
	pkgerrors "todolist-backend/pkg/errors"
	"todolist-backend/pkg/observability"
)

// ReadinessChecker reports whether the backing store can serve requests
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

// Options tunes the router
type Options struct {
	ServiceName    string
	EnableCORS     bool
	AllowedOrigins []string
	EnableTracing  bool
	Debug          bool
	Readiness      ReadinessChecker
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus    *bus.CommandBus
	queryBus      *querybus.QueryBus
	authenticator auth.Authenticator
	collector     *observability.Collector
	logger        *zap.Logger
	opts          Options
}

// NewRouter creates a new router instance. collector may be nil when
// metrics are disabled.
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	authenticator auth.Authenticator,
	collector *observability.Collector,
	logger *zap.Logger,
	opts Options,
) *Router {
	if opts.ServiceName == "" {
		opts.ServiceName = "todolist-backend"
	}
	return &Router{
		commandBus:    commandBus,
		queryBus:      queryBus,
		authenticator: authenticator,
		collector:     collector,
		logger:        logger,
		opts:          opts,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()
	errorHandler := pkgerrors.NewErrorHandler(rt.logger, rt.opts.Debug)

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.collector != nil {
		router.Use(middleware.Metrics(rt.collector))
	}
	if rt.opts.EnableTracing {
		router.Use(middleware.Tracing(rt.opts.ServiceName))
	}

	if rt.opts.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-User-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Location"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.collector != nil {
		router.Handle("/metrics", rt.collector.Handler())
	}

	if err := api.Register(""); err != nil {
		rt.logger.Warn("Failed to register swagger document", zap.Error(err))
	}
	router.Get("/swagger/doc.json", api.DocHandler())
	router.Get("/swagger/spec", api.SwaggerHandler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.authenticator, errorHandler, rt.logger))

		todoHandler := handlers.NewTodoHandler(rt.commandBus, rt.queryBus, errorHandler, rt.logger)
		r.Route("/todos", func(r chi.Router) {
			r.Get("/", todoHandler.ListTodos)
			r.Post("/", todoHandler.CreateTodo)
			r.Get("/{todoID}", todoHandler.GetTodo)
			r.Put("/{todoID}", todoHandler.UpdateTodo)
			r.Delete("/{todoID}", todoHandler.DeleteTodo)
			r.Get("/{todoID}/history", todoHandler.GetHistory)
			r.Post("/{todoID}/complete", todoHandler.CompleteTodo)
			r.Post("/{todoID}/uncomplete", todoHandler.UncompleteTodo)
		})
		r.Get("/stats", todoHandler.GetStats)
		r.Post("/session/refresh", todoHandler.RefreshSession)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	rt.respondStatus(w, http.StatusOK, "healthy", "")
}

// readinessCheck pings the backing store when one is configured
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.opts.Readiness != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := rt.opts.Readiness.Ping(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			rt.respondStatus(w, http.StatusServiceUnavailable, "unavailable", err.Error())
			return
		}
	}
	rt.respondStatus(w, http.StatusOK, "ready", "")
}

func (rt *Router) respondStatus(w http.ResponseWriter, code int, status, detail string) {
	body := map[string]string{"status": status}
	if detail != "" {
		body["error"] = detail
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
