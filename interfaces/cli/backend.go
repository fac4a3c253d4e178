package cli

import (
	"context"

	"todolist-backend/application/commands/bus"
	querybus "todolist-backend/application/queries/bus"
	"todolist-backend/infrastructure/config"
	"todolist-backend/infrastructure/di"
)

// Backend is what a todoctl command talks to
type Backend struct {
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Close      func()
}

// BackendFactory opens a backend for one command invocation
type BackendFactory func(ctx context.Context, opts *RootOptions) (*Backend, error)

// DefaultBackend wires the same container the API server uses. Memory
// storage does not survive the process, so todoctl reads and writes the JSON
// file store instead.
func DefaultBackend(ctx context.Context, opts *RootOptions) (*Backend, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "failed to load config", Err: err}
	}
	if cfg.StorageBackend == config.StorageMemory {
		cfg.StorageBackend = config.StorageJSONFile
	}
	cfg.EnableTracing = false
	cfg.IsLambda = false
	if !opts.Verbose {
		cfg.LogLevel = "error"
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "failed to open todo store", Err: err}
	}

	return &Backend{
		CommandBus: container.CommandBus,
		QueryBus:   container.QueryBus,
		Close: func() {
			_ = container.Logger.Sync()
			cleanup()
		},
	}, nil
}
