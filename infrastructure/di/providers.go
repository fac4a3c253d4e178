package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"todolist-backend/application/commands/bus"
	cmdhandlers "todolist-backend/application/commands/handlers"
	"todolist-backend/application/ports"
	querybus "todolist-backend/application/queries/bus"
	queryhandlers "todolist-backend/application/queries/handlers"
	"todolist-backend/application/store"
	"todolist-backend/infrastructure/config"
	"todolist-backend/infrastructure/messaging"
	"todolist-backend/infrastructure/messaging/eventbridge"
	"todolist-backend/infrastructure/persistence/decorators"
	"todolist-backend/infrastructure/persistence/dynamodb"
	"todolist-backend/infrastructure/persistence/jsonfile"
	"todolist-backend/infrastructure/persistence/memory"
	"todolist-backend/infrastructure/persistence/postgrest"
	"todolist-backend/infrastructure/persistence/sqlite"
	"todolist-backend/pkg/auth"
	"todolist-backend/pkg/observability"
)

// MetricsRecorder receives command, query and business metrics. The
// Prometheus collector serves it on long-running servers and CloudWatch on
// Lambda.
type MetricsRecorder interface {
	bus.Recorder
	querybus.Recorder
	cmdhandlers.BusinessMetrics
}

// ProvideLogLevel creates the adjustable level shared by the logger and the
// config watcher
func ProvideLogLevel(cfg *config.Config) zap.AtomicLevel {
	return zap.NewAtomicLevelAt(cfg.ZapLevel())
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("environment", cfg.Environment)), nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideSupabaseClient creates the Supabase client, or nil when no project
// is configured
func ProvideSupabaseClient(cfg *config.Config) (*supabase.Client, error) {
	if cfg.SupabaseURL == "" {
		return nil, nil
	}
	return postgrest.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey)
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector("todolist")
}

// ProvideMetricsRecorder picks CloudWatch on Lambda and Prometheus elsewhere
func ProvideMetricsRecorder(cfg *config.Config, awsCfg aws.Config, collector *observability.Collector, logger *zap.Logger) MetricsRecorder {
	if cfg.IsLambda && cfg.EnableMetrics {
		return observability.NewCloudWatchMetrics(cfg.MetricsNamespace, awscloudwatch.NewFromConfig(awsCfg), logger)
	}
	return collector
}

// ProvideTracer installs the OTLP tracer provider when tracing is enabled
func ProvideTracer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing {
		return nil, func() {}, nil
	}

	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: "todolist-backend",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRate:  cfg.TraceSampleRate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideRepository opens the configured backing store and wraps it with
// instrumentation and a circuit breaker
func ProvideRepository(
	cfg *config.Config,
	awsCfg aws.Config,
	supabaseClient *supabase.Client,
	collector *observability.Collector,
	logger *zap.Logger,
) (ports.TodoRepository, func(), error) {
	var repo ports.TodoRepository
	cleanup := func() {}
	clock := ports.SystemClock{}

	switch cfg.StorageBackend {
	case config.StorageMemory:
		repo = memory.NewRepository(clock)
	case config.StorageSQLite:
		sqliteRepo, err := sqlite.Open(cfg.SQLitePath, clock, logger)
		if err != nil {
			return nil, nil, err
		}
		repo = sqliteRepo
		cleanup = func() {
			if err := sqliteRepo.Close(); err != nil {
				logger.Warn("Failed to close sqlite store", zap.Error(err))
			}
		}
	case config.StorageJSONFile:
		jsonRepo, err := jsonfile.Open(cfg.JSONStorePath, clock, logger)
		if err != nil {
			return nil, nil, err
		}
		repo = jsonRepo
	case config.StorageSupabase:
		if supabaseClient == nil {
			return nil, nil, fmt.Errorf("supabase storage requires SUPABASE_URL")
		}
		repo = postgrest.NewRepository(supabaseClient, clock, logger)
	case config.StorageDynamoDB:
		repo = dynamodb.NewRepository(awsdynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable, clock, logger)
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	repo = decorators.NewInstrumentedRepository(repo, cfg.StorageBackend, collector)

	breaker := decorators.DefaultCircuitBreakerConfig("todos-" + cfg.StorageBackend)
	breaker.FailureRatio = cfg.BreakerFailureRatio
	breaker.MinRequests = cfg.BreakerMinRequests
	breaker.Timeout = cfg.BreakerOpenTimeout
	repo = decorators.NewCircuitBreakerRepository(repo, breaker, logger)

	logger.Info("Backing store ready", zap.String("backend", cfg.StorageBackend))
	return repo, cleanup, nil
}

// ProvideEventPublisher publishes to EventBridge when a bus is configured and
// logs events otherwise
func ProvideEventPublisher(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return messaging.NewLoggingPublisher(logger)
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideSessionRegistry creates the per-owner session registry
func ProvideSessionRegistry(repo ports.TodoRepository, cfg *config.Config, logger *zap.Logger) *store.SessionRegistry {
	return store.NewSessionRegistry(repo, logger, cfg.SessionIdleTimeout)
}

// ProvideCommandBus creates the command bus with every todo handler registered
func ProvideCommandBus(
	sessions *store.SessionRegistry,
	publisher ports.EventPublisher,
	metrics MetricsRecorder,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(logger),
		bus.MetricsMiddleware(metrics),
	)
	if err := cmdhandlers.Register(commandBus, cmdhandlers.Deps{
		Sessions:  sessions,
		Publisher: publisher,
		Metrics:   metrics,
		Logger:    logger,
	}); err != nil {
		return nil, fmt.Errorf("failed to register command handlers: %w", err)
	}
	return commandBus, nil
}

// ProvideQueryBus creates the query bus with every todo handler registered
func ProvideQueryBus(
	sessions *store.SessionRegistry,
	repo ports.TodoRepository,
	metrics MetricsRecorder,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(
		querybus.NewLoggingMiddleware(logger),
		querybus.NewMetricsMiddleware(metrics),
	)
	if err := queryhandlers.Register(queryBus, sessions, repo, logger); err != nil {
		return nil, fmt.Errorf("failed to register query handlers: %w", err)
	}
	return queryBus, nil
}

// ProvideAuthenticator selects the authenticator for AUTH_MODE
func ProvideAuthenticator(cfg *config.Config, supabaseClient *supabase.Client) (auth.Authenticator, error) {
	switch cfg.AuthMode {
	case config.AuthJWT:
		validator, err := auth.NewJWTValidator(auth.JWTConfig{
			SecretKey: cfg.JWTSecret,
			Issuer:    cfg.JWTIssuer,
			Audience:  cfg.JWTAudience,
			Leeway:    30 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return auth.NewJWTAuthenticator(validator), nil
	case config.AuthSupabase:
		if supabaseClient == nil {
			return nil, fmt.Errorf("supabase auth requires SUPABASE_URL")
		}
		return auth.NewIntrospectionAuthenticator(auth.NewSupabaseIntrospector(supabaseClient)), nil
	case config.AuthNone:
		return auth.NewHeaderAuthenticator(), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
}
