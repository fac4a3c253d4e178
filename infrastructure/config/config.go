// Package config loads service configuration from defaults, an optional
// file and environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StorageJSONFile = "jsonfile"
	StorageSupabase = "supabase"
	StorageDynamoDB = "dynamodb"
)

// Authentication modes
const (
	AuthJWT      = "jwt"
	AuthSupabase = "supabase"
	AuthNone     = "none"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Storage
	StorageBackend         string
	SQLitePath             string
	JSONStorePath          string
	SupabaseURL            string
	SupabaseServiceRoleKey string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	EventBusName  string
	IsLambda      bool

	// Logging
	LogLevel string

	// Authentication
	AuthMode    string
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	// Observability
	EnableMetrics    bool
	MetricsNamespace string
	EnableTracing    bool
	OTLPEndpoint     string
	TraceSampleRate  float64

	// HTTP
	EnableCORS         bool
	CORSAllowedOrigins []string

	// Sessions
	SessionIdleTimeout time.Duration

	// Circuit breaker around the backing store
	BreakerFailureRatio float64
	BreakerMinRequests  uint32
	BreakerOpenTimeout  time.Duration

	// LoadedFrom lists the sources applied, lowest precedence first
	LoadedFrom []string
}

// Defaults returns the configuration used when nothing else is set
func Defaults() *Config {
	return &Config{
		ServerAddress:       ":8080",
		Environment:         "development",
		StorageBackend:      StorageMemory,
		SQLitePath:          "todos.db",
		JSONStorePath:       "todos.json",
		AWSRegion:           "us-west-2",
		DynamoDBTable:       "todos",
		LogLevel:            "info",
		AuthMode:            AuthNone,
		EnableMetrics:       true,
		MetricsNamespace:    "TodoList",
		OTLPEndpoint:        "localhost:4317",
		TraceSampleRate:     1.0,
		EnableCORS:          true,
		CORSAllowedOrigins:  []string{"*"},
		SessionIdleTimeout:  30 * time.Minute,
		BreakerFailureRatio: 0.6,
		BreakerMinRequests:  5,
		BreakerOpenTimeout:  30 * time.Second,
		LoadedFrom:          []string{"defaults"},
	}
}

// LoadConfig loads configuration, reading the file named by CONFIG_FILE when set
func LoadConfig() (*Config, error) {
	return Load(os.Getenv("CONFIG_FILE"))
}

// Load applies defaults, then the file at path (if any), then environment variables
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		file, err := NewLoader().LoadFile(path)
		if err != nil {
			return nil, err
		}
		file.Apply(cfg)
		cfg.LoadedFrom = append(cfg.LoadedFrom, path)
	}

	applyEnv(cfg)
	cfg.LoadedFrom = append(cfg.LoadedFrom, "environment")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.ServerAddress = getEnv("SERVER_ADDRESS", cfg.ServerAddress)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)

	cfg.StorageBackend = getEnv("STORAGE_BACKEND", cfg.StorageBackend)
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	cfg.JSONStorePath = getEnv("JSON_STORE_PATH", cfg.JSONStorePath)
	cfg.SupabaseURL = getEnv("SUPABASE_URL", cfg.SupabaseURL)
	cfg.SupabaseServiceRoleKey = getEnv("SUPABASE_SERVICE_ROLE_KEY", cfg.SupabaseServiceRoleKey)

	cfg.AWSRegion = getEnv("AWS_REGION", cfg.AWSRegion)
	cfg.DynamoDBTable = getEnv("DYNAMODB_TABLE", cfg.DynamoDBTable)
	cfg.EventBusName = getEnv("EVENT_BUS_NAME", cfg.EventBusName)
	// the Lambda runtime always sets AWS_LAMBDA_FUNCTION_NAME
	cfg.IsLambda = getEnvBool("IS_LAMBDA", cfg.IsLambda || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "")

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.AuthMode = getEnv("AUTH_MODE", cfg.AuthMode)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = getEnv("JWT_ISSUER", cfg.JWTIssuer)
	cfg.JWTAudience = getEnv("JWT_AUDIENCE", cfg.JWTAudience)

	cfg.EnableMetrics = getEnvBool("ENABLE_METRICS", cfg.EnableMetrics)
	cfg.MetricsNamespace = getEnv("METRICS_NAMESPACE", cfg.MetricsNamespace)
	cfg.EnableTracing = getEnvBool("ENABLE_TRACING", cfg.EnableTracing)
	cfg.OTLPEndpoint = getEnv("OTLP_ENDPOINT", cfg.OTLPEndpoint)
	cfg.TraceSampleRate = getEnvFloat("TRACE_SAMPLE_RATE", cfg.TraceSampleRate)

	cfg.EnableCORS = getEnvBool("ENABLE_CORS", cfg.EnableCORS)
	cfg.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", cfg.CORSAllowedOrigins)

	cfg.SessionIdleTimeout = getEnvDuration("SESSION_IDLE_TIMEOUT", cfg.SessionIdleTimeout)

	cfg.BreakerFailureRatio = getEnvFloat("BREAKER_FAILURE_RATIO", cfg.BreakerFailureRatio)
	cfg.BreakerMinRequests = uint32(getEnvInt("BREAKER_MIN_REQUESTS", int(cfg.BreakerMinRequests)))
	cfg.BreakerOpenTimeout = getEnvDuration("BREAKER_OPEN_TIMEOUT", cfg.BreakerOpenTimeout)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	case StorageJSONFile:
		if c.JSONStorePath == "" {
			return fmt.Errorf("JSON_STORE_PATH is required for the jsonfile backend")
		}
	case StorageSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceRoleKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for the supabase backend")
		}
	case StorageDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	switch c.AuthMode {
	case AuthJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_MODE=jwt")
		}
	case AuthSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceRoleKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required when AUTH_MODE=supabase")
		}
	case AuthNone:
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE=none is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be in (0, 1]")
	}
	if c.TraceSampleRate < 0 || c.TraceSampleRate > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATE must be in [0, 1]")
	}

	return nil
}

// ZapLevel returns the configured log level
func (c *Config) ZapLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
