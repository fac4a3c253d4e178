package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileLoader decodes one configuration file format
type FileLoader interface {
	Load(reader io.Reader, target interface{}) error
	Extensions() []string
}

// Loader picks a FileLoader by file extension
type Loader struct {
	fileLoaders map[string]FileLoader
}

// NewLoader creates a loader for YAML, JSON and TOML files
func NewLoader() *Loader {
	l := &Loader{fileLoaders: make(map[string]FileLoader)}
	l.RegisterLoader(YAMLLoader{})
	l.RegisterLoader(JSONLoader{})
	l.RegisterLoader(TOMLLoader{})
	return l
}

// RegisterLoader registers a file loader for each of its extensions
func (l *Loader) RegisterLoader(loader FileLoader) {
	for _, ext := range loader.Extensions() {
		l.fileLoaders[ext] = loader
	}
}

// Supports reports whether path has a registered extension
func (l *Loader) Supports(path string) bool {
	_, ok := l.fileLoaders[strings.TrimPrefix(filepath.Ext(path), ".")]
	return ok
}

// LoadFile decodes the file at path
func (l *Loader) LoadFile(path string) (*File, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	loader, ok := l.fileLoaders[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported config file format %q", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var file File
	if err := loader.Load(f, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &file, nil
}

// Duration decodes "30s" style strings in every file format
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// File is the file representation of Config. Only keys present in the file
// override defaults.
type File struct {
	ServerAddress          *string   `yaml:"server_address" json:"server_address" toml:"server_address"`
	Environment            *string   `yaml:"environment" json:"environment" toml:"environment"`
	StorageBackend         *string   `yaml:"storage_backend" json:"storage_backend" toml:"storage_backend"`
	SQLitePath             *string   `yaml:"sqlite_path" json:"sqlite_path" toml:"sqlite_path"`
	JSONStorePath          *string   `yaml:"json_store_path" json:"json_store_path" toml:"json_store_path"`
	SupabaseURL            *string   `yaml:"supabase_url" json:"supabase_url" toml:"supabase_url"`
	SupabaseServiceRoleKey *string   `yaml:"supabase_service_role_key" json:"supabase_service_role_key" toml:"supabase_service_role_key"`
	AWSRegion              *string   `yaml:"aws_region" json:"aws_region" toml:"aws_region"`
	DynamoDBTable          *string   `yaml:"dynamodb_table" json:"dynamodb_table" toml:"dynamodb_table"`
	EventBusName           *string   `yaml:"event_bus_name" json:"event_bus_name" toml:"event_bus_name"`
	LogLevel               *string   `yaml:"log_level" json:"log_level" toml:"log_level"`
	AuthMode               *string   `yaml:"auth_mode" json:"auth_mode" toml:"auth_mode"`
	JWTSecret              *string   `yaml:"jwt_secret" json:"jwt_secret" toml:"jwt_secret"`
	JWTIssuer              *string   `yaml:"jwt_issuer" json:"jwt_issuer" toml:"jwt_issuer"`
	JWTAudience            *string   `yaml:"jwt_audience" json:"jwt_audience" toml:"jwt_audience"`
	EnableMetrics          *bool     `yaml:"enable_metrics" json:"enable_metrics" toml:"enable_metrics"`
	MetricsNamespace       *string   `yaml:"metrics_namespace" json:"metrics_namespace" toml:"metrics_namespace"`
	EnableTracing          *bool     `yaml:"enable_tracing" json:"enable_tracing" toml:"enable_tracing"`
	OTLPEndpoint           *string   `yaml:"otlp_endpoint" json:"otlp_endpoint" toml:"otlp_endpoint"`
	TraceSampleRate        *float64  `yaml:"trace_sample_rate" json:"trace_sample_rate" toml:"trace_sample_rate"`
	EnableCORS             *bool     `yaml:"enable_cors" json:"enable_cors" toml:"enable_cors"`
	CORSAllowedOrigins     []string  `yaml:"cors_allowed_origins" json:"cors_allowed_origins" toml:"cors_allowed_origins"`
	SessionIdleTimeout     *Duration `yaml:"session_idle_timeout" json:"session_idle_timeout" toml:"session_idle_timeout"`
	BreakerFailureRatio    *float64  `yaml:"breaker_failure_ratio" json:"breaker_failure_ratio" toml:"breaker_failure_ratio"`
	BreakerMinRequests     *uint32   `yaml:"breaker_min_requests" json:"breaker_min_requests" toml:"breaker_min_requests"`
	BreakerOpenTimeout     *Duration `yaml:"breaker_open_timeout" json:"breaker_open_timeout" toml:"breaker_open_timeout"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Apply overlays the keys present in the file onto cfg
func (f *File) Apply(cfg *Config) {
	set(&cfg.ServerAddress, f.ServerAddress)
	set(&cfg.Environment, f.Environment)
	set(&cfg.StorageBackend, f.StorageBackend)
	set(&cfg.SQLitePath, f.SQLitePath)
	set(&cfg.JSONStorePath, f.JSONStorePath)
	set(&cfg.SupabaseURL, f.SupabaseURL)
	set(&cfg.SupabaseServiceRoleKey, f.SupabaseServiceRoleKey)
	set(&cfg.AWSRegion, f.AWSRegion)
	set(&cfg.DynamoDBTable, f.DynamoDBTable)
	set(&cfg.EventBusName, f.EventBusName)
	set(&cfg.LogLevel, f.LogLevel)
	set(&cfg.AuthMode, f.AuthMode)
	set(&cfg.JWTSecret, f.JWTSecret)
	set(&cfg.JWTIssuer, f.JWTIssuer)
	set(&cfg.JWTAudience, f.JWTAudience)
	set(&cfg.EnableMetrics, f.EnableMetrics)
	set(&cfg.MetricsNamespace, f.MetricsNamespace)
	set(&cfg.EnableTracing, f.EnableTracing)
	set(&cfg.OTLPEndpoint, f.OTLPEndpoint)
	set(&cfg.TraceSampleRate, f.TraceSampleRate)
	set(&cfg.EnableCORS, f.EnableCORS)
	set(&cfg.BreakerFailureRatio, f.BreakerFailureRatio)
	set(&cfg.BreakerMinRequests, f.BreakerMinRequests)

	if f.CORSAllowedOrigins != nil {
		cfg.CORSAllowedOrigins = f.CORSAllowedOrigins
	}
	if f.SessionIdleTimeout != nil {
		cfg.SessionIdleTimeout = f.SessionIdleTimeout.Duration
	}
	if f.BreakerOpenTimeout != nil {
		cfg.BreakerOpenTimeout = f.BreakerOpenTimeout.Duration
	}
}

// YAMLLoader loads configuration from YAML files
type YAMLLoader struct{}

func (YAMLLoader) Load(reader io.Reader, target interface{}) error {
	return yaml.NewDecoder(reader).Decode(target)
}

func (YAMLLoader) Extensions() []string { return []string{"yaml", "yml"} }

// JSONLoader loads configuration from JSON files
type JSONLoader struct{}

func (JSONLoader) Load(reader io.Reader, target interface{}) error {
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func (JSONLoader) Extensions() []string { return []string{"json"} }

// TOMLLoader loads configuration from TOML files
type TOMLLoader struct{}

func (TOMLLoader) Load(reader io.Reader, target interface{}) error {
	_, err := toml.NewDecoder(reader).Decode(target)
	return err
}

func (TOMLLoader) Extensions() []string { return []string{"toml"} }
