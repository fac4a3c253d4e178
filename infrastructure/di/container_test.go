package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todolist-backend/infrastructure/config"
	"todolist-backend/infrastructure/persistence/decorators"
	"todolist-backend/pkg/auth"
	"todolist-backend/pkg/observability"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Environment = "test"
	cfg.StorageBackend = config.StorageSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "todos.db")
	return cfg
}

func TestInitializeContainer(t *testing.T) {
	// Arrange
	cfg := testConfig(t)

	// Act
	container, cleanup, err := InitializeContainer(context.Background(), cfg)

	// Assert
	require.NoError(t, err)
	t.Cleanup(cleanup)
	assert.Nil(t, container.Tracer)
	assert.IsType(t, &decorators.CircuitBreakerRepository{}, container.Repository)
	assert.IsType(t, &auth.HeaderAuthenticator{}, container.Authenticator)
	assert.IsType(t, &observability.Collector{}, container.Metrics)

	t.Run("Should serve the API over the configured store", func(t *testing.T) {
		handler := container.HTTPHandler()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/todos", strings.NewReader(`{"text":"Buy milk"}`))
		req.Header.Set("X-User-ID", "alice")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)

		w = httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should adjust the log level at runtime", func(t *testing.T) {
		container.LogLevel.SetLevel(zap.DebugLevel)
		assert.True(t, container.Logger.Core().Enabled(zap.DebugLevel))
	})
}

func TestProvideRepository_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageBackend = "cassandra"

	_, _, err := ProvideRepository(cfg, awsConfigForTest(), nil, observability.NewCollector("test"), zap.NewNop())

	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestProvideRepository_SupabaseNeedsClient(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageBackend = config.StorageSupabase

	_, _, err := ProvideRepository(cfg, awsConfigForTest(), nil, observability.NewCollector("test"), zap.NewNop())

	assert.Error(t, err)
}

func TestProvideAuthenticator(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		want    interface{}
		wantErr bool
	}{
		{"none", func(c *config.Config) { c.AuthMode = config.AuthNone }, &auth.HeaderAuthenticator{}, false},
		{"jwt", func(c *config.Config) { c.AuthMode = config.AuthJWT; c.JWTSecret = "secret" }, &auth.JWTAuthenticator{}, false},
		{"jwt without secret", func(c *config.Config) { c.AuthMode = config.AuthJWT }, nil, true},
		{"supabase without client", func(c *config.Config) { c.AuthMode = config.AuthSupabase }, nil, true},
		{"unknown", func(c *config.Config) { c.AuthMode = "ldap" }, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			tt.mutate(cfg)

			got, err := ProvideAuthenticator(cfg, nil)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestProvideEventPublisher(t *testing.T) {
	cfg := config.Defaults()

	publisher := ProvideEventPublisher(cfg, awsConfigForTest(), zap.NewNop())

	assert.NotNil(t, publisher)
}

func awsConfigForTest() aws.Config {
	return aws.Config{Region: "us-west-2"}
}
