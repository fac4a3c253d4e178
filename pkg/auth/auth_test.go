package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func TestJWTValidator(t *testing.T) {
	cfg := JWTConfig{SecretKey: testSecret, Issuer: "supabase", Audience: "authenticated"}
	validator, err := NewJWTValidator(cfg)
	require.NoError(t, err)

	t.Run("Should accept a token it generated", func(t *testing.T) {
		gen, err := NewJWTGenerator(cfg, time.Hour)
		require.NoError(t, err)
		token, err := gen.GenerateToken("user-1", "a@example.com")
		require.NoError(t, err)

		claims, err := validator.ValidateToken(token)

		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
		assert.Equal(t, "a@example.com", claims.Email)
	})

	t.Run("Should reject expired tokens", func(t *testing.T) {
		gen, err := NewJWTGenerator(cfg, -time.Hour)
		require.NoError(t, err)
		token, err := gen.GenerateToken("user-1", "")
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)

		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Should reject a different secret", func(t *testing.T) {
		gen, err := NewJWTGenerator(JWTConfig{SecretKey: "another-secret", Issuer: "supabase", Audience: "authenticated"}, time.Hour)
		require.NoError(t, err)
		token, err := gen.GenerateToken("user-1", "")
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)

		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("Should reject the wrong issuer", func(t *testing.T) {
		gen, err := NewJWTGenerator(JWTConfig{SecretKey: testSecret, Issuer: "someone-else", Audience: "authenticated"}, time.Hour)
		require.NoError(t, err)
		token, err := gen.GenerateToken("user-1", "")
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)

		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Should reject an empty token", func(t *testing.T) {
		_, err := validator.ValidateToken("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})
}

func TestNewJWTValidator_RequiresSecret(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{})
	assert.Error(t, err)
}

type stubIntrospector struct {
	user *UserContext
	err  error
	got  string
}

func (s *stubIntrospector) Introspect(ctx context.Context, token string) (*UserContext, error) {
	s.got = token
	return s.user, s.err
}

func TestAuthenticators(t *testing.T) {
	t.Run("Should read the bearer token for introspection", func(t *testing.T) {
		stub := &stubIntrospector{user: &UserContext{UserID: "user-9"}}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer abc.def.ghi")

		user, err := NewIntrospectionAuthenticator(stub).Authenticate(req)

		require.NoError(t, err)
		assert.Equal(t, "user-9", user.UserID)
		assert.Equal(t, "abc.def.ghi", stub.got)
	})

	t.Run("Should fail introspection without a token", func(t *testing.T) {
		stub := &stubIntrospector{err: errors.New("unused")}
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		_, err := NewIntrospectionAuthenticator(stub).Authenticate(req)

		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("Should default the header owner", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		user, err := NewHeaderAuthenticator().Authenticate(req)

		require.NoError(t, err)
		assert.Equal(t, DefaultOwner, user.UserID)
	})

	t.Run("Should use the header owner", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-ID", "alice")

		user, err := NewHeaderAuthenticator().Authenticate(req)

		require.NoError(t, err)
		assert.Equal(t, "alice", user.UserID)
	})
}

func TestUserContext(t *testing.T) {
	_, err := GetUserFromContext(context.Background())
	assert.Error(t, err)

	ctx := SetUserInContext(context.Background(), &UserContext{UserID: "u"})
	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u", user.UserID)
}
