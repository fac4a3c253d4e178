package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/supabase-community/supabase-go"
)

// Authenticator resolves the caller of an HTTP request
type Authenticator interface {
	Authenticate(r *http.Request) (*UserContext, error)
}

// ExtractToken returns the bearer token from the Authorization header
func ExtractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// JWTAuthenticator validates tokens locally with the project's JWT secret
type JWTAuthenticator struct {
	validator *JWTValidator
}

// NewJWTAuthenticator creates a JWT authenticator
func NewJWTAuthenticator(validator *JWTValidator) *JWTAuthenticator {
	return &JWTAuthenticator{validator: validator}
}

func (a *JWTAuthenticator) Authenticate(r *http.Request) (*UserContext, error) {
	token := ExtractToken(r)
	if token == "" {
		return nil, ErrMissingToken
	}
	claims, err := a.validator.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &UserContext{UserID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

// TokenIntrospector asks the identity provider who a token belongs to
type TokenIntrospector interface {
	Introspect(ctx context.Context, token string) (*UserContext, error)
}

// SupabaseIntrospector resolves tokens through the Supabase Auth API
type SupabaseIntrospector struct {
	client *supabase.Client
}

// NewSupabaseIntrospector wraps a Supabase client
func NewSupabaseIntrospector(client *supabase.Client) *SupabaseIntrospector {
	return &SupabaseIntrospector{client: client}
}

func (s *SupabaseIntrospector) Introspect(ctx context.Context, token string) (*UserContext, error) {
	user, err := s.client.Auth.WithToken(token).GetUser()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &UserContext{UserID: user.ID.String(), Email: user.Email, Role: user.Role}, nil
}

// IntrospectionAuthenticator validates tokens remotely
type IntrospectionAuthenticator struct {
	introspector TokenIntrospector
}

// NewIntrospectionAuthenticator creates an authenticator backed by introspector
func NewIntrospectionAuthenticator(introspector TokenIntrospector) *IntrospectionAuthenticator {
	return &IntrospectionAuthenticator{introspector: introspector}
}

func (a *IntrospectionAuthenticator) Authenticate(r *http.Request) (*UserContext, error) {
	token := ExtractToken(r)
	if token == "" {
		return nil, ErrMissingToken
	}
	return a.introspector.Introspect(r.Context(), token)
}

// DefaultOwner is used by HeaderAuthenticator when no header is sent
const DefaultOwner = "local"

// HeaderAuthenticator trusts the X-User-ID header. Development only.
type HeaderAuthenticator struct {
	header string
}

// NewHeaderAuthenticator creates an authenticator that reads X-User-ID
func NewHeaderAuthenticator() *HeaderAuthenticator {
	return &HeaderAuthenticator{header: "X-User-ID"}
}

func (a *HeaderAuthenticator) Authenticate(r *http.Request) (*UserContext, error) {
	owner := strings.TrimSpace(r.Header.Get(a.header))
	if owner == "" {
		owner = DefaultOwner
	}
	return &UserContext{UserID: owner, Role: "anonymous"}, nil
}
