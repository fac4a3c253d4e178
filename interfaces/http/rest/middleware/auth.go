package middleware

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"todolist-backend/pkg/auth"
	pkgerrors "todolist-backend/pkg/errors"
)

// Authenticate resolves the caller with authenticator and stores it in the
// request context. Requests that cannot be authenticated get a 401.
func Authenticate(authenticator auth.Authenticator, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticator.Authenticate(r)
			if err != nil {
				logger.Debug("Authentication failed",
					zap.String("path", r.URL.Path),
					zap.String("clientIP", r.RemoteAddr),
					zap.Error(err),
				)
				errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError(unauthorizedMessage(err)).WithCause(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), user)))
		})
	}
}

func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "authentication required"
	case errors.Is(err, auth.ErrExpiredToken):
		return "token has expired"
	default:
		return "invalid token"
	}
}
