package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/dom/account-market/internal/api/response"
	"github.com/dom/account-market/internal/domain"
	"github.com/dom/account-market/internal/service"
	"go.uber.org/zap"
)

type contextKey string

const (
	SessionKey contextKey = "session"
)

// SessionAuthenticator resolves a session token into a live session.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Session, error)
}

// Auth admits a request only when it carries a cookie naming a live session.
// Rejected requests never reach next.
func Auth(auth SessionAuthenticator, cookieName, loginPage string, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				log.Debug("missing session cookie", zap.String("path", r.URL.Path))
				response.Unauthorized(w, loginPage)
				return
			}

			session, err := auth.Authenticate(r.Context(), cookie.Value)
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrStoreUnavailable):
					log.Error("session store unavailable", zap.Error(err))
					response.Error(w, http.StatusServiceUnavailable, "Service unavailable")
				case errors.Is(err, service.ErrUnauthenticated):
					log.Debug("rejected session", zap.String("path", r.URL.Path))
					response.Unauthorized(w, loginPage)
				default:
					log.Error("session lookup failed", zap.Error(err))
					response.Error(w, http.StatusInternalServerError, "Internal server error")
				}
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession returns the session the guard admitted, if any.
func GetSession(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*domain.Session)
	return session, ok && session != nil
}
