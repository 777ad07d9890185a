package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dom/account-market/internal/domain"
	"github.com/dom/account-market/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubAuthenticator struct {
	session *domain.Session
	err     error
	calls   int
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func TestAuth(t *testing.T) {
	session := &domain.Session{ID: "sid", UserID: uuid.New(), Username: "alice"}

	tests := []struct {
		name           string
		cookie         *http.Cookie
		auth           *stubAuthenticator
		expectedStatus int
		expectNext     bool
		expectAuthCall bool
	}{
		{
			name:           "no cookie",
			auth:           &stubAuthenticator{session: session},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "empty cookie",
			cookie:         &http.Cookie{Name: "session", Value: ""},
			auth:           &stubAuthenticator{session: session},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "valid session",
			cookie:         &http.Cookie{Name: "session", Value: "token"},
			auth:           &stubAuthenticator{session: session},
			expectedStatus: http.StatusOK,
			expectNext:     true,
			expectAuthCall: true,
		},
		{
			name:           "rejected session",
			cookie:         &http.Cookie{Name: "session", Value: "token"},
			auth:           &stubAuthenticator{err: service.ErrUnauthenticated},
			expectedStatus: http.StatusUnauthorized,
			expectAuthCall: true,
		},
		{
			name:           "store unavailable",
			cookie:         &http.Cookie{Name: "session", Value: "token"},
			auth:           &stubAuthenticator{err: domain.ErrStoreUnavailable},
			expectedStatus: http.StatusServiceUnavailable,
			expectAuthCall: true,
		},
		{
			name:           "unexpected error",
			cookie:         &http.Cookie{Name: "session", Value: "token"},
			auth:           &stubAuthenticator{err: errors.New("boom")},
			expectedStatus: http.StatusInternalServerError,
			expectAuthCall: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reached bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				got, ok := GetSession(r.Context())
				assert.True(t, ok)
				assert.Equal(t, session, got)
				w.WriteHeader(http.StatusOK)
			})

			handler := Auth(tt.auth, "session", "/login.html", zap.NewNop())(next)

			req := httptest.NewRequest(http.MethodGet, "/listings", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectNext, reached)
			assert.Equal(t, tt.expectAuthCall, tt.auth.calls > 0)
			if tt.expectedStatus == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"Unauthorized","redirect":"/login.html"}`, rec.Body.String())
			}
		})
	}
}

func TestGetSessionMissing(t *testing.T) {
	_, ok := GetSession(context.Background())
	assert.False(t, ok)

	var nilSession *domain.Session
	_, ok = GetSession(context.WithValue(context.Background(), SessionKey, nilSession))
	assert.False(t, ok)
}
