package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dom/account-market/internal/api/handlers"
	"github.com/dom/account-market/internal/domain"
	"github.com/dom/account-market/internal/repository"
	"github.com/dom/account-market/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHealthHandler_Check(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.Get(ts.URL("/health"))
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "OK", string(body))
}

func TestHealthHandler_StoreDown(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ts.Fakes.Pinger.SetErr(domain.ErrStoreUnavailable)

	resp, err := http.Get(ts.URL("/health"))
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusServiceUnavailable)
}

func TestHealthHandler_SessionStoreDown(t *testing.T) {
	database := &testutil.StorePinger{}
	sessions := &testutil.StorePinger{}
	sessions.SetErr(domain.ErrStoreUnavailable)

	h := handlers.NewHealthHandler(repository.Pingers{database, sessions}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	sessions.SetErr(nil)
	rec = httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
