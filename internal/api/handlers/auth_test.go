package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/dom/account-market/internal/api/handlers"
	"github.com/dom/account-market/internal/api/response"
	"github.com/dom/account-market/internal/config"
	"github.com/dom/account-market/internal/domain"
	"github.com/dom/account-market/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Login(t *testing.T) {
	ts := testutil.NewTestServer(t)

	testutil.NewUserBuilder().
		WithUsername("test").
		WithPassword("password").
		Build(t, ts.Repos.User)

	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name:           "successful login",
			request:        map[string]string{"username": "test", "password": "password"},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var result handlers.LoginResponse
				testutil.AssertJSONResponse(t, resp, &result)
				assert.Equal(t, "/dashboard.html", result.Redirect)
				assert.Equal(t, "test", result.User.Username)
				assert.NotEmpty(t, result.User.ID)

				var cookie *http.Cookie
				for _, c := range resp.Cookies() {
					if c.Name == "session" {
						cookie = c
					}
				}
				require.NotNil(t, cookie, "session cookie not set")
				assert.NotEmpty(t, cookie.Value)
				assert.True(t, cookie.HttpOnly)
				assert.False(t, cookie.Secure)
				assert.Equal(t, 24*60*60, cookie.MaxAge)
				assert.Equal(t, "/", cookie.Path)
			},
		},
		{
			name:           "wrong password",
			request:        map[string]string{"username": "test", "password": "wrongpw"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "non-existent user",
			request:        map[string]string{"username": "nouser", "password": "x"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing password",
			request:        map[string]string{"username": "test"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "empty request body",
			request:        map[string]string{},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.request)
			resp, err := http.Post(ts.URL("/login"), "application/json", bytes.NewBuffer(body))
			require.NoError(t, err)
			defer resp.Body.Close()

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandler_LoginFailuresLookIdentical(t *testing.T) {
	ts := testutil.NewTestServer(t)
	testutil.NewUserBuilder().WithUsername("test").WithPassword("password").Build(t, ts.Repos.User)

	read := func(username, password string) (int, []byte) {
		body, _ := json.Marshal(map[string]string{"username": username, "password": password})
		resp, err := http.Post(ts.URL("/login"), "application/json", bytes.NewBuffer(body))
		require.NoError(t, err)
		defer resp.Body.Close()

		var buf bytes.Buffer
		_, err = buf.ReadFrom(resp.Body)
		require.NoError(t, err)
		assert.Empty(t, resp.Cookies())
		return resp.StatusCode, buf.Bytes()
	}

	unknownStatus, unknownBody := read("nouser", "x")
	wrongStatus, wrongBody := read("test", "wrongpw")
	emptyStatus, emptyBody := read("test", "")

	assert.Equal(t, http.StatusUnauthorized, unknownStatus)
	assert.Equal(t, unknownStatus, wrongStatus)
	assert.Equal(t, unknownStatus, emptyStatus)
	assert.Equal(t, string(unknownBody), string(wrongBody))
	assert.Equal(t, string(unknownBody), string(emptyBody))
}

func TestAuthHandler_LoginForm(t *testing.T) {
	ts := testutil.NewTestServer(t)
	testutil.NewUserBuilder().WithUsername("formuser").WithPassword("password").Build(t, ts.Repos.User)

	form := url.Values{"username": {"formuser"}, "password": {"password"}}
	resp, err := http.Post(ts.URL("/login"), "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusOK)
	assert.NotEmpty(t, resp.Cookies())
}

func TestAuthHandler_LoginCookieSecureOutsideLocal(t *testing.T) {
	ts := testutil.NewTestServer(t, func(cfg *config.Config) {
		cfg.Environment = "production"
	})
	_, cookie := testutil.NewUserBuilder().BuildAndLogin(t, ts)

	assert.True(t, cookie.Secure)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
}

func TestAuthHandler_LoginStoreUnavailable(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ts.Fakes.Users.SetErr(domain.ErrStoreUnavailable)

	body, _ := json.Marshal(map[string]string{"username": "test", "password": "password"})
	resp, err := http.Post(ts.URL("/login"), "application/json", bytes.NewBuffer(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusServiceUnavailable)
}

func TestAuthHandler_Me(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, cookie := testutil.NewUserBuilder().WithUsername("meuser").BuildAndLogin(t, ts)

	resp, err := http.DefaultClient.Do(testutil.NewRequest(t, http.MethodGet, ts.URL("/me"), nil, cookie))
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var me handlers.MeResponse
	testutil.AssertJSONResponse(t, resp, &me)
	assert.Equal(t, user.ID.String(), me.UserID)
	assert.Equal(t, "meuser", me.Username)
	assert.False(t, me.ExpiresAt.IsZero())
}

func TestAuthHandler_Logout(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, cookie := testutil.NewUserBuilder().BuildAndLogin(t, ts)

	resp, err := http.DefaultClient.Do(testutil.NewRequest(t, http.MethodPost, ts.URL("/logout"), nil, cookie))
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var result map[string]bool
	testutil.AssertJSONResponse(t, resp, &result)
	assert.True(t, result["success"])

	var cleared *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
	assert.Equal(t, 0, ts.Fakes.Sessions.Len())

	// The old token is dead everywhere.
	for _, path := range []string{"/me", "/listings"} {
		resp, err := http.DefaultClient.Do(testutil.NewRequest(t, http.MethodGet, ts.URL(path), nil, cookie))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestAuthHandler_LogoutRequiresSession(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.Post(ts.URL("/logout"), "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
}

func TestAuthHandler_LogoutFailure(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, cookie := testutil.NewUserBuilder().BuildAndLogin(t, ts)
	ts.Fakes.Sessions.SetDeleteErr(errors.New("connection reset"))

	resp, err := http.DefaultClient.Do(testutil.NewRequest(t, http.MethodPost, ts.URL("/logout"), nil, cookie))
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertErrorResponse(t, resp, http.StatusInternalServerError, "Logout failed")
}

func TestAuthHandler_ExpiredSessionRejected(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, cookie := testutil.NewUserBuilder().BuildAndLogin(t, ts)
	ts.Fakes.Sessions.ExpireAll()

	resp, err := http.DefaultClient.Do(testutil.NewRequest(t, http.MethodGet, ts.URL("/me"), nil, cookie))
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
	var body response.ErrorBody
	testutil.AssertJSONResponse(t, resp, &body)
	assert.Equal(t, "Unauthorized", body.Error)
	assert.Equal(t, "/login.html", body.Redirect)
}
