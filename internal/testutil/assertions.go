package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse decodes JSON response into v
func AssertJSONResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// AssertErrorResponse verifies the status and the JSON error message
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	var body struct {
		Error string `json:"error"`
	}
	AssertJSONResponse(t, resp, &body)
	assert.Contains(t, body.Error, expectedMessage, "error message mismatch")
}

// AssertNoCredentialFields fails if any document carries credential-shaped keys
func AssertNoCredentialFields(t *testing.T, docs []map[string]interface{}) {
	t.Helper()
	for _, doc := range docs {
		for _, key := range []string{"password", "passwordHash", "password_hash", "hash", "salt", "token", "secret"} {
			assert.NotContains(t, doc, key, "credential field %q leaked", key)
		}
	}
}
