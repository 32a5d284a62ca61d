package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAll(t *testing.T) {
	ok := Check{Name: "ok", Check: func(context.Context, bool) (int, string, error) {
		return http.StatusOK, "fine", nil
	}}
	nested := Check{Name: "nested", Check: func(context.Context, bool) (int, string, error) {
		return http.StatusOK, `{"resource": "inner"}`, nil
	}}
	failing := Check{Name: "failing", Check: func(context.Context, bool) (int, string, error) {
		return http.StatusServiceUnavailable, `message with "quotes"`, errors.New("db \"down\"")
	}}

	t.Run("all healthy", func(t *testing.T) {
		status, body, err := CheckAll(context.Background(), true, []Check{ok, nested})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, status)
		assert.True(t, json.Valid([]byte(body)), body)
	})

	t.Run("one failing", func(t *testing.T) {
		status, body, err := CheckAll(context.Background(), false, []Check{ok, failing})
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.True(t, json.Valid([]byte(body)), body)
		assert.Contains(t, body, "failing")
	})

	t.Run("no checks", func(t *testing.T) {
		status, body, err := CheckAll(context.Background(), false, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, status)
		assert.True(t, json.Valid([]byte(body)), body)
	})
}

func TestCheckHTTPServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}

		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	status, _, err := CheckHTTPServer(server.URL+"/", "/health")(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	status, _, err = CheckHTTPServer(server.URL, "broken")(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, _, err = CheckHTTPServer("http://127.0.0.1:1", "/health")(context.Background(), true)
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestCheckHTTPServer_Mocked(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "http://archive.test/alive", httpmock.NewStringResponder(http.StatusOK, "alive"))
	httpmock.RegisterResponder("GET", "http://archive.test/teapot", httpmock.NewStringResponder(http.StatusTeapot, "no"))
	httpmock.RegisterResponder("GET", "http://down.test/alive", httpmock.NewErrorResponder(errors.New("connection refused")))

	status, msg, err := CheckHTTPServer("http://archive.test", "alive")(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, msg, "accepting requests")

	status, msg, err = CheckHTTPServer("http://archive.test/", "/teapot")(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, msg, "418")

	status, _, err = CheckHTTPServer("http://down.test", "/alive")(context.Background(), false)
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	assert.Equal(t, 3, httpmock.GetTotalCallCount())
}
