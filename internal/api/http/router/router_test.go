package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpctx "github.com/dtroode/userdir-server/internal/api/http/context"
	"github.com/dtroode/userdir-server/internal/api/http/middleware"
	servermocks "github.com/dtroode/userdir-server/internal/mocks"
	"github.com/dtroode/userdir-server/internal/model"
	"github.com/dtroode/userdir-server/internal/repository/memory"
	"github.com/dtroode/userdir-server/internal/service"
	"github.com/dtroode/userdir-server/internal/testutil"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := testutil.MakeNoopLogger()
	store := memory.NewUserRepository()
	notifier := servermocks.NewNotifier(t)
	notifier.On("Notify", mock.Anything, mock.Anything).Maybe()

	r := New(
		service.NewUser(store, notifier, logger),
		service.NewDashboard(store, logger, 7, 5),
		prometheus.NewRegistry(),
		httpctx.NewManager(),
		logger,
	)

	srv := httptest.NewServer(r.Register())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func TestRouter_UserLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/users", `{"name":"Alice","email":"a@x.com"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var alice model.User
	require.NoError(t, json.Unmarshal(body, &alice))
	assert.Equal(t, "Alice", alice.Name)

	resp, body = do(t, http.MethodPost, srv.URL+"/users", `{"name":"Bob","email":"a@x.com"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Email already exists")

	resp, body = do(t, http.MethodPut, srv.URL+"/users/"+alice.ID.String(), `{"name":"Alice2","email":"a2@x.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = do(t, http.MethodGet, srv.URL+"/users", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var users []model.User
	require.NoError(t, json.Unmarshal(body, &users))
	require.Len(t, users, 1)
	assert.Equal(t, "Alice2", users[0].Name)
	assert.Equal(t, "a2@x.com", users[0].Email)
	assert.True(t, users[0].CreatedAt.Equal(alice.CreatedAt))

	resp, _ = do(t, http.MethodDelete, srv.URL+"/users/"+alice.ID.String(), "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = do(t, http.MethodGet, srv.URL+"/users", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, _ = do(t, http.MethodDelete, srv.URL+"/users/"+alice.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_Routes(t *testing.T) {
	srv := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

	resp, body = do(t, http.MethodGet, srv.URL+"/dashboard", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"top_domain":"N/A"`)

	resp, _ = do(t, http.MethodGet, srv.URL+"/users/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodPatch, srv.URL+"/users", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/nowhere", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, http.MethodGet, srv.URL+"/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `http_requests_total{endpoint="/health",method="GET"} 1`)
	assert.Contains(t, string(body), `http_requests_total{endpoint="/users/{id}",method="GET"} 1`)
}
