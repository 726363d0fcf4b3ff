package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userdeck/userdeck/pkg/config"
	"github.com/userdeck/userdeck/pkg/logger"
	umetrics "github.com/userdeck/userdeck/pkg/metrics"
	"github.com/userdeck/userdeck/pkg/types"
	"github.com/userdeck/userdeck/pkg/users"
)

// Test setup helpers

func setupTestServer(t *testing.T) *Server {
	cfg := config.DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "api_test.db")
	cfg.Auth.Secret = "test-secret-key-for-testing-only"
	cfg.LogLevel = "error"

	repo, err := users.NewRepository(cfg.Database.Path)
	require.NoError(t, err)
	require.NoError(t, repo.Migrate())
	require.NoError(t, repo.Seed())
	t.Cleanup(func() { repo.Close() })

	return NewServer(cfg, repo, logger.NewTestLogger(), umetrics.NewTestMetrics())
}

func performRequest(router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(bodyBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func performLogin(router *gin.Engine, username, password string) *httptest.ResponseRecorder {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, _ := http.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func loginAs(t *testing.T, server *Server, username, password string) string {
	w := performLogin(server.router, username, password)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope[types.TokenGrant](t, w)
	require.Equal(t, types.CodeOK, env.Code)
	require.NotEmpty(t, env.Data.AccessToken)
	return env.Data.AccessToken
}

func authHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeEnvelope[T any](t *testing.T, w *httptest.ResponseRecorder) types.Envelope[T] {
	var env types.Envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func userPayload(name, username, password string) map[string]interface{} {
	return map[string]interface{}{
		"name":     name,
		"username": username,
		"password": password,
		"status":   true,
	}
}

// Test cases

func TestLogin(t *testing.T) {
	server := setupTestServer(t)

	t.Run("Success", func(t *testing.T) {
		w := performLogin(server.router, "admin", "123456")
		require.Equal(t, http.StatusOK, w.Code)

		env := decodeEnvelope[types.TokenGrant](t, w)
		assert.Equal(t, types.CodeOK, env.Code)
		assert.Equal(t, "ok", env.Msg)
		assert.NotEmpty(t, env.Data.AccessToken)
		assert.Equal(t, "bearer", env.Data.TokenType)
		assert.Equal(t, int64(1800), env.Data.ExpiresIn)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		w := performLogin(server.router, "nobody", "123456")
		require.Equal(t, http.StatusNotFound, w.Code)

		env := decodeEnvelope[any](t, w)
		assert.Equal(t, http.StatusNotFound, env.Code)
		assert.Equal(t, "user not found", env.Msg)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		w := performLogin(server.router, "admin", "wrong")
		require.Equal(t, http.StatusUnauthorized, w.Code)

		env := decodeEnvelope[any](t, w)
		assert.Equal(t, http.StatusUnauthorized, env.Code)
		assert.Equal(t, "incorrect password", env.Msg)
	})

	t.Run("DisabledUser", func(t *testing.T) {
		hash, err := users.HashPassword("TestPass123")
		require.NoError(t, err)
		require.NoError(t, server.repo.Create(&users.User{
			Name:     "mallory",
			Username: "mallory",
			Password: hash,
			Status:   false,
		}))

		w := performLogin(server.router, "mallory", "TestPass123")
		require.Equal(t, http.StatusForbidden, w.Code)

		env := decodeEnvelope[any](t, w)
		assert.Equal(t, http.StatusForbidden, env.Code)
		assert.Equal(t, "user is disabled", env.Msg)
	})

	t.Run("MissingFields", func(t *testing.T) {
		w := performLogin(server.router, "", "")
		require.Equal(t, http.StatusBadRequest, w.Code)

		env := decodeEnvelope[any](t, w)
		assert.Equal(t, http.StatusBadRequest, env.Code)
		assert.Equal(t, "username and password are required", env.Msg)
	})
}

func TestAuthRequired(t *testing.T) {
	server := setupTestServer(t)

	testCases := []struct {
		name    string
		headers map[string]string
	}{
		{"NoHeader", nil},
		{"GarbageToken", authHeader("not-a-token")},
		{"WrongScheme", map[string]string{"Authorization": "Basic YWRtaW46MTIzNDU2"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := performRequest(server.router, http.MethodGet, "/users", nil, tc.headers)
			require.Equal(t, http.StatusUnauthorized, w.Code)

			env := decodeEnvelope[any](t, w)
			assert.Equal(t, http.StatusUnauthorized, env.Code)
			assert.Equal(t, "invalid credentials", env.Msg)
		})
	}
}

func TestUserCRUDFlow(t *testing.T) {
	server := setupTestServer(t)
	token := loginAs(t, server, "admin", "123456")

	// Create
	w := performRequest(server.router, http.MethodPost, "/user", userPayload("Alice", "alice", "TestPass123"), authHeader(token))
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeEnvelope[types.User](t, w)
	assert.Equal(t, types.CodeOK, created.Code)
	assert.Equal(t, "user created", created.Msg)
	assert.NotZero(t, created.Data.ID)
	assert.Equal(t, "alice", created.Data.Username)
	id := created.Data.ID

	// Duplicate username is rejected
	w = performRequest(server.router, http.MethodPost, "/user", userPayload("Other", "alice", "TestPass123"), authHeader(token))
	require.Equal(t, http.StatusBadRequest, w.Code)
	dup := decodeEnvelope[any](t, w)
	assert.Equal(t, "username already exists", dup.Msg)

	// Get
	w = performRequest(server.router, http.MethodGet, "/user/"+itoa(id), nil, authHeader(token))
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeEnvelope[types.User](t, w)
	assert.Equal(t, "alice", got.Data.Username)

	// Update
	payload := userPayload("Alice Renamed", "alice", "")
	payload["description"] = "renamed"
	w = performRequest(server.router, http.MethodPut, "/user/"+itoa(id), payload, authHeader(token))
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeEnvelope[types.User](t, w)
	assert.Equal(t, "user updated", updated.Msg)
	assert.Equal(t, "Alice Renamed", updated.Data.Name)
	assert.Equal(t, "renamed", updated.Data.Description)

	// Delete
	w = performRequest(server.router, http.MethodDelete, "/user/"+itoa(id), nil, authHeader(token))
	require.Equal(t, http.StatusOK, w.Code)
	deleted := decodeEnvelope[types.DeleteResult](t, w)
	assert.Equal(t, "user deleted", deleted.Msg)
	assert.True(t, deleted.Data.Deleted)

	// Gone
	w = performRequest(server.router, http.MethodGet, "/user/"+itoa(id), nil, authHeader(token))
	require.Equal(t, http.StatusNotFound, w.Code)
	gone := decodeEnvelope[any](t, w)
	assert.Equal(t, "user not found", gone.Msg)
}

func TestGetUser_InvalidID(t *testing.T) {
	server := setupTestServer(t)
	token := loginAs(t, server, "admin", "123456")

	w := performRequest(server.router, http.MethodGet, "/user/abc", nil, authHeader(token))
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decodeEnvelope[any](t, w)
	assert.Equal(t, "invalid user id", env.Msg)
}

func TestListUsers(t *testing.T) {
	server := setupTestServer(t)
	token := loginAs(t, server, "admin", "123456")

	for _, name := range []string{"alice", "bob", "carol"} {
		w := performRequest(server.router, http.MethodPost, "/user", userPayload(name, name, "TestPass123"), authHeader(token))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	t.Run("Paged", func(t *testing.T) {
		w := performRequest(server.router, http.MethodGet, "/users?page=1&size=2", nil, authHeader(token))
		require.Equal(t, http.StatusOK, w.Code)

		env := decodeEnvelope[types.Page[types.User]](t, w)
		assert.Equal(t, types.CodeOK, env.Code)
		// Three created plus the seeded admin
		assert.Equal(t, int64(4), env.Data.Total)
		assert.Equal(t, 1, env.Data.Page)
		assert.Equal(t, 2, env.Data.Size)
		assert.Len(t, env.Data.Items, 2)
		assert.True(t, env.Data.CheckInvariants())
	})

	t.Run("NameFilter", func(t *testing.T) {
		w := performRequest(server.router, http.MethodGet, "/users?name=ali", nil, authHeader(token))
		require.Equal(t, http.StatusOK, w.Code)

		env := decodeEnvelope[types.Page[types.User]](t, w)
		assert.Equal(t, int64(1), env.Data.Total)
		require.Len(t, env.Data.Items, 1)
		assert.Equal(t, "alice", env.Data.Items[0].Username)
	})

	t.Run("DefaultsOnJunkParams", func(t *testing.T) {
		w := performRequest(server.router, http.MethodGet, "/users?page=abc&size=xyz", nil, authHeader(token))
		require.Equal(t, http.StatusOK, w.Code)

		env := decodeEnvelope[types.Page[types.User]](t, w)
		assert.Equal(t, users.DefaultPage, env.Data.Page)
		assert.Equal(t, users.DefaultSize, env.Data.Size)
	})

	t.Run("PasswordNeverSerialized", func(t *testing.T) {
		w := performRequest(server.router, http.MethodGet, "/users", nil, authHeader(token))
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "password")
	})
}

func TestLogout(t *testing.T) {
	server := setupTestServer(t)
	token := loginAs(t, server, "admin", "123456")

	w := performRequest(server.router, http.MethodPost, "/logout", nil, authHeader(token))
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope[any](t, w)
	assert.Equal(t, types.CodeOK, env.Code)
	assert.Equal(t, "logged out", env.Msg)

	// Grants are stateless: logout requires a valid token but does not
	// revoke it
	w = performRequest(server.router, http.MethodPost, "/logout", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthCheck(t *testing.T) {
	server := setupTestServer(t)

	w := performRequest(server.router, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope[HealthStatus](t, w)
	assert.Equal(t, types.CodeOK, env.Code)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, Version, env.Data.Version)
	assert.Equal(t, "ok", env.Data.Checks["database"])
}

func TestMetricsEndpoint(t *testing.T) {
	server := setupTestServer(t)

	// Generate some traffic first
	performRequest(server.router, http.MethodGet, "/health", nil, nil)
	performRequest(server.router, http.MethodGet, "/health", nil, nil)

	w := performRequest(server.router, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope[MetricsReport](t, w)
	assert.Equal(t, types.CodeOK, env.Code)
	assert.NotEmpty(t, env.Data.Counters)
	assert.NotEmpty(t, env.Data.Timers)
}

func TestOpenAPISpec(t *testing.T) {
	server := setupTestServer(t)

	w := performRequest(server.router, http.MethodGet, "/openapi.json", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var spec map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spec))
	assert.Equal(t, "3.1.0", spec["openapi"])

	paths, ok := spec["paths"].(map[string]interface{})
	require.True(t, ok)
	for _, p := range []string{"/login", "/logout", "/users", "/user", "/user/{id}", "/health"} {
		assert.Contains(t, paths, p)
	}
}

func TestRootRedirectsToDocs(t *testing.T) {
	server := setupTestServer(t)

	w := performRequest(server.router, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/docs/index.html", w.Header().Get("Location"))
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
