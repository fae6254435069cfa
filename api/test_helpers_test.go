package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shadowagent/config"
	"shadowagent/storage"
)

// testJWTSecret satisfies the minimum key length check.
const testJWTSecret = "test-secret-key-0123456789abcdef-0123"

// setupTestAPI wires a full API instance against a fresh on-disk database.
func setupTestAPI(t *testing.T) *API {
	t.Helper()

	cfg := &config.Config{}
	cfg.API.Port = 8000
	cfg.API.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.Auth.JWTSecret = testJWTSecret
	cfg.Auth.TokenExpiry = 30 * time.Minute
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, cfg.Validate())

	sugar := zap.NewNop().Sugar()

	sqlite, err := storage.NewSQLite(cfg.Storage.SQLitePath, sugar)
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return NewAPI(
		storage.NewSQLiteThreatStorage(sqlite, sugar),
		storage.NewSQLiteUserStorage(sqlite, sugar),
		storage.NewSQLiteIdentityStorage(sqlite, sugar),
		cfg,
		sugar,
	)
}

// doJSON performs a request with an optional JSON body and bearer token.
func doJSON(t *testing.T, a *API, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	return rec
}

// doForm performs a form-encoded POST, as the login endpoint expects.
func doForm(t *testing.T, a *API, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	return rec
}

// decodeBody unmarshals a recorded JSON response body.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

// signupAndLogin registers a user and returns a valid bearer token.
func signupAndLogin(t *testing.T, a *API, username, password string) string {
	t.Helper()

	rec := doJSON(t, a, http.MethodPost, "/signup", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, "signup failed: %s", rec.Body.String())

	rec = doForm(t, a, "/login", url.Values{
		"username": {username},
		"password": {password},
	})
	require.Equal(t, http.StatusOK, rec.Code, "login failed: %s", rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, "bearer", resp.TokenType)

	return resp.AccessToken
}
