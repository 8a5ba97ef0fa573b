package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/varangian-core/mind-place/internal/auth"
	"github.com/varangian-core/mind-place/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Port: 0},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			Path:   filepath.Join(t.TempDir(), "test.db"),
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		if s.closer != nil {
			s.closer.Close()
		}
	})
	return s
}

func TestServer_SnippetLifecycle(t *testing.T) {
	s := newTestServer(t, testConfig(t))
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	res, err := http.Post(ts.URL+"/api/snippets", "application/json",
		strings.NewReader(`{"name":"hello","content":"# hi"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	var created struct {
		Snippet struct {
			ID string `json:"id"`
		} `json:"snippet"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	require.NotEmpty(t, created.Snippet.ID)

	res, err = http.Get(ts.URL + "/api/snippets/" + created.Snippet.ID)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var health struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "connected", health.Database)
}

func TestServer_LocalStorageMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "none"
	s := newTestServer(t, cfg)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/api/snippets")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		UsingLocalStorage bool `json:"usingLocalStorage"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.True(t, body.UsingLocalStorage)
}

func TestServer_AuthProtectsMutations(t *testing.T) {
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	hash, err := passwords.Hash("open sesame")
	require.NoError(t, err)

	cfg := testConfig(t)
	cfg.Auth = config.AuthConfig{
		Secret:       "test-secret-at-least-16-chars!!",
		PasswordHash: hash,
	}
	s := newTestServer(t, cfg)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	// Mutations without a token are rejected; reads stay open.
	res, err := http.Post(ts.URL+"/api/snippets", "application/json",
		strings.NewReader(`{"name":"n","content":"c"}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, err = http.Get(ts.URL + "/api/snippets")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	// Log in, then retry the mutation with the bearer token.
	res, err = http.Post(ts.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"password":"open sesame"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&login))
	require.NotEmpty(t, login.Token)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/snippets",
		strings.NewReader(`{"name":"n","content":"c"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+login.Token)

	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusCreated, res.StatusCode)
}
