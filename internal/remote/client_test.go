package remote

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varangian-core/mind-place/internal/apperror"
	"github.com/varangian-core/mind-place/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, testLogger())
}

func TestListSnippets(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/snippets", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"snippets": []model.Snippet{
				{ID: "s2", Name: "newer"},
				{ID: "s1", Name: "older"},
			},
		})
	})

	snippets, err := client.ListSnippets(context.Background())
	require.NoError(t, err)
	require.Len(t, snippets, 2)
	assert.Equal(t, "newer", snippets[0].Name, "server ordering is preserved as-is")
}

func TestListTopics_CarriesCounts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"topics":[{"id":"t1","name":"General","_count":{"snippets":4}}]}`))
	})

	topics, err := client.ListTopics(context.Background())
	require.NoError(t, err)
	require.Len(t, topics, 1)
	require.NotNil(t, topics[0].Count)
	assert.Equal(t, 4, topics[0].Count.Snippets)
}

func TestDegradedSuccessBodyIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// 200 OK, but the backend declares it has no database.
		w.Write([]byte(`{"topics":[],"usingLocalStorage":true}`))
	})

	_, err := client.ListTopics(context.Background())
	assert.ErrorIs(t, err, apperror.ErrUnavailable)
}

func TestNonSuccessStatusIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.ListSnippets(context.Background())
	assert.ErrorIs(t, err, apperror.ErrUnavailable)
}

func TestNetworkErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore
	client := New(srv.URL, testLogger())

	_, err := client.ListSnippets(context.Background())
	assert.ErrorIs(t, err, apperror.ErrUnavailable)
}

func TestCreateSnippet_SendsBodyAndDecodes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Hello", body["name"])
		assert.Equal(t, "# Hi", body["content"])
		assert.Equal(t, "t1", body["topicId"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"snippet": model.Snippet{ID: "s1", Name: "Hello", Content: "# Hi", TopicID: "t1"},
		})
	})

	snippet, err := client.CreateSnippet(context.Background(), "Hello", "# Hi", "t1")
	require.NoError(t, err)
	assert.Equal(t, "s1", snippet.ID)
}

func TestCreateSnippet_ValidatesBeforeRoundTrip(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.CreateSnippet(context.Background(), "", "# Hi", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = client.CreateSnippet(context.Background(), "Hello", "  ", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	assert.False(t, called, "invalid input must not cost a round trip")
}

func TestCreateTopic_ValidatesName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("server must not be reached")
	})
	_, err := client.CreateTopic(context.Background(), " ", "", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestGetSnippet_404IsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	})

	_, err := client.GetSnippet(context.Background(), "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.NotErrorIs(t, err, apperror.ErrUnavailable)
}

func TestDeleteTopic(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/topics/t1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, client.DeleteTopic(context.Background(), "t1"))
}

func TestAuthorizationHeader(t *testing.T) {
	var got string
	client := func() *Client {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Get("Authorization")
			w.Write([]byte(`{"snippets":[]}`))
		}))
		t.Cleanup(srv.Close)
		return New(srv.URL, testLogger(), WithToken("secret-token"))
	}()

	_, err := client.ListSnippets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", got)
}

func TestLogin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "open sesame", req["password"])

		w.Write([]byte(`{"token":"jwt-goes-here"}`))
	})

	token, err := client.Login(context.Background(), "open sesame")
	require.NoError(t, err)
	assert.Equal(t, "jwt-goes-here", token)
}

func TestLogin_WrongPassword(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	})

	_, err := client.Login(context.Background(), "wrong")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.NotErrorIs(t, err, apperror.ErrUnavailable)
}
