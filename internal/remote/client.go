// Package remote wraps calls to the authoritative MindPlace backend and
// normalizes every failure mode — network errors, non-success statuses,
// and the backend's own "use local storage" signal — into the single
// Unavailable classification the reconciling repository acts on.
//
// There are no retries here. One failed attempt is immediately classified
// and surfaced; fallback policy belongs to the caller.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/varangian-core/mind-place/internal/apperror"
	"github.com/varangian-core/mind-place/internal/model"
)

// apiResponse is the superset of every body the backend sends. Presence of
// usingLocalStorage=true marks a degraded-success response: the call came
// back 2xx but the backend has no database behind it, which this adapter
// treats exactly like an outage.
type apiResponse struct {
	Snippets          []model.Snippet `json:"snippets"`
	Topics            []model.Topic   `json:"topics"`
	Snippet           *model.Snippet  `json:"snippet"`
	Topic             *model.Topic    `json:"topic"`
	Token             string          `json:"token"`
	UsingLocalStorage bool            `json:"usingLocalStorage"`
	Error             string          `json:"error"`
}

// Client talks to the backend API at a fixed base URL.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying *http.Client, mainly for tests.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithToken attaches a bearer token to every request. Required only when
// the server runs with authentication enabled.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListSnippets returns all snippets, newest first (the server orders by
// createdAt descending).
func (c *Client) ListSnippets(ctx context.Context) ([]model.Snippet, error) {
	res, err := c.do(ctx, http.MethodGet, "/api/snippets", nil)
	if err != nil {
		return nil, err
	}
	if res.Snippets == nil {
		res.Snippets = []model.Snippet{}
	}
	return res.Snippets, nil
}

// ListTopics returns all topics ordered by name ascending, each annotated
// with its snippet count.
func (c *Client) ListTopics(ctx context.Context) ([]model.Topic, error) {
	res, err := c.do(ctx, http.MethodGet, "/api/topics", nil)
	if err != nil {
		return nil, err
	}
	if res.Topics == nil {
		res.Topics = []model.Topic{}
	}
	return res.Topics, nil
}

// GetSnippet fetches a single snippet. A 404 maps to ErrNotFound — absence
// is a normal outcome, not an availability problem.
func (c *Client) GetSnippet(ctx context.Context, id string) (*model.Snippet, error) {
	res, err := c.do(ctx, http.MethodGet, "/api/snippets/"+id, nil)
	if err != nil {
		if errors404(err) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, err
	}
	if res.Snippet == nil {
		return nil, apperror.Unavailable("get snippet", fmt.Errorf("response missing snippet"))
	}
	return res.Snippet, nil
}

// CreateSnippet creates a snippet on the backend. Name and content are
// validated here, before any round trip, so an invalid call never leaves
// the process.
func (c *Client) CreateSnippet(ctx context.Context, name, content, topicID string) (*model.Snippet, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperror.ValidationFailed("name", "snippet name is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperror.ValidationFailed("content", "snippet content is required")
	}

	body := map[string]string{"name": name, "content": content}
	if topicID != "" {
		body["topicId"] = topicID
	}
	res, err := c.do(ctx, http.MethodPost, "/api/snippets", body)
	if err != nil {
		return nil, err
	}
	if res.Snippet == nil {
		return nil, apperror.Unavailable("create snippet", fmt.Errorf("response missing snippet"))
	}
	return res.Snippet, nil
}

// CreateTopic creates a topic on the backend. Name is required.
func (c *Client) CreateTopic(ctx context.Context, name, description, icon string) (*model.Topic, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperror.ValidationFailed("name", "topic name is required")
	}

	body := map[string]string{"name": name}
	if description != "" {
		body["description"] = description
	}
	if icon != "" {
		body["icon"] = icon
	}
	res, err := c.do(ctx, http.MethodPost, "/api/topics", body)
	if err != nil {
		return nil, err
	}
	if res.Topic == nil {
		return nil, apperror.Unavailable("create topic", fmt.Errorf("response missing topic"))
	}
	return res.Topic, nil
}

// DeleteTopic removes a topic; the backend reassigns its snippets to
// "uncategorized" in the same transaction.
func (c *Client) DeleteTopic(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/topics/"+id, nil)
	if errors404(err) {
		return apperror.NotFound("topic", id)
	}
	return err
}

// Login exchanges the server's shared password for a bearer token. Unlike
// the data operations a rejected password is not an availability problem,
// so a 401 maps to a validation error instead of Unavailable.
func (c *Client) Login(ctx context.Context, password string) (string, error) {
	res, err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"password": password})
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.status == http.StatusUnauthorized {
			return "", apperror.ValidationFailed("password", "invalid password")
		}
		return "", err
	}
	if res.Token == "" {
		return "", apperror.Unavailable("login", fmt.Errorf("response missing token"))
	}
	return res.Token, nil
}

// statusError carries the HTTP status through the Unavailable wrapper so
// GetSnippet and DeleteTopic can single out 404s.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.status, e.body)
}

func errors404(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == http.StatusNotFound
}

// do performs one request and decodes the response, classifying transport
// errors, non-success statuses and degraded-success bodies.
func (c *Client) do(ctx context.Context, method, path string, body any) (*apiResponse, error) {
	op := fmt.Sprintf("%s %s", method, path)

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("remote: encoding request for %s: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("remote: building request for %s: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, apperror.Unavailable(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, apperror.Unavailable(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		cause := &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(data))}
		return nil, apperror.Unavailable(op, cause)
	}

	var res apiResponse
	if len(data) > 0 {
		if err := json.Unmarshal(data, &res); err != nil {
			return nil, apperror.Unavailable(op, fmt.Errorf("decoding response: %w", err))
		}
	}

	// HTTP-success-but-semantically-degraded: the backend is telling us it
	// has no database and the client should run on its local mirror.
	if res.UsingLocalStorage {
		c.logger.Warn("backend directed caller to local storage", slog.String("op", op))
		return nil, apperror.Unavailable(op, fmt.Errorf("backend declared local-storage fallback"))
	}

	return &res, nil
}
