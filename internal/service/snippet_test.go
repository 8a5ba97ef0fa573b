package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/varangian-core/mind-place/internal/apperror"
	"github.com/varangian-core/mind-place/internal/model"
	"github.com/varangian-core/mind-place/internal/repository"
)

// Hand-written in-memory fakes. The services only see the repository
// interfaces, so these swap in for sqlite/postgres without the services
// noticing — the point of programming to an interface.

type mockSnippetRepo struct {
	snippets map[string]*model.Snippet
	nextID   int
}

func newMockSnippetRepo() *mockSnippetRepo {
	return &mockSnippetRepo{snippets: make(map[string]*model.Snippet)}
}

func (m *mockSnippetRepo) Create(_ context.Context, snippet *model.Snippet) error {
	m.nextID++
	snippet.ID = fmt.Sprintf("mock-%d", m.nextID)
	snippet.CreatedAt = time.Now().UTC()
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) GetByID(_ context.Context, id string) (*model.Snippet, error) {
	snippet, ok := m.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	result := *snippet
	return &result, nil
}

func (m *mockSnippetRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	result := make([]model.Snippet, 0, len(m.snippets))
	for _, s := range m.snippets {
		result = append(result, *s)
	}
	if opts.Offset >= len(result) {
		return []model.Snippet{}, nil
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

type mockTopicRepo struct {
	topics map[string]*model.Topic
	nextID int
}

func newMockTopicRepo() *mockTopicRepo {
	return &mockTopicRepo{topics: make(map[string]*model.Topic)}
}

func (m *mockTopicRepo) CreateTopic(_ context.Context, topic *model.Topic) error {
	m.nextID++
	topic.ID = fmt.Sprintf("mock-topic-%d", m.nextID)
	stored := *topic
	m.topics[topic.ID] = &stored
	return nil
}

func (m *mockTopicRepo) GetTopicByID(_ context.Context, id string) (*model.Topic, error) {
	topic, ok := m.topics[id]
	if !ok {
		return nil, apperror.NotFound("topic", id)
	}
	result := *topic
	return &result, nil
}

func (m *mockTopicRepo) ListTopics(_ context.Context) ([]model.Topic, error) {
	result := make([]model.Topic, 0, len(m.topics))
	for _, t := range m.topics {
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockTopicRepo) DeleteTopic(_ context.Context, id string) error {
	if _, ok := m.topics[id]; !ok {
		return apperror.NotFound("topic", id)
	}
	delete(m.topics, id)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServices(t *testing.T) (*SnippetService, *TopicService, *mockTopicRepo) {
	t.Helper()
	snippets := newMockSnippetRepo()
	topics := newMockTopicRepo()
	logger := testLogger()
	return NewSnippetService(snippets, topics, logger), NewTopicService(topics, logger), topics
}

// =========================================================================
// SNIPPET CREATE
// =========================================================================

func TestCreate_Success(t *testing.T) {
	svc, _, _ := newTestServices(t)

	snippet, err := svc.Create(context.Background(), "hello world", "# Hi", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if snippet.ID == "" {
		t.Error("expected snippet to have an ID")
	}
	if snippet.Name != "hello world" {
		t.Errorf("Name = %q, want %q", snippet.Name, "hello world")
	}
}

func TestCreate_TrimsName(t *testing.T) {
	svc, _, _ := newTestServices(t)

	snippet, err := svc.Create(context.Background(), "  spaced out  ", "# body", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if snippet.Name != "spaced out" {
		t.Errorf("Name = %q, want trimmed %q", snippet.Name, "spaced out")
	}
}

func TestCreate_EmptyName(t *testing.T) {
	svc, _, _ := newTestServices(t)

	_, err := svc.Create(context.Background(), "", "# body", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestCreate_EmptyContent(t *testing.T) {
	svc, _, _ := newTestServices(t)

	_, err := svc.Create(context.Background(), "name", "   ", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestCreate_NameTooLong(t *testing.T) {
	svc, _, _ := newTestServices(t)

	longName := strings.Repeat("a", MaxSnippetNameLength+1)
	_, err := svc.Create(context.Background(), longName, "# body", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestCreate_UnknownTopicRejected(t *testing.T) {
	svc, _, _ := newTestServices(t)

	_, err := svc.Create(context.Background(), "name", "# body", "missing-topic")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestCreate_WithExistingTopic(t *testing.T) {
	svc, topicSvc, _ := newTestServices(t)

	topic, err := topicSvc.Create(context.Background(), "Code Snippets", "", "code")
	if err != nil {
		t.Fatalf("topic Create() error = %v", err)
	}

	snippet, err := svc.Create(context.Background(), "hello", "# Hi", topic.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if snippet.TopicID != topic.ID {
		t.Errorf("TopicID = %q, want %q", snippet.TopicID, topic.ID)
	}
}

// =========================================================================
// SNIPPET GET / LIST
// =========================================================================

func TestGetByID_EmptyID(t *testing.T) {
	svc, _, _ := newTestServices(t)

	_, err := svc.GetByID(context.Background(), "  ")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc, _, _ := newTestServices(t)

	_, err := svc.GetByID(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestList_ClampsLimit(t *testing.T) {
	svc, _, _ := newTestServices(t)

	for i := 0; i < 5; i++ {
		if _, err := svc.Create(context.Background(), fmt.Sprintf("s%d", i), "# body", ""); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	snippets, err := svc.List(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(snippets) != 2 {
		t.Errorf("List(limit=2) returned %d snippets", len(snippets))
	}

	snippets, err = svc.List(context.Background(), -1, -5)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(snippets) != 5 {
		t.Errorf("List(defaults) returned %d snippets, want 5", len(snippets))
	}
}
