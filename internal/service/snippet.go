// Package service contains the business logic layer: validation, rule
// enforcement and logging. Services accept repository interfaces, never
// concrete database types, so the same rules apply whichever store backs
// them — and tests can inject in-memory fakes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/varangian-core/mind-place/internal/apperror"
	"github.com/varangian-core/mind-place/internal/model"
	"github.com/varangian-core/mind-place/internal/repository"
)

const (
	MaxSnippetNameLength = 200
	MaxContentLength     = 500000 // ~500KB of markdown
	DefaultListLimit     = 100
	MaxListLimit         = 500
)

// SnippetService handles business logic for snippets.
type SnippetService struct {
	repo   repository.SnippetRepository
	topics repository.TopicRepository
	logger *slog.Logger
}

func NewSnippetService(repo repository.SnippetRepository, topics repository.TopicRepository, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		repo:   repo,
		topics: topics,
		logger: logger,
	}
}

// Create validates and saves a new snippet. Name and content are both
// required; a supplied topicId must reference an existing topic so no
// snippet is ever created pointing at nothing.
func (s *SnippetService) Create(ctx context.Context, name, content, topicID string) (*model.Snippet, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "snippet name is required")
	}
	if len(name) > MaxSnippetNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("snippet name must be %d characters or less", MaxSnippetNameLength))
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperror.ValidationFailed("content", "snippet content is required")
	}
	if len(content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxContentLength))
	}

	topicID = strings.TrimSpace(topicID)
	if topicID != "" {
		if _, err := s.topics.GetTopicByID(ctx, topicID); err != nil {
			return nil, err
		}
	}

	snippet := &model.Snippet{
		Name:    name,
		Content: content,
		TopicID: topicID,
	}
	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("name", snippet.Name),
	)
	return snippet, nil
}

// GetByID retrieves a snippet; ErrNotFound passes through untouched.
func (s *SnippetService) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// List retrieves snippets newest first, with the limit clamped to a sane
// range so callers cannot request the whole table unbounded.
func (s *SnippetService) List(ctx context.Context, limit, offset int) ([]model.Snippet, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	snippets, err := s.repo.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	return snippets, nil
}
