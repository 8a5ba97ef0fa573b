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

const MaxTopicNameLength = 100

// TopicService handles business logic for topics.
type TopicService struct {
	repo   repository.TopicRepository
	logger *slog.Logger
}

func NewTopicService(repo repository.TopicRepository, logger *slog.Logger) *TopicService {
	return &TopicService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates and saves a new topic. Only the name is required.
func (s *TopicService) Create(ctx context.Context, name, description, icon string) (*model.Topic, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "topic name is required")
	}
	if len(name) > MaxTopicNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("topic name must be %d characters or less", MaxTopicNameLength))
	}

	topic := &model.Topic{
		Name:        name,
		Description: strings.TrimSpace(description),
		Icon:        strings.TrimSpace(icon),
	}
	if err := s.repo.CreateTopic(ctx, topic); err != nil {
		s.logger.Error("failed to create topic",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating topic: %w", err)
	}

	s.logger.Info("topic created",
		slog.String("id", topic.ID),
		slog.String("name", topic.Name),
	)
	return topic, nil
}

// List returns all topics by name ascending with snippet counts.
func (s *TopicService) List(ctx context.Context) ([]model.Topic, error) {
	topics, err := s.repo.ListTopics(ctx)
	if err != nil {
		s.logger.Error("failed to list topics", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing topics: %w", err)
	}
	return topics, nil
}

// Delete removes a topic; the repository reassigns its snippets to
// "uncategorized" in the same transaction.
func (s *TopicService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "topic ID is required")
	}

	if err := s.repo.DeleteTopic(ctx, id); err != nil {
		return err
	}

	s.logger.Info("topic deleted", slog.String("id", id))
	return nil
}
