package repository

import (
	"context"

	"github.com/varangian-core/mind-place/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// SnippetRepository is implemented by the sqlite and postgres packages.
// List returns snippets newest first, each with its topic snapshot joined
// in at read time.
type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	List(ctx context.Context, opts ListOptions) ([]model.Snippet, error)
}

// TopicRepository lists topics by name ascending with derived snippet
// counts. DeleteTopic must clear topic_id on every referencing snippet and
// remove the topic in a single transaction.
//
// Method names carry the Topic suffix because both repositories are
// implemented by the same database wrapper type.
type TopicRepository interface {
	CreateTopic(ctx context.Context, topic *model.Topic) error
	GetTopicByID(ctx context.Context, id string) (*model.Topic, error)
	ListTopics(ctx context.Context) ([]model.Topic, error)
	DeleteTopic(ctx context.Context, id string) error
}
