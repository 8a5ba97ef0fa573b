// Package reconcile is the single entry point UIs depend on for snippet
// and topic data. It owns the one-way degradation policy: every session
// starts against the remote backend, and the first Unavailable result
// latches the session onto the local mirror for good. There is no
// transition back — restarting the process is the only way to re-attempt
// remote.
//
// Unavailable never reaches the caller. It is absorbed here, converted
// into a mode switch, and the operation is performed once, synchronously,
// against the mirror. Only InvalidInput (a caller bug) and NotFound (a
// normal absence) surface as rejected operations.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/varangian-core/mind-place/internal/apperror"
	"github.com/varangian-core/mind-place/internal/model"
)

// RemoteStore is the authoritative backend. internal/remote implements it.
type RemoteStore interface {
	ListSnippets(ctx context.Context) ([]model.Snippet, error)
	ListTopics(ctx context.Context) ([]model.Topic, error)
	GetSnippet(ctx context.Context, id string) (*model.Snippet, error)
	CreateSnippet(ctx context.Context, name, content, topicID string) (*model.Snippet, error)
	CreateTopic(ctx context.Context, name, description, icon string) (*model.Topic, error)
	DeleteTopic(ctx context.Context, id string) error
}

// LocalStore is the persisted client-side mirror. internal/mirror
// implements it. Mutations may return an ErrPersistence value alongside a
// valid result; the repository logs those and continues.
type LocalStore interface {
	LoadSnippets() ([]model.Snippet, error)
	LoadTopics() ([]model.Topic, error)
	FindSnippetByID(id string) (*model.Snippet, error)
	CreateSnippet(name, content, topicID string) (*model.Snippet, error)
	CreateTopic(name, description, icon string) (*model.Topic, error)
	DeleteTopic(id string) error
	ReorderTopics(fromIndex, toIndex int) ([]model.Topic, error)
}

// Overview is the combined read the UI renders from. Topics always travel
// with snippets because a snippet list without topic context is an
// incomplete read — filters and selectors need both.
type Overview struct {
	Snippets          []model.Snippet `json:"snippets"`
	Topics            []model.Topic   `json:"topics"`
	UsingLocalStorage bool            `json:"usingLocalStorage,omitempty"`
}

// Repository reconciles reads and writes between the remote backend and
// the local mirror. The mode latch lives on the instance, not in package
// state, so sessions are independent and the latch is testable.
type Repository struct {
	remote RemoteStore
	local  LocalStore
	logger *slog.Logger

	mu         sync.Mutex
	usingLocal bool
}

// New creates a Repository in Remote mode.
func New(remote RemoteStore, local LocalStore, logger *slog.Logger) *Repository {
	return &Repository{
		remote: remote,
		local:  local,
		logger: logger,
	}
}

// UsingLocalStorage reports whether the session has degraded to the mirror.
func (r *Repository) UsingLocalStorage() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usingLocal
}

// degrade flips the one-way latch. Idempotent; logs only on the first flip.
func (r *Repository) degrade(op string, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.usingLocal {
		return
	}
	r.usingLocal = true
	r.logger.Warn("backend unavailable, switching session to local storage",
		slog.String("op", op),
		slog.String("error", cause.Error()),
	)
}

// ListAll returns both collections plus the current mode flag.
//
// In Remote mode any Unavailable from either list call latches the session
// and the read is served from the mirror instead; the failed remote call
// is not retried.
func (r *Repository) ListAll(ctx context.Context) (*Overview, error) {
	if !r.UsingLocalStorage() {
		snippets, err := r.remote.ListSnippets(ctx)
		if err == nil {
			var topics []model.Topic
			topics, err = r.remote.ListTopics(ctx)
			if err == nil {
				return &Overview{Snippets: snippets, Topics: topics}, nil
			}
		}
		if !errors.Is(err, apperror.ErrUnavailable) {
			return nil, err
		}
		r.degrade("list", err)
	}
	return r.listLocal()
}

// GetSnippet fetches one snippet by ID. NotFound passes through unchanged
// in both modes.
func (r *Repository) GetSnippet(ctx context.Context, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	if !r.UsingLocalStorage() {
		snippet, err := r.remote.GetSnippet(ctx, id)
		if err == nil || !errors.Is(err, apperror.ErrUnavailable) {
			return snippet, err
		}
		r.degrade("get snippet", err)
	}

	snippet, err := r.local.FindSnippetByID(id)
	if err != nil && errors.Is(err, apperror.ErrPersistence) {
		// A mirror that cannot be read is treated the same as a mirror that
		// does not hold the snippet. The cause goes to the log, not the caller.
		r.logPersistence("get snippet", err)
		return nil, apperror.NotFound("snippet", id)
	}
	return snippet, err
}

// CreateSnippet validates once, up front, so InvalidInput is identical
// regardless of mode and no store is touched on a bad call.
func (r *Repository) CreateSnippet(ctx context.Context, name, content, topicID string) (*model.Snippet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "snippet name is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperror.ValidationFailed("content", "snippet content is required")
	}

	if !r.UsingLocalStorage() {
		snippet, err := r.remote.CreateSnippet(ctx, name, content, topicID)
		if err == nil || !errors.Is(err, apperror.ErrUnavailable) {
			return snippet, err
		}
		// No rollback, no retry of the remote side: the write is redone
		// against the mirror and the session stays local from here on.
		r.degrade("create snippet", err)
	}

	snippet, err := r.local.CreateSnippet(name, content, topicID)
	if err != nil {
		r.logPersistence("create snippet", err)
		if snippet == nil {
			return nil, err
		}
	}
	return snippet, nil
}

// CreateTopic follows the same policy as CreateSnippet.
func (r *Repository) CreateTopic(ctx context.Context, name, description, icon string) (*model.Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "topic name is required")
	}

	if !r.UsingLocalStorage() {
		topic, err := r.remote.CreateTopic(ctx, name, description, icon)
		if err == nil || !errors.Is(err, apperror.ErrUnavailable) {
			return topic, err
		}
		r.degrade("create topic", err)
	}

	topic, err := r.local.CreateTopic(name, description, icon)
	if err != nil {
		r.logPersistence("create topic", err)
		if topic == nil {
			return nil, err
		}
	}
	return topic, nil
}

// DeleteTopic removes a topic; whichever store handles it reassigns the
// topic's snippets to "uncategorized" in the same observable transition.
func (r *Repository) DeleteTopic(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "topic ID is required")
	}

	if !r.UsingLocalStorage() {
		err := r.remote.DeleteTopic(ctx, id)
		if err == nil || !errors.Is(err, apperror.ErrUnavailable) {
			return err
		}
		r.degrade("delete topic", err)
	}

	err := r.local.DeleteTopic(id)
	if err != nil && errors.Is(err, apperror.ErrPersistence) {
		r.logPersistence("delete topic", err)
		return nil
	}
	return err
}

// ReorderTopics mutates the client-visible topic ordering. Ordering is a
// client-side presentation preference with no remote counterpart, so it
// always goes to the mirror regardless of mode.
func (r *Repository) ReorderTopics(fromIndex, toIndex int) ([]model.Topic, error) {
	topics, err := r.local.ReorderTopics(fromIndex, toIndex)
	if err != nil && errors.Is(err, apperror.ErrPersistence) {
		r.logPersistence("reorder topics", err)
		return topics, nil
	}
	return topics, err
}

// listLocal reads both collections from the mirror and projects topic
// snapshots onto snippets at read time. Joining topicId against the
// current topic collection — rather than trusting the embedded copy —
// keeps renamed topics from diverging on display.
func (r *Repository) listLocal() (*Overview, error) {
	snippets, err := r.local.LoadSnippets()
	if err != nil {
		r.logPersistence("load snippets", err)
	}
	topics, err := r.local.LoadTopics()
	if err != nil {
		r.logPersistence("load topics", err)
	}

	byID := make(map[string]*model.Topic, len(topics))
	for i := range topics {
		byID[topics[i].ID] = &topics[i]
	}
	for i := range snippets {
		if snippets[i].TopicID == "" {
			snippets[i].Topic = nil
			continue
		}
		if topic, ok := byID[snippets[i].TopicID]; ok {
			snapshot := *topic
			snippets[i].Topic = &snapshot
		} else {
			snippets[i].Topic = nil
		}
	}

	return &Overview{
		Snippets:          snippets,
		Topics:            topics,
		UsingLocalStorage: true,
	}, nil
}

// logPersistence records a swallowed mirror failure. Callers never see
// these — the in-memory result is authoritative even when durability or a
// read was lost.
func (r *Repository) logPersistence(op string, err error) {
	r.logger.Warn("local mirror persistence issue",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}
