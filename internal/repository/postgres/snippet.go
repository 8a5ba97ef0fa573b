package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/varangian-core/mind-place/internal/apperror"
	"github.com/varangian-core/mind-place/internal/model"
	"github.com/varangian-core/mind-place/internal/repository"
)

var _ repository.SnippetRepository = (*DB)(nil)

func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()
	snippet.CreatedAt = time.Now().UTC()

	var topicID *string
	if snippet.TopicID != "" {
		topicID = &snippet.TopicID
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO snippets (id, name, content, created_at, topic_id)
		 VALUES ($1, $2, $3, $4, $5)`,
		snippet.ID,
		snippet.Name,
		snippet.Content,
		snippet.CreatedAt,
		topicID,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating snippet: %w", err)
	}

	if snippet.TopicID != "" {
		if topic, err := db.GetTopicByID(ctx, snippet.TopicID); err == nil {
			snippet.Topic = topic
		}
	}
	return nil
}

func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT s.id, s.name, s.content, s.created_at, s.topic_id,
		        t.id, t.name, t.description, t.icon
		 FROM snippets s
		 LEFT JOIN topics t ON t.id = s.topic_id
		 WHERE s.id = $1`,
		id,
	)

	snippet, err := scanSnippet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("postgres: getting snippet %s: %w", id, err)
	}
	return snippet, nil
}

func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.pool.Query(ctx,
		`SELECT s.id, s.name, s.content, s.created_at, s.topic_id,
		        t.id, t.name, t.description, t.icon
		 FROM snippets s
		 LEFT JOIN topics t ON t.id = s.topic_id
		 ORDER BY s.created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0, limit)
	for rows.Next() {
		snippet, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *snippet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating snippets: %w", err)
	}
	return snippets, nil
}

func scanSnippet(row pgx.Row) (*model.Snippet, error) {
	var (
		s       model.Snippet
		topicID *string
		tID     *string
		tName   *string
		tDesc   *string
		tIcon   *string
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Content, &s.CreatedAt, &topicID,
		&tID, &tName, &tDesc, &tIcon); err != nil {
		return nil, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	if topicID != nil {
		s.TopicID = *topicID
	}
	if tID != nil {
		s.Topic = &model.Topic{
			ID:          *tID,
			Name:        *tName,
			Description: *tDesc,
			Icon:        *tIcon,
		}
	}
	return &s, nil
}
