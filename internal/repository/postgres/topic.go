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

var _ repository.TopicRepository = (*DB)(nil)

func (db *DB) CreateTopic(ctx context.Context, topic *model.Topic) error {
	topic.ID = xid.New().String()
	topic.CreatedAt = time.Now().UTC()

	_, err := db.pool.Exec(ctx,
		`INSERT INTO topics (id, name, description, icon, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		topic.ID,
		topic.Name,
		topic.Description,
		topic.Icon,
		topic.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: creating topic: %w", err)
	}
	return nil
}

func (db *DB) GetTopicByID(ctx context.Context, id string) (*model.Topic, error) {
	var t model.Topic
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, description, icon, created_at FROM topics WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &t.Description, &t.Icon, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("topic", id)
		}
		return nil, fmt.Errorf("postgres: getting topic %s: %w", id, err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

func (db *DB) ListTopics(ctx context.Context) ([]model.Topic, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT t.id, t.name, t.description, t.icon, t.created_at, COUNT(s.id)
		 FROM topics t
		 LEFT JOIN snippets s ON s.topic_id = t.id
		 GROUP BY t.id, t.name, t.description, t.icon, t.created_at
		 ORDER BY t.name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing topics: %w", err)
	}
	defer rows.Close()

	var topics []model.Topic
	for rows.Next() {
		var (
			t     model.Topic
			count int
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Icon, &t.CreatedAt, &count); err != nil {
			return nil, fmt.Errorf("postgres: scanning topic row: %w", err)
		}
		t.CreatedAt = t.CreatedAt.UTC()
		t.Count = &model.TopicCount{Snippets: count}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating topics: %w", err)
	}
	if topics == nil {
		topics = []model.Topic{}
	}
	return topics, nil
}

// DeleteTopic runs the reassignment and the delete in one transaction so
// no committed state has a snippet referencing a missing topic.
func (db *DB) DeleteTopic(ctx context.Context, id string) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: beginning delete transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE snippets SET topic_id = NULL WHERE topic_id = $1`, id,
	); err != nil {
		return fmt.Errorf("postgres: reassigning snippets for topic %s: %w", id, err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM topics WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deleting topic %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("topic", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: committing topic delete: %w", err)
	}
	return nil
}
