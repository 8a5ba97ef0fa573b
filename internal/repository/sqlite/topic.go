package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/varangian-core/mind-place/internal/apperror"
	"github.com/varangian-core/mind-place/internal/model"
	"github.com/varangian-core/mind-place/internal/repository"
)

var _ repository.TopicRepository = (*DB)(nil)

// CreateTopic inserts a new topic, generating its ID and timestamp.
func (db *DB) CreateTopic(ctx context.Context, topic *model.Topic) error {
	topic.ID = xid.New().String()
	topic.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO topics (id, name, description, icon, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		topic.ID,
		topic.Name,
		topic.Description,
		topic.Icon,
		topic.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating topic: %w", err)
	}
	return nil
}

// GetTopicByID retrieves a single topic without its derived count.
func (db *DB) GetTopicByID(ctx context.Context, id string) (*model.Topic, error) {
	var t model.Topic
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, description, icon, created_at FROM topics WHERE id = ?`,
		id,
	).Scan(&t.ID, &t.Name, &t.Description, &t.Icon, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("topic", id)
		}
		return nil, fmt.Errorf("sqlite: getting topic %s: %w", id, err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

// ListTopics returns all topics by name ascending, each annotated with its
// snippet count. The count is computed here, at read time — nothing
// maintains it incrementally.
func (db *DB) ListTopics(ctx context.Context) ([]model.Topic, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT t.id, t.name, t.description, t.icon, t.created_at, COUNT(s.id)
		 FROM topics t
		 LEFT JOIN snippets s ON s.topic_id = t.id
		 GROUP BY t.id, t.name, t.description, t.icon, t.created_at
		 ORDER BY t.name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing topics: %w", err)
	}
	defer rows.Close()

	var topics []model.Topic
	for rows.Next() {
		var (
			t     model.Topic
			count int
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Icon, &t.CreatedAt, &count); err != nil {
			return nil, fmt.Errorf("sqlite: scanning topic row: %w", err)
		}
		t.CreatedAt = t.CreatedAt.UTC()
		t.Count = &model.TopicCount{Snippets: count}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating topics: %w", err)
	}
	if topics == nil {
		topics = []model.Topic{}
	}
	return topics, nil
}

// DeleteTopic reassigns every snippet referencing the topic to
// "uncategorized" and removes the topic, in one transaction. No committed
// state ever has a snippet pointing at a missing topic.
func (db *DB) DeleteTopic(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE snippets SET topic_id = NULL WHERE topic_id = ?`, id,
	); err != nil {
		return fmt.Errorf("sqlite: reassigning snippets for topic %s: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM topics WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting topic %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("topic", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing topic delete: %w", err)
	}
	return nil
}
