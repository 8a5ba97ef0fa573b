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

// Compile-time check that *DB satisfies the repository interface.
var _ repository.SnippetRepository = (*DB)(nil)

// Create inserts a new snippet. The ID (xid: 20 chars, URL-safe, sortable
// by creation time) and UTC timestamp are generated here; the caller's
// struct is updated in place, and the topic snapshot is resolved when a
// topic reference is supplied.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()
	snippet.CreatedAt = time.Now().UTC()

	var topicID sql.NullString
	if snippet.TopicID != "" {
		topicID = sql.NullString{String: snippet.TopicID, Valid: true}
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO snippets (id, name, content, created_at, topic_id)
		 VALUES (?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Name,
		snippet.Content,
		snippet.CreatedAt,
		topicID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	if snippet.TopicID != "" {
		if topic, err := db.GetTopicByID(ctx, snippet.TopicID); err == nil {
			snippet.Topic = topic
		}
	}
	return nil
}

// GetByID retrieves a single snippet with its topic snapshot joined in.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT s.id, s.name, s.content, s.created_at, s.topic_id,
		        t.id, t.name, t.description, t.icon
		 FROM snippets s
		 LEFT JOIN topics t ON t.id = s.topic_id
		 WHERE s.id = ?`,
		id,
	)

	snippet, err := scanSnippet(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}
	return snippet, nil
}

// List retrieves snippets newest first, topic snapshots included.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT s.id, s.name, s.content, s.created_at, s.topic_id,
		        t.id, t.name, t.description, t.icon
		 FROM snippets s
		 LEFT JOIN topics t ON t.id = s.topic_id
		 ORDER BY s.created_at DESC
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0, limit)
	for rows.Next() {
		snippet, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *snippet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}
	return snippets, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnippet(sc scanner) (*model.Snippet, error) {
	var (
		s       model.Snippet
		topicID sql.NullString
		tID     sql.NullString
		tName   sql.NullString
		tDesc   sql.NullString
		tIcon   sql.NullString
	)
	if err := sc.Scan(&s.ID, &s.Name, &s.Content, &s.CreatedAt, &topicID,
		&tID, &tName, &tDesc, &tIcon); err != nil {
		return nil, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	if topicID.Valid {
		s.TopicID = topicID.String
	}
	if tID.Valid {
		s.Topic = &model.Topic{
			ID:          tID.String,
			Name:        tName.String,
			Description: tDesc.String,
			Icon:        tIcon.String,
		}
	}
	return &s, nil
}
