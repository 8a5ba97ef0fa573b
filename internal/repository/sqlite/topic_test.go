package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/varangian-core/mind-place/internal/apperror"
	"github.com/varangian-core/mind-place/internal/model"
)

func TestCreateTopic(t *testing.T) {
	db := newTestDB(t)

	topic := &model.Topic{Name: "General", Description: "General purpose", Icon: "folder"}
	if err := db.CreateTopic(context.Background(), topic); err != nil {
		t.Fatalf("CreateTopic() error = %v", err)
	}
	if topic.ID == "" {
		t.Error("CreateTopic() did not set topic.ID")
	}
	if topic.CreatedAt.IsZero() {
		t.Error("CreateTopic() did not set topic.CreatedAt")
	}
}

func TestListTopics_NameAscendingWithCounts(t *testing.T) {
	db := newTestDB(t)

	notes := createTestTopic(t, db, "Notes")
	general := createTestTopic(t, db, "General")
	createTestTopic(t, db, "Code Snippets")

	createTestSnippet(t, db, "a", "1", notes.ID)
	createTestSnippet(t, db, "b", "2", notes.ID)
	createTestSnippet(t, db, "c", "3", general.ID)

	topics, err := db.ListTopics(context.Background())
	if err != nil {
		t.Fatalf("ListTopics() error = %v", err)
	}
	if len(topics) != 3 {
		t.Fatalf("ListTopics() returned %d topics, want 3", len(topics))
	}

	wantOrder := []string{"Code Snippets", "General", "Notes"}
	wantCounts := []int{0, 1, 2}
	for i, topic := range topics {
		if topic.Name != wantOrder[i] {
			t.Errorf("topics[%d].Name = %q, want %q", i, topic.Name, wantOrder[i])
		}
		if topic.Count == nil {
			t.Fatalf("topics[%d].Count is nil", i)
		}
		if topic.Count.Snippets != wantCounts[i] {
			t.Errorf("topics[%d] count = %d, want %d", i, topic.Count.Snippets, wantCounts[i])
		}
	}
}

func TestGetTopicByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetTopicByID(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDeleteTopic_ReassignsSnippets(t *testing.T) {
	db := newTestDB(t)
	doomed := createTestTopic(t, db, "Doomed")
	kept := createTestTopic(t, db, "Kept")

	inDoomed1 := createTestSnippet(t, db, "one", "1", doomed.ID)
	inDoomed2 := createTestSnippet(t, db, "two", "2", doomed.ID)
	inKept := createTestSnippet(t, db, "three", "3", kept.ID)

	if err := db.DeleteTopic(context.Background(), doomed.ID); err != nil {
		t.Fatalf("DeleteTopic() error = %v", err)
	}

	// The topic is gone.
	if _, err := db.GetTopicByID(context.Background(), doomed.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("deleted topic still retrievable, err = %v", err)
	}

	// Its snippets survive, uncategorized.
	for _, id := range []string{inDoomed1.ID, inDoomed2.ID} {
		snippet, err := db.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID(%s) error = %v", id, err)
		}
		if snippet.TopicID != "" {
			t.Errorf("snippet %s still references deleted topic %q", id, snippet.TopicID)
		}
		if snippet.Topic != nil {
			t.Errorf("snippet %s still carries a topic snapshot", id)
		}
	}

	// Snippets in other topics are untouched.
	snippet, err := db.GetByID(context.Background(), inKept.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if snippet.TopicID != kept.ID {
		t.Errorf("unrelated snippet lost its topic: %q", snippet.TopicID)
	}
}

func TestDeleteTopic_NotFound(t *testing.T) {
	db := newTestDB(t)
	err := db.DeleteTopic(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
