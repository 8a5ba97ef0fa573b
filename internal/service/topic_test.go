package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/varangian-core/mind-place/internal/apperror"
)

func TestTopicCreate_Success(t *testing.T) {
	_, svc, _ := newTestServices(t)

	topic, err := svc.Create(context.Background(), "Notes", "scratch pad", "description")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if topic.ID == "" {
		t.Error("expected topic to have an ID")
	}
	if topic.Icon != "description" {
		t.Errorf("Icon = %q, want %q", topic.Icon, "description")
	}
}

func TestTopicCreate_EmptyName(t *testing.T) {
	_, svc, _ := newTestServices(t)

	_, err := svc.Create(context.Background(), "   ", "", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestTopicCreate_NameTooLong(t *testing.T) {
	_, svc, _ := newTestServices(t)

	_, err := svc.Create(context.Background(), strings.Repeat("x", MaxTopicNameLength+1), "", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestTopicList(t *testing.T) {
	_, svc, _ := newTestServices(t)

	for _, name := range []string{"General", "Code Snippets"} {
		if _, err := svc.Create(context.Background(), name, "", ""); err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
	}

	topics, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(topics) != 2 {
		t.Errorf("List() returned %d topics, want 2", len(topics))
	}
}

func TestTopicDelete(t *testing.T) {
	_, svc, repo := newTestServices(t)

	topic, err := svc.Create(context.Background(), "Temp", "", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(context.Background(), topic.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := repo.topics[topic.ID]; ok {
		t.Error("topic still present after Delete")
	}
}

func TestTopicDelete_NotFound(t *testing.T) {
	_, svc, _ := newTestServices(t)

	err := svc.Delete(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestTopicDelete_EmptyID(t *testing.T) {
	_, svc, _ := newTestServices(t)

	err := svc.Delete(context.Background(), "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}
