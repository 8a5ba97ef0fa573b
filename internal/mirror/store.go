// Package mirror implements the client-side persisted mirror of snippets
// and topics: a pair of JSON files usable with no backend at all.
//
// The store never blocks its caller on storage trouble. Reads that hit a
// missing or unparseable file behave as "no data yet"; writes that fail
// are reported alongside a valid in-memory result so the caller can log
// and carry on. The reconciling repository owns that log-and-continue
// policy — the store just surfaces what happened.
//
// Collections are small (bounded by manual user entry), so lookups are
// linear scans and every mutation rewrites the whole collection. A mutex
// serializes mutations: even on a single goroutine, overlapping
// read-modify-write cycles on "the entire collection" would otherwise race.
package mirror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/varangian-core/mind-place/internal/apperror"
	"github.com/varangian-core/mind-place/internal/model"
)

const (
	snippetsFile = "snippets.json"
	topicsFile   = "topics.json"

	// payloadVersion tags the persisted envelope so a future format change
	// has a migration hook. Version 0 (absent field) is treated as 1.
	payloadVersion = 1
)

// snippetPayload and topicPayload are the on-disk envelopes. Two
// independent files under fixed names, mirroring the two localStorage
// keys the web client used.
type snippetPayload struct {
	Version  int             `json:"version"`
	Snippets []model.Snippet `json:"snippets"`
}

type topicPayload struct {
	Version int           `json:"version"`
	Topics  []model.Topic `json:"topics"`
}

// Store persists snippet and topic collections as JSON files in dir.
type Store struct {
	dir string

	mu sync.Mutex
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mirror: creating data directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// seedTopics is the fixed set a fresh store starts with, in this order.
func seedTopics() []model.Topic {
	now := time.Now().UTC()
	return []model.Topic{
		{ID: model.NewLocalTopicID(), Name: "General", Description: "General purpose snippets", Icon: "folder", CreatedAt: now},
		{ID: model.NewLocalTopicID(), Name: "Code Snippets", Description: "Reusable pieces of code", Icon: "code", CreatedAt: now},
		{ID: model.NewLocalTopicID(), Name: "Notes", Description: "Quick notes and thoughts", Icon: "description", CreatedAt: now},
	}
}

// LoadSnippets returns the persisted snippet collection.
//
// A missing file means an empty collection. A file that fails to parse is
// treated the same way, but the parse failure is returned (wrapped as
// ErrPersistence) so the caller can log it; the returned slice is still
// valid to use.
func (s *Store) LoadSnippets() ([]model.Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadSnippetsLocked()
}

// LoadTopics returns the persisted topic collection, lazily seeding the
// default topics on first use. Seeding happens at most once per fresh data
// directory: the seeded set is persisted before it is returned, so a second
// call reads it back instead of re-seeding.
func (s *Store) LoadTopics() ([]model.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadTopicsLocked()
}

// SaveSnippets overwrites the entire persisted snippet collection.
func (s *Store) SaveSnippets(snippets []model.Snippet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveSnippetsLocked(snippets)
}

// SaveTopics overwrites the entire persisted topic collection.
func (s *Store) SaveTopics(topics []model.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveTopicsLocked(topics)
}

// CreateSnippet generates a fresh local ID and UTC timestamp, resolves the
// topic snapshot if topicID is supplied and known, appends the snippet to
// the persisted collection and returns it.
//
// The returned snippet is valid even when err is non-nil: a non-nil error
// here always wraps ErrPersistence and means durability, not correctness,
// was lost.
func (s *Store) CreateSnippet(name, content, topicID string) (*model.Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snippet := model.Snippet{
		ID:        model.NewLocalSnippetID(),
		Name:      name,
		Content:   content,
		CreatedAt: time.Now().UTC(),
		TopicID:   topicID,
	}

	var loadErr error
	if topicID != "" {
		topics, err := s.loadTopicsLocked()
		loadErr = err
		for i := range topics {
			if topics[i].ID == topicID {
				t := topics[i]
				snippet.Topic = &t
				break
			}
		}
	}

	snippets, err := s.loadSnippetsLocked()
	if loadErr == nil {
		loadErr = err
	}
	snippets = append(snippets, snippet)
	if err := s.saveSnippetsLocked(snippets); err != nil {
		return &snippet, err
	}
	return &snippet, loadErr
}

// CreateTopic generates a fresh local topic ID, appends and persists.
func (s *Store) CreateTopic(name, description, icon string) (*model.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	topic := model.Topic{
		ID:          model.NewLocalTopicID(),
		Name:        name,
		Description: description,
		Icon:        icon,
		CreatedAt:   time.Now().UTC(),
	}

	topics, loadErr := s.loadTopicsLocked()
	topics = append(topics, topic)
	if err := s.saveTopicsLocked(topics); err != nil {
		return &topic, err
	}
	return &topic, loadErr
}

// FindSnippetByID returns the snippet with the given ID, or ErrNotFound.
// Absence is a normal outcome, not a failure path.
func (s *Store) FindSnippetByID(id string) (*model.Snippet, error) {
	snippets, err := s.LoadSnippets()
	if err != nil {
		return nil, err
	}
	for i := range snippets {
		if snippets[i].ID == id {
			found := snippets[i]
			return &found, nil
		}
	}
	return nil, apperror.NotFound("snippet", id)
}

// FindTopicByID returns the topic with the given ID, or ErrNotFound.
func (s *Store) FindTopicByID(id string) (*model.Topic, error) {
	topics, err := s.LoadTopics()
	if err != nil {
		return nil, err
	}
	for i := range topics {
		if topics[i].ID == id {
			found := topics[i]
			return &found, nil
		}
	}
	return nil, apperror.NotFound("topic", id)
}

// DeleteTopic removes the topic and reassigns every snippet that referenced
// it to "uncategorized" (topicId and the cached topic snapshot cleared).
//
// Both collections are rewritten before returning, snippets first: if the
// second write fails, the surviving state has orphan-free snippets and a
// still-present topic, which keeps the referential invariant intact. No
// intermediate state where a snippet references a missing topic is ever
// persisted.
func (s *Store) DeleteTopic(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	topics, loadErr := s.loadTopicsLocked()
	idx := -1
	for i := range topics {
		if topics[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return apperror.NotFound("topic", id)
	}

	snippets, err := s.loadSnippetsLocked()
	if loadErr == nil {
		loadErr = err
	}
	changed := false
	for i := range snippets {
		if snippets[i].TopicID == id || (snippets[i].Topic != nil && snippets[i].Topic.ID == id) {
			snippets[i].TopicID = ""
			snippets[i].Topic = nil
			changed = true
		}
	}
	if changed {
		if err := s.saveSnippetsLocked(snippets); err != nil {
			return err
		}
	}

	topics = append(topics[:idx], topics[idx+1:]...)
	if err := s.saveTopicsLocked(topics); err != nil {
		return err
	}
	return loadErr
}

// ReorderTopics moves the topic at fromIndex to toIndex and persists the
// new ordering immediately. Out-of-range indexes are a validation error.
func (s *Store) ReorderTopics(fromIndex, toIndex int) ([]model.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	topics, loadErr := s.loadTopicsLocked()
	n := len(topics)
	if fromIndex < 0 || fromIndex >= n {
		return nil, apperror.ValidationFailed("fromIndex", fmt.Sprintf("index %d out of range [0,%d)", fromIndex, n))
	}
	if toIndex < 0 || toIndex >= n {
		return nil, apperror.ValidationFailed("toIndex", fmt.Sprintf("index %d out of range [0,%d)", toIndex, n))
	}
	if fromIndex == toIndex {
		return topics, loadErr
	}

	moved := topics[fromIndex]
	topics = append(topics[:fromIndex], topics[fromIndex+1:]...)
	rest := append([]model.Topic{}, topics[toIndex:]...)
	topics = append(append(topics[:toIndex], moved), rest...)

	if err := s.saveTopicsLocked(topics); err != nil {
		return topics, err
	}
	return topics, loadErr
}

// --- unexported plumbing -------------------------------------------------

func (s *Store) loadSnippetsLocked() ([]model.Snippet, error) {
	var p snippetPayload
	err := s.readFile(snippetsFile, &p)
	if p.Snippets == nil {
		p.Snippets = []model.Snippet{}
	}
	return p.Snippets, err
}

func (s *Store) loadTopicsLocked() ([]model.Topic, error) {
	var p topicPayload
	err := s.readFile(topicsFile, &p)
	if err == nil && !s.fileExists(topicsFile) {
		// Fresh storage area: seed the defaults and persist them so the
		// next load returns the same three topics without re-seeding.
		seeded := seedTopics()
		if saveErr := s.saveTopicsLocked(seeded); saveErr != nil {
			return seeded, saveErr
		}
		return seeded, nil
	}
	if p.Topics == nil {
		p.Topics = []model.Topic{}
	}
	return p.Topics, err
}

func (s *Store) saveSnippetsLocked(snippets []model.Snippet) error {
	return s.writeFile(snippetsFile, snippetPayload{Version: payloadVersion, Snippets: snippets})
}

func (s *Store) saveTopicsLocked(topics []model.Topic) error {
	return s.writeFile(topicsFile, topicPayload{Version: payloadVersion, Topics: topics})
}

func (s *Store) fileExists(name string) bool {
	_, err := os.Stat(filepath.Join(s.dir, name))
	return err == nil
}

// readFile decodes name into v. Missing file: zero value, nil error.
// Unreadable or corrupt file: zero value plus an ErrPersistence wrapper —
// the caller treats the data as "none yet" and may log the cause.
func (s *Store) readFile(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return apperror.PersistenceFailed("read "+name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperror.PersistenceFailed("parse "+name, err)
	}
	return nil
}

// writeFile marshals v and replaces name atomically (temp file + rename),
// so a crash mid-write never leaves a half-written collection behind.
func (s *Store) writeFile(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperror.PersistenceFailed("encode "+name, err)
	}
	tmp := filepath.Join(s.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperror.PersistenceFailed("write "+name, err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp)
		return apperror.PersistenceFailed("replace "+name, err)
	}
	return nil
}
