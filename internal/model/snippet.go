// Package model defines the data structures shared by every layer of
// MindPlace. The JSON struct tags match the wire format the web client
// historically consumed, so field names like "topicId" and "_count" are
// part of the public API and must not change casually.
package model

import "time"

// Snippet is a named piece of markdown text, optionally filed under a Topic.
//
// TopicID owns the relation. Topic is a denormalized snapshot attached at
// creation/read time for display convenience — it is a cache, never a second
// source of truth. Readers that need current topic data must join TopicID
// against the topic collection.
//
// CreatedAt is always stored and transmitted in UTC (RFC 3339); conversion
// to a viewer's local zone is a display concern.
type Snippet struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	TopicID   string    `json:"topicId,omitempty"`
	Topic     *Topic    `json:"topic,omitempty"`
}
