package model

import "time"

// Topic is a named category that snippets can belong to.
//
// Icon is a symbolic name the frontend maps to an actual glyph — opaque to
// the server and to the reconciliation layer.
type Topic struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Icon        string      `json:"icon,omitempty"`
	CreatedAt   time.Time   `json:"createdAt,omitzero"`
	Count       *TopicCount `json:"_count,omitempty"`
}

// TopicCount carries derived counters computed by the backend at read time.
// The local mirror does not maintain these — they are absent or stale for
// local topics and must never be used to enforce invariants.
type TopicCount struct {
	Snippets int `json:"snippets"`
}
