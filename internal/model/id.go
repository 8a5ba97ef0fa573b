package model

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Local ID scheme: <prefix>-<millisecond timestamp>-<random base36 suffix>.
//
// Entities created without the backend get these IDs instead of the opaque
// server-assigned ones. The timestamp plus random suffix makes collisions
// astronomically unlikely without a central allocator, and the prefix lets
// the UI tell "not yet synced" entities apart at a glance.

const localSuffixLen = 7

// NewLocalSnippetID generates an ID for a snippet created against the
// local mirror, e.g. "local-1735689600000-k3x9f2a".
func NewLocalSnippetID() string {
	return newLocalID("local")
}

// NewLocalTopicID generates an ID for a locally created topic,
// e.g. "topic-1735689600000-p8d41zq".
func NewLocalTopicID() string {
	return newLocalID("topic")
}

func newLocalID(prefix string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), randBase36(localSuffixLen))
}

func randBase36(n int) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[rand.Intn(len(alphabet))])
	}
	return b.String()
}
