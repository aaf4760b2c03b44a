// Package models holds the persisted shapes shared across SpecMem's
// storage, search, and drilldown packages.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies which side of a conversation produced a Memory.
type Role string

// Recognized conversational roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleUnknown   Role = ""
)

// Memory is a single stored conversational turn or note, optionally
// carrying a vector embedding for semantic search.
type Memory struct {
	ID        uuid.UUID
	Content   string
	Tags      []string
	Metadata  map[string]any
	Embedding []float32
	CreatedAt time.Time
}

// Role extracts the conversational role from explicit metadata first,
// then falls back to a `role:user`/`role:assistant` tag.
func (m *Memory) Role() Role {
	if m.Metadata != nil {
		if v, ok := m.Metadata["role"]; ok {
			if s, ok := v.(string); ok && s != "" {
				return Role(s)
			}
		}
	}
	for _, tag := range m.Tags {
		switch tag {
		case "role:user":
			return RoleUser
		case "role:assistant":
			return RoleAssistant
		}
	}
	return RoleUnknown
}

// SessionID extracts metadata.sessionId, or "" if absent.
func (m *Memory) SessionID() string {
	if m.Metadata == nil {
		return ""
	}
	if v, ok := m.Metadata["sessionId"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Timestamp returns metadata.timestamp if present and parseable, else the
// zero time. OrderingTime adds the documented fallback to CreatedAt for
// callers needing a canonical order.
func (m *Memory) Timestamp() (time.Time, bool) {
	if m.Metadata == nil {
		return time.Time{}, false
	}
	v, ok := m.Metadata["timestamp"]
	if !ok {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}

// OrderingTime is the canonical UTC instant used to order a Memory
// within its session: metadata.timestamp when present, else CreatedAt.
// There is deliberately no secondary tie-breaker.
func (m *Memory) OrderingTime() time.Time {
	if ts, ok := m.Timestamp(); ok {
		return ts.UTC()
	}
	return m.CreatedAt.UTC()
}

// SearchHit is a Memory returned from a vector similarity query, carrying
// the distance-derived similarity score used for ranking and display.
type SearchHit struct {
	Memory     Memory
	Similarity float64
}
