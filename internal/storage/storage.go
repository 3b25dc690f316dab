package storage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FranksOps/scout/internal/news"
)

// Record is one topic outcome handed to a downstream sink.
type Record struct {
	ID             string        `json:"id"`
	Topic          string        `json:"topic"`
	Items          []news.Item   `json:"items"`
	Error          string        `json:"error,omitempty"`
	FallbackReason string        `json:"fallback_reason,omitempty"`
	Duration       time.Duration `json:"duration"`
	CreatedAt      time.Time     `json:"created_at"`
}

// NewRecord wraps an outcome with a fresh id and timestamp.
func NewRecord(o news.TopicOutcome) *Record {
	return &Record{
		ID:             uuid.NewString(),
		Topic:          o.Topic,
		Items:          o.Items,
		Error:          o.Error,
		FallbackReason: o.FallbackReason,
		Duration:       o.Duration,
		CreatedAt:      time.Now().UTC(),
	}
}

// Outcome converts the record back into a TopicOutcome.
func (r *Record) Outcome() news.TopicOutcome {
	return news.TopicOutcome{
		Topic:          r.Topic,
		Items:          r.Items,
		Error:          r.Error,
		FallbackReason: r.FallbackReason,
		Duration:       r.Duration,
	}
}

// Filter allows querying for specific Records.
type Filter struct {
	Topic  string // case-insensitive exact match
	Failed *bool
	Since  *time.Time
	Limit  int
	Offset int
}

// Match reports whether r passes the filter's predicates. Limit and Offset
// are not considered.
func (f Filter) Match(r *Record) bool {
	if f.Topic != "" && !strings.EqualFold(r.Topic, f.Topic) {
		return false
	}
	if f.Failed != nil && (r.Error != "") != *f.Failed {
		return false
	}
	if f.Since != nil && r.CreatedAt.Before(*f.Since) {
		return false
	}
	return true
}

// Page orders records newest first, given in insertion order, and applies
// Offset and Limit.
func (f Filter) Page(records []*Record) []*Record {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	if f.Offset > 0 {
		if f.Offset >= len(records) {
			return []*Record{}
		}
		records = records[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(records) {
		records = records[:f.Limit]
	}
	return records
}

// Backend defines the interface for storing and querying outcome records.
type Backend interface {
	Save(ctx context.Context, rec *Record) error
	Query(ctx context.Context, filter Filter) ([]*Record, error)
	Close() error
}
