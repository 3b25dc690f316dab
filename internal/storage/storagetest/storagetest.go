// Package storagetest holds a conformance test shared by the storage
// backends.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/FranksOps/scout/internal/news"
	"github.com/FranksOps/scout/internal/storage"
)

// Run saves two records into an empty backend b and checks every filter,
// ordering and pagination.
func Run(t *testing.T, b storage.Backend) {
	t.Helper()
	ctx := context.Background()
	// Backends round-trip at millisecond precision at best.
	now := time.Now().Truncate(time.Millisecond).UTC()

	ok := &storage.Record{
		ID:    "rec-ok",
		Topic: "Technology",
		Items: []news.Item{
			{Title: "Chip launch", Link: "https://a.example/1", Snippet: "A new chip, says maker", PublishedTime: "2026-10-01", Source: "A"},
			{Title: "Model release", Link: "https://b.example/2", Snippet: "Weights published"},
		},
		FallbackReason: "broadened retry",
		Duration:       1500 * time.Millisecond,
		CreatedAt:      now.Add(-2 * time.Hour),
	}
	failed := &storage.Record{
		ID:        "rec-failed",
		Topic:     "Climate",
		Error:     "retrieve: all 5 query variants failed",
		Duration:  20 * time.Millisecond,
		CreatedAt: now.Add(-1 * time.Hour),
	}

	if err := b.Save(ctx, ok); err != nil {
		t.Fatalf("Failed to save record 1: %v", err)
	}
	if err := b.Save(ctx, failed); err != nil {
		t.Fatalf("Failed to save record 2: %v", err)
	}

	// Topic filter, and a full field comparison
	got := query(t, b, storage.Filter{Topic: "technology"})
	if len(got) != 1 {
		t.Fatalf("Expected 1 result for topic filter, got %d", len(got))
	}
	r := got[0]
	if r.ID != ok.ID || r.Topic != ok.Topic || r.FallbackReason != ok.FallbackReason || r.Error != "" {
		t.Errorf("Unexpected record %+v", r)
	}
	if r.Duration != ok.Duration {
		t.Errorf("Expected duration %v, got %v", ok.Duration, r.Duration)
	}
	if !r.CreatedAt.Equal(ok.CreatedAt) {
		t.Errorf("Expected created_at %v, got %v", ok.CreatedAt, r.CreatedAt)
	}
	if len(r.Items) != 2 || r.Items[0] != ok.Items[0] || r.Items[1] != ok.Items[1] {
		t.Errorf("Items did not round-trip: %+v", r.Items)
	}

	// Failed filter
	yes, no := true, false
	if got := query(t, b, storage.Filter{Failed: &yes}); len(got) != 1 || got[0].ID != failed.ID {
		t.Errorf("Expected only the failed record, got %d", len(got))
	}
	if got := query(t, b, storage.Filter{Failed: &no}); len(got) != 1 || got[0].ID != ok.ID {
		t.Errorf("Expected only the ok record, got %d", len(got))
	}

	// Since filter
	past := now.Add(-90 * time.Minute)
	if got := query(t, b, storage.Filter{Since: &past}); len(got) != 1 || got[0].ID != failed.ID {
		t.Errorf("Expected only the newer record for since filter, got %d", len(got))
	}

	// Ordering, newest first
	all := query(t, b, storage.Filter{})
	if len(all) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(all))
	}
	if all[0].ID != failed.ID {
		t.Errorf("Expected %s first, got %s", failed.ID, all[0].ID)
	}

	if got := query(t, b, storage.Filter{Limit: 1}); len(got) != 1 {
		t.Fatalf("Expected 1 result for limit, got %d", len(got))
	}
	if got := query(t, b, storage.Filter{Offset: 1}); len(got) != 1 || got[0].ID != ok.ID {
		t.Fatalf("Expected %s for offset 1, got %d results", ok.ID, len(got))
	}
}

func query(t *testing.T, b storage.Backend, f storage.Filter) []*storage.Record {
	t.Helper()
	got, err := b.Query(context.Background(), f)
	if err != nil {
		t.Fatalf("Query(%+v): %v", f, err)
	}
	return got
}
