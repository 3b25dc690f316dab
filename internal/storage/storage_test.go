package storage

import (
	"testing"
	"time"

	"github.com/FranksOps/scout/internal/news"
)

func TestNewRecordRoundTrip(t *testing.T) {
	o := news.TopicOutcome{
		Topic:          "Technology",
		Items:          []news.Item{{Title: "t", Link: "https://a.example/1"}},
		FallbackReason: "broadened retry",
		Duration:       2 * time.Second,
	}
	r := NewRecord(o)
	if r.ID == "" {
		t.Fatal("expected an id")
	}
	if r.CreatedAt.IsZero() || r.CreatedAt.Location() != time.UTC {
		t.Errorf("expected UTC creation time, got %v", r.CreatedAt)
	}
	back := r.Outcome()
	if back.Topic != o.Topic || len(back.Items) != 1 || back.FallbackReason != o.FallbackReason || back.Duration != o.Duration {
		t.Errorf("unexpected outcome %+v", back)
	}
	if NewRecord(o).ID == r.ID {
		t.Error("expected unique ids")
	}
}

func TestFilterMatch(t *testing.T) {
	now := time.Now().UTC()
	failed := &Record{Topic: "Climate", Error: "boom", CreatedAt: now}
	ok := &Record{Topic: "Technology", CreatedAt: now.Add(-time.Hour)}

	yes, no := true, false
	since := now.Add(-time.Minute)

	tests := []struct {
		name   string
		filter Filter
		rec    *Record
		want   bool
	}{
		{"empty", Filter{}, ok, true},
		{"topic case-insensitive", Filter{Topic: "technology"}, ok, true},
		{"topic mismatch", Filter{Topic: "Climate"}, ok, false},
		{"failed only", Filter{Failed: &yes}, failed, true},
		{"failed excludes ok", Filter{Failed: &yes}, ok, false},
		{"not failed", Filter{Failed: &no}, ok, true},
		{"since", Filter{Since: &since}, ok, false},
		{"since newer", Filter{Since: &since}, failed, true},
	}
	for _, tt := range tests {
		if got := tt.filter.Match(tt.rec); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestFilterPage(t *testing.T) {
	var recs []*Record
	for _, id := range []string{"a", "b", "c", "d"} {
		recs = append(recs, &Record{ID: id})
	}
	got := Filter{Offset: 1, Limit: 2}.Page(recs)
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
		t.Fatalf("unexpected page %v", ids(got))
	}
	if got := (Filter{Offset: 10}).Page([]*Record{{ID: "x"}}); len(got) != 0 {
		t.Fatalf("expected empty page, got %v", ids(got))
	}
}

func ids(recs []*Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
