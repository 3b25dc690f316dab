package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"

	"github.com/FranksOps/scout/internal/config"
	"github.com/FranksOps/scout/internal/news"
	"github.com/FranksOps/scout/internal/report"
	"github.com/FranksOps/scout/internal/storage"
	"github.com/FranksOps/scout/internal/storage/jsonbackend"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scout.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestHistoryCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "outcomes.ndjson")
	store, err := jsonbackend.New(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	ok := news.TopicOutcome{
		Topic: "Go",
		Items: []news.Item{{Title: "Go 1.30 released", Link: "https://go.dev/blog/go1.30", Source: "go.dev"}},
	}
	failed := news.TopicOutcome{Topic: "Rust", Error: "all queries failed"}
	for _, o := range []news.TopicOutcome{ok, failed} {
		if err := store.Save(t.Context(), storage.NewRecord(o)); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
	}
	store.Close()

	cfg := writeConfig(t, fmt.Sprintf("storage:\n  backend: json\n  path: %q\n", dbPath))

	out, err := execute(t, "--config", cfg, "history", "--failed=false", "-f", "digest")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	want := "## Go\n1. Go 1.30 released (go.dev)\n   https://go.dev/blog/go1.30\n"
	if out != want {
		t.Errorf("expected digest %q, got %q", want, out)
	}

	out, err = execute(t, "--config", cfg, "history", "--failed", "-f", "digest")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "## Rust\n(failed: all queries failed)") {
		t.Errorf("expected failed topic in output, got %q", out)
	}
	if strings.Contains(out, "## Go") {
		t.Errorf("expected successful topic to be filtered out, got %q", out)
	}
}

func TestHistoryRequiresBackend(t *testing.T) {
	cfg := writeConfig(t, "storage:\n  backend: none\n")
	if _, err := execute(t, "--config", cfg, "history"); err == nil {
		t.Fatal("expected error without a storage backend")
	}
}

func TestRunRequiresTopics(t *testing.T) {
	cfg := writeConfig(t, "search:\n  api_key: k\n  engine_id: cx\n")
	_, err := execute(t, "--config", cfg, "run")
	if !errors.Is(err, errNoTopics) {
		t.Errorf("expected errNoTopics, got %v", err)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := writeConfig(t, "search:\n  api_key: k\n  engine_id: cx\n")
	_, err := execute(t, "--config", cfg, "run", "--strategy", "oracle", "Go")
	if err == nil || !strings.Contains(err.Error(), "judge.strategy") {
		t.Errorf("expected judge.strategy error, got %v", err)
	}
}

func TestRunCommand(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		// w2 shows up if the judge asks for a broadened retry.
		if got := r.URL.Query().Get("dateRestrict"); got != "w1" && got != "w2" {
			t.Errorf("expected dateRestrict w1 or w2, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[{
			"title":"Chipmaker launches new processor",
			"link":"https://www.reuters.com/technology/2026/10/18/chipmaker-launches-new-processor/",
			"snippet":"Oct 18, 2026 The company announced a 30% faster chip on Tuesday, its chief executive said in a statement.",
			"displayLink":"www.reuters.com"
		}]}`)
	}))
	defer srv.Close()

	dbPath := filepath.Join(t.TempDir(), "outcomes.csv")
	cfg := writeConfig(t, fmt.Sprintf(`search:
  api_key: k
  engine_id: cx
  base_url: %q
retrieval:
  page_delay: -1ns
storage:
  backend: csv
  path: %q
`, srv.URL, dbPath))

	out, err := execute(t, "--config", cfg, "run", "--window", "w1", "-f", "json", "Technology")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if calls.Load() == 0 {
		t.Fatal("expected the search API to be called")
	}

	var summary report.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("failed to decode summary: %v\n%s", err, out)
	}
	if summary.Topics != 1 || summary.Failed != 0 {
		t.Errorf("expected 1 topic and 0 failures, got %+v", summary)
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("expected outcome to be stored: %v", err)
	}
}

func TestOverridesApply(t *testing.T) {
	o := &overrides{}
	cmd := &cobra.Command{Use: "run"}
	o.register(cmd)
	if err := cmd.ParseFlags([]string{"--limit", "3", "--window", "w1"}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	cfg := &config.Config{}
	cfg.Judge.Strategy = "ai"
	cfg.Judge.Limit = 5
	cfg.Retrieval.DateWindow = "d3"
	cfg.AI.QueryEnabled = true

	o.apply(cmd, cfg)

	if cfg.Judge.Limit != 3 || cfg.Retrieval.DateWindow != "w1" {
		t.Errorf("expected limit 3 and window w1, got %d and %q", cfg.Judge.Limit, cfg.Retrieval.DateWindow)
	}
	if cfg.Judge.Strategy != "ai" || !cfg.AI.QueryEnabled {
		t.Errorf("expected unset flags to leave config alone, got %+v", cfg.Judge)
	}
}

func TestOpenBackend(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     config.StorageConfig
		wantNil bool
		wantErr bool
	}{
		{"none", config.StorageConfig{Backend: "none"}, true, false},
		{"empty", config.StorageConfig{}, true, false},
		{"json", config.StorageConfig{Backend: "json", Path: filepath.Join(dir, "o.ndjson")}, false, false},
		{"csv", config.StorageConfig{Backend: "csv", Path: filepath.Join(dir, "o.csv")}, false, false},
		{"sqlite", config.StorageConfig{Backend: "sqlite", Path: filepath.Join(dir, "o.db")}, false, false},
		{"unknown", config.StorageConfig{Backend: "redis"}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := openBackend(t.Context(), tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if (b == nil) != tt.wantNil {
				t.Fatalf("expected nil backend %v, got %v", tt.wantNil, b)
			}
			if b != nil {
				b.Close()
			}
		})
	}
}

func TestWriteOutcomesUnknownFormat(t *testing.T) {
	if err := writeOutcomes(&bytes.Buffer{}, "yaml", nil); err == nil {
		t.Error("expected error for unknown format")
	}
}
