package csvbackend

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/FranksOps/scout/internal/storage"
	"github.com/FranksOps/scout/internal/storage/storagetest"
)

func TestCSVBackend(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "scout.csv")

	b, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create CSV backend: %v", err)
	}
	defer b.Close()

	storagetest.Run(t, b)
}

func TestCSVBackendHeaderAndStatus(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "scout.csv")

	b, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create CSV backend: %v", err)
	}
	if err := b.Save(context.Background(), &storage.Record{ID: "x", Topic: "Space"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	b.Close()

	// Reopening must not write a second header.
	b, err = New(filePath)
	if err != nil {
		t.Fatalf("Failed to reopen CSV backend: %v", err)
	}
	b.Close()

	f, err := os.Open(filePath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected header plus 1 row, got %d rows", len(rows))
	}
	if rows[0][0] != "id" {
		t.Errorf("Expected header row, got %v", rows[0])
	}
	if rows[1][2] != "no_news" || rows[1][3] != "0" {
		t.Errorf("Expected status no_news and 0 items, got %v", rows[1])
	}
}

func TestCSVBackendEmptyQuery(t *testing.T) {
	b, err := New(filepath.Join(t.TempDir(), "scout.csv"))
	if err != nil {
		t.Fatalf("Failed to create CSV backend: %v", err)
	}
	defer b.Close()

	got, err := b.Query(context.Background(), storage.Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Expected no records, got %d", len(got))
	}
}
