package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"vid2audio/internal/converter"
	"vid2audio/internal/probe"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	ok := converter.Succeeded("/in/a.mp4", "/in/a.mp3")
	ok.Duration = probe.Seconds(12.5)
	ok.Elapsed = 1500 * time.Millisecond
	failed := converter.Failed("/in/b.txt", converter.ErrUnsupportedInput)

	if err := store.Record(ctx, ok); err != nil {
		t.Fatalf("Record ok: %v", err)
	}
	if err := store.Record(ctx, failed); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	newest, oldest := entries[0], entries[1]
	if newest.Input != "/in/b.txt" || newest.Status != "failed" || newest.Reason != "unsupported_input" {
		t.Fatalf("unexpected newest entry: %+v", newest)
	}
	if newest.Error == "" {
		t.Fatalf("expected error text on failed entry")
	}
	if oldest.Output != "/in/a.mp3" || oldest.Duration != 12.5 || oldest.Elapsed != 1500*time.Millisecond {
		t.Fatalf("unexpected oldest entry: %+v", oldest)
	}
	if oldest.RunID != store.RunID() || oldest.CreatedAt.IsZero() {
		t.Fatalf("run id or timestamp missing: %+v", oldest)
	}
}

func TestRecentLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := store.Record(ctx, converter.SkippedExists("/in/x.mkv", "/in/x.mp3")); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	entries, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].ID < entries[1].ID {
		t.Fatalf("expected newest first")
	}
}

func TestReopenKeepsRowsWithNewRunID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.Record(context.Background(), converter.Failed("/in/c.mov", errors.New("boom"))); err != nil {
		t.Fatalf("Record: %v", err)
	}
	_ = first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if second.RunID() == first.RunID() {
		t.Fatalf("expected a fresh run id")
	}
	entries, err := second.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].RunID != first.RunID() {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error")
	}
}
