package history

import (
	"context"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndSearch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.Append(ctx, "https://example.com", "Example Domain"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, "https://go.dev/doc", "Go Docs"); err != nil {
		t.Fatalf("append: %v", err)
	}
	entries, err := store.Search(ctx, "example", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(entries) != 1 || entries[0].URL != "https://example.com" {
		t.Fatalf("unexpected result: %+v", entries)
	}
	if entries[0].Visits != 1 || entries[0].Title != "Example Domain" {
		t.Fatalf("entry fields wrong: %+v", entries[0])
	}
}

func TestRepeatVisitBumpsCount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := store.Append(ctx, "https://example.com", ""); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	entries, err := store.Search(ctx, "example.com", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(entries) != 1 || entries[0].Visits != 3 {
		t.Fatalf("expected 3 visits, got %+v", entries)
	}
}

func TestEmptyTitleDoesNotOverwrite(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.Append(ctx, "https://example.com", "Example Domain"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, "https://example.com", ""); err != nil {
		t.Fatalf("append: %v", err)
	}
	entries, _ := store.Search(ctx, "example", 10)
	if entries[0].Title != "Example Domain" {
		t.Fatalf("title overwritten: %q", entries[0].Title)
	}
}

func TestSetTitle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.Append(ctx, "https://example.com", ""); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.SetTitle(ctx, "https://example.com", "Example"); err != nil {
		t.Fatalf("set title: %v", err)
	}
	entries, _ := store.Search(ctx, "", 10)
	if len(entries) != 1 || entries[0].Title != "Example" {
		t.Fatalf("title not updated: %+v", entries)
	}
}

func TestSearchOrderedByRecency(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Now()
	store.now = func() time.Time { return base }
	if err := store.Append(ctx, "https://old.example.com", ""); err != nil {
		t.Fatalf("append: %v", err)
	}
	store.now = func() time.Time { return base.Add(time.Hour) }
	if err := store.Append(ctx, "https://new.example.com", ""); err != nil {
		t.Fatalf("append: %v", err)
	}
	entries, err := store.Search(ctx, "example", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(entries) != 2 || entries[0].URL != "https://new.example.com" {
		t.Fatalf("recency order wrong: %+v", entries)
	}
}

func TestSearchLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	urls := []string{"https://a.example.com", "https://b.example.com", "https://c.example.com"}
	for _, url := range urls {
		if err := store.Append(ctx, url, ""); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	entries, err := store.Search(ctx, "example", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("limit ignored, got %d entries", len(entries))
	}
}
