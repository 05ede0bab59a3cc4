package pgstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/five82/postboard/internal/post"
	"github.com/five82/postboard/internal/poststore"
)

// These tests run only when POSTBOARD_TEST_PG_DSN points at a disposable database.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("POSTBOARD_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("POSTBOARD_TEST_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	s, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.pool.Exec(ctx, `TRUNCATE posts`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Lifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	first, err := s.Create(ctx, post.Post{Title: "a", Content: "a", CreatedAt: post.Timestamp(base), Active: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := s.Create(ctx, post.Post{Title: "b", Content: "b", CreatedAt: post.Timestamp(base.Add(time.Minute)), Active: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	posts, err := s.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != second || posts[1].ID != first {
		t.Fatalf("ListActive = %#v, want [second first]", posts)
	}

	if err := s.Update(ctx, first, post.Draft{Title: "a2", Content: "a2"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := s.SoftDelete(ctx, second); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	posts, err = s.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "a2" || posts[0].UpdatedAt == "" {
		t.Fatalf("ListActive after edits = %#v", posts)
	}

	if err := s.Update(ctx, "missing", post.Draft{Title: "x", Content: "y"}); !errors.Is(err, poststore.ErrNotFound) {
		t.Fatalf("Update missing error = %v, want ErrNotFound", err)
	}
}
