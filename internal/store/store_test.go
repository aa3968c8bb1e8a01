package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestArticleRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sent, err := s.ArticleSent(ctx, "https://a/1")
	if err != nil {
		t.Fatalf("ArticleSent: %v", err)
	}
	if sent {
		t.Error("fresh store should report unsent")
	}

	if err := s.MarkArticle(ctx, "https://a/1", "Title", "coindesk"); err != nil {
		t.Fatalf("MarkArticle: %v", err)
	}

	sent, err = s.ArticleSent(ctx, "https://a/1")
	if err != nil {
		t.Fatalf("ArticleSent: %v", err)
	}
	if !sent {
		t.Error("marked article should report sent")
	}
}

func TestMarkArticleIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.MarkArticle(ctx, "https://a/1", "Title", "coindesk"); err != nil {
			t.Fatalf("MarkArticle attempt %d: %v", i+1, err)
		}
	}

	st, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if st.Articles != 1 {
		t.Errorf("articles = %d, want 1 (recording an existing key is a no-op)", st.Articles)
	}
}

func TestRoundKeyIsProjectPlusType(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := 25.0
	if err := s.MarkRound(ctx, "Acme Labs", "Seed", &a, "https://n/1"); err != nil {
		t.Fatalf("MarkRound: %v", err)
	}

	sent, err := s.RoundSent(ctx, "ACME LABS", "Seed")
	if err != nil {
		t.Fatalf("RoundSent: %v", err)
	}
	if !sent {
		t.Error("project match must be case-insensitive")
	}

	sent, err = s.RoundSent(ctx, "Acme Labs", "Series A")
	if err != nil {
		t.Fatalf("RoundSent: %v", err)
	}
	if sent {
		t.Error("a different round type is a different key")
	}
}

func TestMarkRoundNilAmount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.MarkRound(ctx, "Stealth", "unknown", nil, ""); err != nil {
		t.Fatalf("MarkRound with nil amount: %v", err)
	}

	sent, err := s.RoundSent(ctx, "stealth", "unknown")
	if err != nil {
		t.Fatalf("RoundSent: %v", err)
	}
	if !sent {
		t.Error("round with undisclosed amount should still be recorded")
	}
}

func TestPrune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.MarkArticle(ctx, "https://a/old", "Old", "x"); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkArticle(ctx, "https://a/new", "New", "x"); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkRound(ctx, "oldco", "Seed", nil, ""); err != nil {
		t.Fatal(err)
	}

	// Age two of the rows past the retention window.
	old := time.Now().Add(-40 * 24 * time.Hour).UTC().Format("2006-01-02 15:04:05")
	if _, err := s.db.Exec(`UPDATE sent_articles SET sent_at = ? WHERE url = ?`, old, "https://a/old"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.Exec(`UPDATE sent_rounds SET sent_at = ?`, old); err != nil {
		t.Fatal(err)
	}

	removed, err := s.Prune(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	sent, err := s.ArticleSent(ctx, "https://a/new")
	if err != nil || !sent {
		t.Errorf("recent article must survive pruning (sent=%v err=%v)", sent, err)
	}
	sent, err = s.ArticleSent(ctx, "https://a/old")
	if err != nil || sent {
		t.Errorf("pruned article must be forgotten (sent=%v err=%v)", sent, err)
	}
}
