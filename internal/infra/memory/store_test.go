package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"food-quiz-service/internal/domain"
)

func TestStoreQuizLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	if err := store.CreateQuiz(ctx, sampleQuiz()); err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if err := store.CreateQuiz(ctx, sampleQuiz()); !errors.Is(err, domain.ErrSlugTaken) {
		t.Fatalf("expected slug taken, got %v", err)
	}

	got, err := store.GetQuiz(ctx, "abc123")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if got.Title != "My top 10" || len(got.Items) != 10 {
		t.Fatalf("unexpected quiz %+v", got)
	}

	got.Items[0] = "mutated"
	again, _ := store.GetQuiz(ctx, "abc123")
	if again.Items[0] != "sushi" {
		t.Fatalf("store leaked its item slice")
	}

	if err := store.DeleteQuiz(ctx, "abc123"); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}
	if _, err := store.GetQuiz(ctx, "abc123"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestStoreLeaderboardOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.CreateQuiz(ctx, sampleQuiz())

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	subs := []domain.Submission{
		{ID: "01", Slug: "abc123", Nickname: "late-high", Score: 90, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "02", Slug: "abc123", Nickname: "early-high", Score: 90, CreatedAt: base},
		{ID: "03", Slug: "abc123", Nickname: "low", Score: 40, CreatedAt: base.Add(-time.Hour)},
		{ID: "04", Slug: "abc123", Nickname: "top", Score: 100, CreatedAt: base.Add(time.Hour)},
	}
	for _, sub := range subs {
		if err := store.CreateSubmission(ctx, sub); err != nil {
			t.Fatalf("create submission: %v", err)
		}
	}

	entries, err := store.ListLeaderboard(ctx, "abc123", 3)
	if err != nil {
		t.Fatalf("list leaderboard: %v", err)
	}
	want := []string{"top", "early-high", "late-high"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, name := range want {
		if entries[i].Nickname != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, entries[i].Nickname)
		}
	}
}

func TestStoreSubmissionRequiresQuiz(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.CreateSubmission(ctx, domain.Submission{ID: "01", Slug: "missing"})
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
	if _, err := store.GetSubmission(ctx, "missing", "01"); !errors.Is(err, domain.ErrSubmissionNotFound) {
		t.Fatalf("expected submission not found, got %v", err)
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		Slug:      "abc123",
		Title:     "My top 10",
		Items:     []string{"sushi", "ramen", "tteokbokki", "samgyeopsal", "pizza", "chicken", "pasta", "kimchi stew", "burger", "naengmyeon"},
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
