package memory

import "testing"

func TestFeedStoreLifecycle(t *testing.T) {
	store := NewFeedStore()

	feed := store.GetOrCreate("abc123")
	if feed == nil {
		t.Fatalf("expected feed")
	}
	if again := store.GetOrCreate("abc123"); again != feed {
		t.Fatalf("expected the same feed instance")
	}
	if _, ok := store.Get("abc123"); !ok {
		t.Fatalf("expected feed present")
	}

	store.DeleteIfIdle("abc123")
	if _, ok := store.Get("abc123"); ok {
		t.Fatalf("expected feed removed when idle")
	}
}
