package memory

import "testing"

func TestFeedRegistryLifecycle(t *testing.T) {
	registry := NewFeedRegistry()

	feed := registry.GetOrCreate("quiz-1")
	if feed == nil {
		t.Fatalf("expected feed")
	}
	if again := registry.GetOrCreate("quiz-1"); again != feed {
		t.Fatalf("expected the same feed instance")
	}
	if _, ok := registry.Get("quiz-1"); !ok {
		t.Fatalf("expected feed present")
	}

	registry.DeleteIfEmpty("quiz-1")
	if _, ok := registry.Get("quiz-1"); ok {
		t.Fatalf("expected feed removed when empty")
	}
}
