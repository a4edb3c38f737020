package session

import (
	"testing"
	"time"

	"github.com/procheck/sessiond/internal/infrastructure/logging"
	"github.com/procheck/sessiond/internal/shared/types"
)

func TestLayoutRoundTrip(t *testing.T) {
	store, err := NewLayoutStore(t.TempDir(), logging.NewNop())
	if err != nil {
		t.Fatalf("NewLayoutStore: %v", err)
	}

	layout := &types.Layout{
		Tabs: []types.Tab{
			{ID: "tab_1", Title: "New Chat", Type: types.TabChat, ConversationID: "conv-1"},
			{ID: "tab_2", Title: "Protocol Index", Type: types.TabProtocolIndex},
		},
		ActiveTabID: "tab_2",
	}
	store.Save(layout)
	store.Close()

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a persisted layout")
	}
	if loaded.ActiveTabID != "tab_2" {
		t.Errorf("expected active tab_2, got %s", loaded.ActiveTabID)
	}
	if len(loaded.Tabs) != 2 || loaded.Tabs[0].ConversationID != "conv-1" {
		t.Errorf("tabs did not round-trip: %+v", loaded.Tabs)
	}
}

func TestLayoutLoadMissingFile(t *testing.T) {
	store, err := NewLayoutStore(t.TempDir(), logging.NewNop())
	if err != nil {
		t.Fatalf("NewLayoutStore: %v", err)
	}
	defer store.Close()

	layout, err := store.Load()
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if layout != nil {
		t.Errorf("expected nil layout, got %+v", layout)
	}
}

func TestLayoutWritesCoalesce(t *testing.T) {
	store, err := NewLayoutStore(t.TempDir(), logging.NewNop())
	if err != nil {
		t.Fatalf("NewLayoutStore: %v", err)
	}

	// Burst of changes; only the last state matters.
	for i := 0; i < 50; i++ {
		store.Save(&types.Layout{ActiveTabID: "tab_old"})
	}
	store.Save(&types.Layout{ActiveTabID: "tab_final"})
	store.Close()

	// Give the writer goroutine's final flush a moment on slow machines.
	time.Sleep(10 * time.Millisecond)

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil || loaded.ActiveTabID != "tab_final" {
		t.Errorf("expected final state persisted, got %+v", loaded)
	}
}
