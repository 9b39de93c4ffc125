package thresholds

import (
	"context"
	"testing"
)

func TestCache_LookupMissingScopeReportsNotOK(t *testing.T) {
	store := openTestStore(t)
	cache := NewCache(store, 1.0)

	_, ok := cache.Lookup("domain:nowhere", 5)
	if ok {
		t.Fatal("expected ok=false for a scope with no observations")
	}
}

func TestCache_ObserveThenLookup(t *testing.T) {
	store := openTestStore(t)
	cache := NewCache(store, 1.0)

	cache.Observe("domain:tokyo", 3, 0.5)
	cache.Observe("domain:tokyo", 3, 0.7)

	min, ok := cache.Lookup("domain:tokyo", 3)
	if !ok {
		t.Fatal("expected ok=true after two observations")
	}
	if min <= 0 {
		t.Errorf("expected a positive minimum, got %v", min)
	}
}

func TestCache_FlushAllPersistsToStore(t *testing.T) {
	store := openTestStore(t)
	cache := NewCache(store, 1.0)

	cache.Observe("domain:osaka", 10, 0.9)
	if err := cache.FlushAll(context.Background()); err != nil {
		t.Fatalf("FlushAll: %v", err)
	}

	persisted, err := store.Load(context.Background(), "domain:osaka")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if persisted == nil {
		t.Fatal("expected FlushAll to have persisted the observed scope")
	}
	if persisted.Counts[10] != 1 {
		t.Errorf("expected 1 observation in hour 10, got %d", persisted.Counts[10])
	}
}

func TestCache_ReloadsFromStoreOnColdScope(t *testing.T) {
	store := openTestStore(t)

	warm := NewCache(store, 2.0)
	warm.Observe("domain:fukuoka", 1, 0.3)
	if err := warm.FlushAll(context.Background()); err != nil {
		t.Fatalf("FlushAll: %v", err)
	}

	cold := NewCache(store, 2.0)
	min, ok := cold.Lookup("domain:fukuoka", 1)
	if !ok {
		t.Fatal("expected a fresh Cache to fault the scope in from the store")
	}
	if min <= 0 {
		t.Errorf("expected a positive minimum after reload, got %v", min)
	}
}
