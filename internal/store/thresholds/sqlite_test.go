package thresholds

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/quakewatch/quakewatch/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thresholds.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoad_UnknownScopeReturnsNil(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	got, err := s.Load(ctx, "domain:unknown")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for an unknown scope, got %+v", got)
	}
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	t1 := models.NewThreshold("domain:tokyo")
	t1.Observe(3, 0.8)
	t1.Observe(3, 0.6)
	t1.SigmaMul = 1.5

	if err := s.Save(ctx, t1); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx, "domain:tokyo")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatal("expected a loaded threshold, got nil")
	}
	if got.SigmaMul != 1.5 {
		t.Errorf("expected sigma mul 1.5, got %v", got.SigmaMul)
	}
	if got.Counts[3] != 2 {
		t.Errorf("expected 2 observations in hour 3, got %d", got.Counts[3])
	}
	if got.Averages[3] != t1.Averages[3] {
		t.Errorf("expected average %v, got %v", t1.Averages[3], got.Averages[3])
	}
}

func TestSave_UpsertsExistingScope(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	t1 := models.NewThreshold("domain:osaka")
	t1.Observe(0, 0.5)
	if err := s.Save(ctx, t1); err != nil {
		t.Fatalf("Save (first): %v", err)
	}

	t1.Observe(0, 0.9)
	if err := s.Save(ctx, t1); err != nil {
		t.Fatalf("Save (second): %v", err)
	}

	got, err := s.Load(ctx, "domain:osaka")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Counts[0] != 2 {
		t.Errorf("expected the second save to upsert rather than duplicate, got count %d", got.Counts[0])
	}
}
