package heuristics

import (
	"path/filepath"
	"testing"

	"github.com/quakewatch/quakewatch/internal/scoring"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heuristics.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadFeatureStats_EmptyStoreReturnsEmptyMap(t *testing.T) {
	s := openTestStore(t)

	stats, err := s.LoadFeatureStats()
	if err != nil {
		t.Fatalf("LoadFeatureStats: %v", err)
	}
	if len(stats) != 0 {
		t.Fatalf("expected no feature stats, got %d", len(stats))
	}
}

func TestSaveThenLoadFeatureStats_RoundTrips(t *testing.T) {
	s := openTestStore(t)

	want := map[string]*scoring.FeatureStats{
		"worry_emoji":   {Positive: 4, Negative: 1, Neutral: 0.5},
		"known_handle":  {Positive: 10, Negative: 0, Neutral: 0},
	}
	if err := s.SaveFeatureStats(want); err != nil {
		t.Fatalf("SaveFeatureStats: %v", err)
	}

	got, err := s.LoadFeatureStats()
	if err != nil {
		t.Fatalf("LoadFeatureStats: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d features, got %d", len(want), len(got))
	}
	for feature, fs := range want {
		gfs, ok := got[feature]
		if !ok {
			t.Fatalf("missing feature %q after round trip", feature)
		}
		if gfs.Positive != fs.Positive || gfs.Negative != fs.Negative || gfs.Neutral != fs.Neutral {
			t.Errorf("feature %q: expected %+v, got %+v", feature, fs, gfs)
		}
	}
}

func TestSaveFeatureStats_UpsertsExisting(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveFeatureStats(map[string]*scoring.FeatureStats{
		"worry_emoji": {Positive: 1, Negative: 0, Neutral: 0},
	}); err != nil {
		t.Fatalf("SaveFeatureStats (first): %v", err)
	}
	if err := s.SaveFeatureStats(map[string]*scoring.FeatureStats{
		"worry_emoji": {Positive: 5, Negative: 2, Neutral: 1},
	}); err != nil {
		t.Fatalf("SaveFeatureStats (second): %v", err)
	}

	got, err := s.LoadFeatureStats()
	if err != nil {
		t.Fatalf("LoadFeatureStats: %v", err)
	}
	fs := got["worry_emoji"]
	if fs == nil || fs.Positive != 5 || fs.Negative != 2 || fs.Neutral != 1 {
		t.Errorf("expected the second save to overwrite the first, got %+v", fs)
	}
}
