package scoring

import (
	"testing"

	"github.com/quakewatch/quakewatch/internal/models"
)

func TestScorerRejectsReplyMention(t *testing.T) {
	s := NewSocialTextScorer(nil)
	v := s.Score(Context{Text: "@someone earthquake!!", RelevantKeywords: []string{"earthquake"}}, "u1", true, false)
	if v.Accepted || v.Reason != "reply_mention" {
		t.Fatalf("expected reply_mention rejection, got %+v", v)
	}
}

func TestScorerRejectsMissingKeyword(t *testing.T) {
	s := NewSocialTextScorer(nil)
	v := s.Score(Context{Text: "nice weather today"}, "u1", false, false)
	if v.Accepted || v.Reason != "missing_keyword" {
		t.Fatalf("expected missing_keyword rejection, got %+v", v)
	}
}

func TestScorerAcceptsShortUrgentQuakeReport(t *testing.T) {
	s := NewSocialTextScorer(nil)
	ctx := Context{
		Text:             "EARTHQUAKE!! strong shaking now",
		Coords:           models.Coords{Lat: 35.6, Lon: 139.7, Confidence: 0.8},
		RelevantKeywords: []string{"earthquake"},
	}
	v := s.Score(ctx, "u1", false, false)
	if !v.Accepted {
		t.Fatalf("expected acceptance, got %+v", v)
	}
	if v.Score <= 0 {
		t.Fatalf("expected positive score for urgent report, got %v", v.Score)
	}
}

func TestScorerHandleTrackingEvictsOldest(t *testing.T) {
	s := NewSocialTextScorer(nil)
	ctx := Context{
		Text:             "earthquake felt here",
		Coords:           models.Coords{Lat: 1, Lon: 1, Confidence: 1},
		RelevantKeywords: []string{"earthquake"},
	}
	for i := 0; i < maxTrackedHandles+5; i++ {
		s.Score(ctx, string(rune('a'+i%26))+string(rune(i)), false, false)
	}
	if len(s.handles) > maxTrackedHandles {
		t.Fatalf("expected handle cap %d, got %d", maxTrackedHandles, len(s.handles))
	}
	if _, ok := s.handles[string(rune('a'))+string(rune(0))]; ok {
		t.Fatal("expected the oldest handle to have been evicted")
	}
}

func TestLearnedSumAndRatioProjections(t *testing.T) {
	l := NewLearner()
	l.bump("feature_a", 3, 1, 0)
	l.bump("feature_b", 1, 0, 0)

	sumOrder := l.Learned(SignSum)
	if len(sumOrder) != 2 {
		t.Fatalf("expected 2 features, got %d", len(sumOrder))
	}

	ratioOrder := l.Learned(SignRatio)
	if ratioOrder[0] != "feature_b" {
		t.Fatalf("expected feature_b (sentinel ratio) to rank first, got %v", ratioOrder)
	}
}
