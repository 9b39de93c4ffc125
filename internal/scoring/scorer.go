package scoring

import (
	"strings"
	"sync"
)

// Verdict is the outcome of scoring one piece of social text.
type Verdict struct {
	Accepted bool
	Score    float64
	Reason   string // gate that rejected, empty if accepted
	Features []string
}

// SocialTextScorer evaluates candidate social-media text against the
// heuristic catalog and the accept/reject gates of §4.2/§4.4.
type SocialTextScorer struct {
	catalog []Feature

	mu      sync.Mutex
	handles map[string]float64 // per-user running score total, capped; the least-recently-touched handle is evicted, use counts are not kept
	order   []string           // handle access order, oldest first, for eviction
}

const maxTrackedHandles = 1024

// NewSocialTextScorer builds a scorer over its own copy of catalog, or of
// DefaultCatalog when catalog is nil.
func NewSocialTextScorer(catalog []Feature) *SocialTextScorer {
	if catalog == nil {
		catalog = DefaultCatalog
	}
	catalog = append([]Feature(nil), catalog...)
	return &SocialTextScorer{
		catalog: catalog,
		handles: make(map[string]float64),
	}
}

// Score runs the accept/reject gates in the documented order, then sums
// triggered feature weights and scales by coords.confidence.
func (s *SocialTextScorer) Score(ctx Context, user string, isReply, isRetweet bool) Verdict {
	if isReply && strings.Contains(ctx.Text, "@") {
		return Verdict{Reason: "reply_mention"}
	}
	if isRetweet {
		return Verdict{Reason: "retweet_or_quote"}
	}
	if ctx.LangKnown && ctx.GeolocatedLang != "" && ctx.DetectedLang != "" && ctx.GeolocatedLang != ctx.DetectedLang {
		return Verdict{Reason: "language_mismatch"}
	}
	if !containsAny(ctx.Text, ctx.RelevantKeywords) {
		return Verdict{Reason: "missing_keyword"}
	}

	sum := 0.0
	var triggered []string
	for _, f := range s.catalog {
		if f.Predicate(ctx) {
			sum += f.Weight
			triggered = append(triggered, f.Name)
		}
	}

	if sum < 0 && ctx.LangKnown {
		return Verdict{Score: sum, Features: triggered, Reason: "negative_known_language"}
	}

	hasCoords := ctx.Coords.Lat != 0 || ctx.Coords.Lon != 0
	if !hasCoords && !containsAny(ctx.Text, earthquakeClassKeywords) {
		return Verdict{Score: sum, Features: triggered, Reason: "no_coords_not_earthquake_class"}
	}

	score := sum * ctx.Coords.Confidence
	if user != "" {
		s.track(user, score)
	}
	return Verdict{Accepted: true, Score: score, Features: triggered}
}

var earthquakeClassKeywords = []string{"earthquake", "quake", "震度", "地震", "tremor"}

// track accumulates a user's running score total for diagnostics, evicting
// the least-recently-touched handle once the tracked set exceeds its cap.
func (s *SocialTextScorer) track(user string, score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.handles[user]; !ok && len(s.handles) >= maxTrackedHandles {
		stale := s.order[0]
		s.order = s.order[1:]
		delete(s.handles, stale)
	}
	for i, h := range s.order {
		if h == user {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.order = append(s.order, user)
	s.handles[user] += score
}

// HandleTotal returns the running total for a tracked handle.
func (s *SocialTextScorer) HandleTotal(user string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handles[user]
}

// Catalog exposes the live feature table so a Learner can mutate weights.
func (s *SocialTextScorer) Catalog() []Feature { return s.catalog }

// SetWeight rewrites the weight of a named feature, used by the online
// learning loop; no-op if the name isn't present.
func (s *SocialTextScorer) SetWeight(name string, weight float64) {
	for i := range s.catalog {
		if s.catalog[i].Name == name {
			s.catalog[i].Weight = weight
			return
		}
	}
}
