package parser

import (
	"encoding/json"
	"time"

	"github.com/quakewatch/quakewatch/internal/errs"
	"github.com/quakewatch/quakewatch/internal/models"
	"github.com/quakewatch/quakewatch/internal/scoring"
)

// SocialItem is the pre-extracted shape a streaming social adapter hands
// the social parser: structured metadata the free-text scorer needs but
// that isn't present in the raw text itself.
type SocialItem struct {
	Text             string
	User             string
	IsReply          bool
	IsRetweet        bool
	Coords           models.Coords
	RelevantKeywords []string
	KnownHandles     []string
	SpamWords        []string
	GeolocatedLang   string
	DetectedLang     string
	LangKnown        bool
	PostedAt         time.Time
}

// SocialExtractor turns a raw streaming payload into a SocialItem, or
// reports it isn't recognizable social input.
type SocialExtractor func(payload []byte) (SocialItem, bool)

// SocialParser always runs first: it is the only parser that understands
// crowdsourced free text, and structured feeds never produce text that
// would also look like a tweet.
type SocialParser struct {
	scorer    *scoring.SocialTextScorer
	extractor SocialExtractor
}

func NewSocialParser(scorer *scoring.SocialTextScorer, extractor SocialExtractor) *SocialParser {
	return &SocialParser{scorer: scorer, extractor: extractor}
}

func (SocialParser) Priority() int { return 100 }
func (SocialParser) Type() string  { return "social" }

func (p *SocialParser) Parse(payload []byte, meta Meta) ([]models.Report, error) {
	item, ok := p.extractor(payload)
	if !ok {
		return nil, errs.Rejection(nil)
	}

	ctx := scoring.Context{
		Text:             item.Text,
		Coords:           item.Coords,
		RelevantKeywords: item.RelevantKeywords,
		KnownHandles:     item.KnownHandles,
		SpamWords:        item.SpamWords,
		GeolocatedLang:   item.GeolocatedLang,
		DetectedLang:     item.DetectedLang,
		LangKnown:        item.LangKnown,
	}
	verdict := p.scorer.Score(ctx, item.User, item.IsReply, item.IsRetweet)
	if !verdict.Accepted {
		return nil, errs.Rejection(nil)
	}

	t := item.PostedAt
	if t.IsZero() {
		t = meta.FetchedAt
	}

	r := models.Report{
		Coords: item.Coords,
		Time:   t,
		Update: t,
		Status: models.ParseStatus("guessed"),
		Text:   item.Text,
		User:   item.User,
		Score:  verdict.Score,
	}
	for _, f := range verdict.Features {
		r.Heuristics = append(r.Heuristics, models.Heuristic{Weight: 1, Description: f})
	}
	return []models.Report{r}, nil
}

// tweetShape is the subset of a Twitter-API-style status payload the
// default extractor reads; streaming adapters that front other social
// platforms supply their own SocialExtractor instead.
type tweetShape struct {
	Text                 string `json:"text"`
	Lang                 string `json:"lang"`
	User                 struct {
		ScreenName string `json:"screen_name"`
	} `json:"user"`
	InReplyToStatusID *int64 `json:"in_reply_to_status_id"`
	RetweetedStatus   *struct{} `json:"retweeted_status"`
	Coordinates       *struct {
		Coordinates [2]float64 `json:"coordinates"` // [lon, lat]
	} `json:"coordinates"`
	CreatedAt string `json:"created_at"`
}

// NewJSONSocialExtractor builds a SocialExtractor that reads the
// Twitter-API-shaped JSON payload a streaming adapter hands the social
// parser, tagging every item with the same relevance/handle/spam word
// lists supplied at startup.
func NewJSONSocialExtractor(relevantKeywords, knownHandles, spamWords []string, geolocatedLang string) SocialExtractor {
	return func(payload []byte) (SocialItem, bool) {
		var t tweetShape
		if err := json.Unmarshal(payload, &t); err != nil || t.Text == "" {
			return SocialItem{}, false
		}

		item := SocialItem{
			Text:             t.Text,
			User:             t.User.ScreenName,
			IsReply:          t.InReplyToStatusID != nil,
			IsRetweet:        t.RetweetedStatus != nil,
			RelevantKeywords: relevantKeywords,
			KnownHandles:     knownHandles,
			SpamWords:        spamWords,
			GeolocatedLang:   geolocatedLang,
			DetectedLang:     t.Lang,
			LangKnown:        t.Lang != "",
		}
		if t.Coordinates != nil {
			item.Coords = models.Coords{
				Lon:        t.Coordinates.Coordinates[0],
				Lat:        t.Coordinates.Coordinates[1],
				Confidence: 0.9,
			}
		}
		if ts, err := time.Parse(time.RubyDate, t.CreatedAt); err == nil {
			item.PostedAt = ts
		}
		return item, true
	}
}
