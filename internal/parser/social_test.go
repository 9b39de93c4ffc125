package parser

import (
	"testing"
	"time"

	"github.com/quakewatch/quakewatch/internal/scoring"
)

func TestJSONSocialExtractor_ParsesTweetShapedPayload(t *testing.T) {
	extractor := NewJSONSocialExtractor(
		[]string{"earthquake"}, nil, nil, "en",
	)

	payload := []byte(`{
		"text": "big earthquake just hit, everything is shaking!",
		"lang": "en",
		"user": {"screen_name": "quakewatcher"},
		"coordinates": {"coordinates": [139.7, 35.6]},
		"created_at": "Mon Jan 02 15:04:05 +0000 2006"
	}`)

	item, ok := extractor(payload)
	if !ok {
		t.Fatal("expected the tweet-shaped payload to be recognized")
	}
	if item.User != "quakewatcher" {
		t.Errorf("expected user quakewatcher, got %q", item.User)
	}
	if item.IsReply || item.IsRetweet {
		t.Error("expected neither reply nor retweet flags to be set")
	}
	if item.Coords.Lat != 35.6 || item.Coords.Lon != 139.7 {
		t.Errorf("expected coords (35.6, 139.7), got (%v, %v)", item.Coords.Lat, item.Coords.Lon)
	}
	if item.PostedAt.IsZero() {
		t.Error("expected created_at to parse into PostedAt")
	}
}

func TestJSONSocialExtractor_RejectsNonJSONPayload(t *testing.T) {
	extractor := NewJSONSocialExtractor(nil, nil, nil, "en")
	_, ok := extractor([]byte("not a tweet"))
	if ok {
		t.Fatal("expected non-JSON payload to be rejected")
	}
}

func TestJSONSocialExtractor_FlagsReplyAndRetweet(t *testing.T) {
	extractor := NewJSONSocialExtractor(nil, nil, nil, "en")

	payload := []byte(`{"text": "@someone did you feel that", "in_reply_to_status_id": 42}`)
	item, ok := extractor(payload)
	if !ok {
		t.Fatal("expected reply payload to still be recognized")
	}
	if !item.IsReply {
		t.Error("expected IsReply to be true")
	}

	retweet := []byte(`{"text": "RT earthquake news", "retweeted_status": {}}`)
	item, ok = extractor(retweet)
	if !ok {
		t.Fatal("expected retweet payload to still be recognized")
	}
	if !item.IsRetweet {
		t.Error("expected IsRetweet to be true")
	}
}

func TestSocialParser_AcceptsRelevantEarthquakeText(t *testing.T) {
	scorer := scoring.NewSocialTextScorer(nil)
	extractor := NewJSONSocialExtractor([]string{"earthquake"}, nil, nil, "en")
	p := NewSocialParser(scorer, extractor)

	payload := []byte(`{
		"text": "huge earthquake just hit the city, everyone is scared",
		"user": {"screen_name": "bystander"},
		"coordinates": {"coordinates": [139.7, 35.6]}
	}`)

	reports, err := p.Parse(payload, Meta{FetchedAt: time.Now()})
	if err != nil {
		t.Fatalf("expected an earthquake-relevant post to be accepted, got %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected exactly one report, got %d", len(reports))
	}
	r := reports[0]
	if r.User != "bystander" {
		t.Errorf("expected user bystander, got %q", r.User)
	}
	if r.Coords.Lat != 35.6 {
		t.Errorf("expected lat 35.6, got %v", r.Coords.Lat)
	}
}

func TestSocialParser_RejectsUnrecognizedPayload(t *testing.T) {
	scorer := scoring.NewSocialTextScorer(nil)
	extractor := NewJSONSocialExtractor([]string{"earthquake"}, nil, nil, "en")
	p := NewSocialParser(scorer, extractor)

	_, err := p.Parse([]byte("not json"), Meta{FetchedAt: time.Now()})
	if err == nil {
		t.Fatal("expected rejection for an unparsable payload")
	}
}
