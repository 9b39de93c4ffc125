package hub

import (
	"testing"
	"time"

	"github.com/quakewatch/quakewatch/internal/models"
)

func testNotice() *models.Notice {
	r := models.Report{
		Coords: models.Coords{Lat: 1, Lon: 1, Confidence: 0.5},
		Time:   time.Now(),
		Mag:    models.NewMagnitude(5.0, "Mw"),
		Status: models.ParseStatus("reported"),
		Score:  1.0,
	}
	return models.NewNotice(models.NewEvent(r), "test")
}

func TestPublishDeliversToSubscriber(t *testing.T) {
	h := New()
	ch := h.Subscribe("a")
	h.Publish(testNotice())
	select {
	case n := <-ch:
		if n == nil {
			t.Fatal("expected a notice")
		}
	default:
		t.Fatal("expected the subscriber to receive the notice")
	}
}

func TestPublishDropsOnFullChannel(t *testing.T) {
	h := New()
	h.Subscribe("a")
	for i := 0; i < subscriberBuffer+5; i++ {
		h.Publish(testNotice())
	}
	// Should not block or panic; dropping is silent beyond the warn log.
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := New()
	ch := h.Subscribe("a")
	h.Unsubscribe("a")
	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed")
	}
	if h.Count() != 0 {
		t.Fatal("expected 0 subscribers after unsubscribe")
	}
}
