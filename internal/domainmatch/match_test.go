package domainmatch

import (
	"testing"
	"time"

	"github.com/quakewatch/quakewatch/internal/models"
)

func sampleNotice(now time.Time) *models.Notice {
	r := models.Report{
		Coords: models.Coords{Lat: 35.6, Lon: 139.7, AltKm: -10, RadiusKm: 50, Confidence: 0.9},
		Time:   now,
		Update: now,
		Mag:    models.NewMagnitude(6.5, "Mw"),
		Status: models.ParseStatus("reported"),
		Score:  1.0,
	}
	e := models.NewEvent(r)
	n := models.NewNotice(e, "test")
	n.Category = models.CategoryEarthquake
	return n
}

func TestMatchEmptyDomainNeverMatches(t *testing.T) {
	d := &models.Domain{Empty: true}
	ok, reason := Match(d, sampleNotice(time.Now()), time.Now(), Options{})
	if ok || reason != "empty" {
		t.Fatalf("expected empty rejection, got ok=%v reason=%q", ok, reason)
	}
}

func TestMatchMagFloorRejectsWeakEvent(t *testing.T) {
	floor := 7.0
	d := &models.Domain{MagFloor: &floor}
	ok, reason := Match(d, sampleNotice(time.Now()), time.Now(), Options{})
	if ok || reason != "mag_floor" {
		t.Fatalf("expected mag_floor rejection, got ok=%v reason=%q", ok, reason)
	}
}

func TestMatchPassesWithNoConstraints(t *testing.T) {
	d := &models.Domain{}
	ok, _ := Match(d, sampleNotice(time.Now()), time.Now(), Options{})
	if !ok {
		t.Fatal("expected an unconstrained domain to match")
	}
}

func TestMatchBoxContainment(t *testing.T) {
	box := &models.Box{
		SW: models.Coords{Lat: 30, Lon: 130},
		NE: models.Coords{Lat: 40, Lon: 145},
	}
	d := &models.Domain{Box: box}
	ok, _ := Match(d, sampleNotice(time.Now()), time.Now(), Options{})
	if !ok {
		t.Fatal("expected the event's coords to fall within the box")
	}

	outsideBox := &models.Box{SW: models.Coords{Lat: -10, Lon: -10}, NE: models.Coords{Lat: 0, Lon: 0}}
	d2 := &models.Domain{Box: outsideBox}
	ok2, reason := Match(d2, sampleNotice(time.Now()), time.Now(), Options{})
	if ok2 || reason != "box" {
		t.Fatalf("expected box rejection, got ok=%v reason=%q", ok2, reason)
	}
}
