package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quakewatch/quakewatch/internal/models"
)

type stubSource struct {
	events []*models.Event
}

func (s *stubSource) Snapshot() []*models.Event { return s.events }

type stubIngester struct {
	accepted bool
	err      error
	received models.Report
}

func (s *stubIngester) Ingest(r models.Report, now time.Time) (bool, error) {
	s.received = r
	return s.accepted, s.err
}

func setupTestRouter(events EventSource, ingest ReportIngester) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(events, ingest, nil)
	handler.RegisterRoutes(router)
	return router
}

func sampleEvent() *models.Event {
	r := models.Report{
		Coords: models.Coords{Lat: 35.0, Lon: 139.0, Confidence: 1.0},
		Time:   time.Now(),
		Update: time.Now(),
		Mag:    models.NewMagnitude(5.5, "Mw"),
		Status: models.ParseStatus("reviewed"),
		Score:  1.0,
	}
	return models.NewEvent(r)
}

func TestGetNotices_ReturnsGeoJSON(t *testing.T) {
	router := setupTestRouter(&stubSource{events: []*models.Event{sampleEvent()}}, &stubIngester{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/notices", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("expected content-type application/geo+json, got %s", ct)
	}

	var fc FeatureCollection
	if err := json.Unmarshal(w.Body.Bytes(), &fc); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if fc.Type != "FeatureCollection" {
		t.Errorf("expected type FeatureCollection, got %s", fc.Type)
	}
	if len(fc.Features) != 1 {
		t.Errorf("expected 1 feature, got %d", len(fc.Features))
	}
}

func TestHealth(t *testing.T) {
	router := setupTestRouter(&stubSource{}, &stubIngester{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}

func TestCreateTestReport_PushesThroughIngester(t *testing.T) {
	ing := &stubIngester{accepted: true}
	router := setupTestRouter(&stubSource{}, ing)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/debug/test-report", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ing.received.Mag.Value != 7.5 {
		t.Errorf("expected the debug report to carry M7.5, got %v", ing.received.Mag.Value)
	}
}
