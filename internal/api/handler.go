package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quakewatch/quakewatch/internal/models"
)

// EventSource is the subset of the fusion engine the API reads from.
type EventSource interface {
	Snapshot() []*models.Event
}

// ReportIngester is the subset of the fusion engine the debug endpoint
// pushes synthetic reports through.
type ReportIngester interface {
	Ingest(r models.Report, now time.Time) (bool, error)
}

type Handler struct {
	events EventSource
	ingest ReportIngester
	hub    NoticeHub
}

func NewHandler(events EventSource, ingest ReportIngester, hub NoticeHub) *Handler {
	return &Handler{events: events, ingest: ingest, hub: hub}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/notices", h.getNotices)
	r.GET("/health", h.health)
	r.POST("/api/debug/test-report", h.createTestReport)
	if h.hub != nil {
		r.GET("/ws/notices", ServeNotices(h.hub))
	}
}

func (h *Handler) getNotices(c *gin.Context) {
	events := h.events.Snapshot()
	fc := toGeoJSON(events)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// createTestReport pushes a synthetic M7.5 report through the real
// fusion pipeline rather than persisting or broadcasting a canned record
// directly, so a debug client exercises the same gate/fuse/score path a
// live feed would.
func (h *Handler) createTestReport(c *gin.Context) {
	now := time.Now()
	report := models.Report{
		Coords: models.Coords{Lat: 35.6762, Lon: 139.6503, AltKm: -10, RadiusKm: 50, Confidence: 1.0},
		Time:   now,
		Update: now,
		Mag:    models.NewMagnitude(7.5, "Mw"),
		Status: models.ParseStatus("reviewed"),
		Score:  1.0,
		Adapter: "debug",
	}

	accepted, err := h.ingest.Ingest(report, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "test report pushed through the fusion pipeline",
		"accepted": accepted,
	})
}
