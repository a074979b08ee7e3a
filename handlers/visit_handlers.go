// api/handlers/visit_handlers.go
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"visitstats/api/geo"
	"visitstats/api/identity"
	"visitstats/api/models"
	"visitstats/api/stats"
	"visitstats/api/store"
	"visitstats/api/utils"
)

const (
	writeTimeout = 5 * time.Second
	readTimeout  = 15 * time.Second
	pingTimeout  = 2 * time.Second
)

type VisitHandlers struct {
	Store    store.VisitStore
	Reporter stats.Reporter
	Geo      geo.Resolver

	// Now and NewID are replaced in tests.
	Now   func() time.Time
	NewID func() string
}

func NewVisitHandlers(s store.VisitStore, r stats.Reporter, g geo.Resolver) *VisitHandlers {
	if g == nil {
		g = geo.UnknownResolver{}
	}
	return &VisitHandlers{
		Store:    s,
		Reporter: r,
		Geo:      g,
		Now:      time.Now,
		NewID:    func() string { return uuid.New().String() },
	}
}

// AddVisit records one page visit reported by a client page.
func (h *VisitHandlers) AddVisit(c *gin.Context) {
	var payload models.VisitPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		slog.Warn("error binding visit payload", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ip := c.ClientIP()
	event := payload.Normalize().Event(
		h.NewID(),
		h.Geo.Country(ip),
		identity.VisitorID(ip),
		h.Now(),
	)

	ctx, cancel := context.WithTimeout(c.Request.Context(), writeTimeout)
	defer cancel()

	if err := h.Store.Append(ctx, event); err != nil {
		slog.Error("error recording visit", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record visit"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "Visit added."})
}

// GetStats returns the report for the week containing the :date path
// parameter (Unix milliseconds), or the current week when it is absent.
func (h *VisitHandlers) GetStats(c *gin.Context) {
	anchor := h.Now()
	if raw := c.Param("date"); raw != "" {
		parsed, err := utils.ParseEpochMillis(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected Unix time in milliseconds"})
			return
		}
		anchor = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readTimeout)
	defer cancel()

	report, err := h.Reporter.ComputeStats(ctx, anchor)
	if err != nil {
		slog.Error("error computing stats", "anchor", anchor, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve visit statistics"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// ListVisits returns raw events, optionally limited to ?start=&end= (RFC3339).
func (h *VisitHandlers) ListVisits(c *gin.Context) {
	start, end, bounded, err := utils.ParseTimeRange(c.Query("start"), c.Query("end"), h.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid time range. Use RFC3339 (e.g., 2006-01-02T15:04:05Z) with start before end"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readTimeout)
	defer cancel()

	var events []models.VisitEvent
	if bounded {
		events, err = h.Store.SelectInRange(ctx, start, end)
	} else {
		events, err = h.Store.SelectAll(ctx)
	}
	if err != nil {
		slog.Error("error listing visits", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve visits"})
		return
	}
	if events == nil {
		events = []models.VisitEvent{}
	}

	c.JSON(http.StatusOK, events)
}

func (h *VisitHandlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		status := "unavailable"
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
		slog.Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
