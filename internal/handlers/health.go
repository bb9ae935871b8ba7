package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/rentals/api/internal/middleware"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "1.0.0"
	// HealthCheckTimeout bounds the readiness database ping
	HealthCheckTimeout = 2 * time.Second
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness, readiness and build info.
type HealthHandler struct {
	db        Pinger
	search    Pinger
	startTime time.Time
	env       string
}

// NewHealthHandler creates a new HealthHandler instance. search may be nil
// when no search index is configured.
func NewHealthHandler(env string, db, search Pinger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		search:    search,
		startTime: time.Now(),
		env:       env,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Search   string `json:"search,omitempty"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Uptime      string `json:"uptime"`
}

// Health handles GET /health. It never touches dependencies.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}

// Ready handles GET /health/ready. A database that does not answer within
// HealthCheckTimeout yields 503. An unreachable search index only degrades
// the status since listings are served from the database.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	log := middleware.GetLogger(c)

	if err := h.db.Ping(ctx); err != nil {
		if log != nil {
			log.Error("Database health check failed", err, map[string]interface{}{
				"timeout": HealthCheckTimeout.String(),
			})
		}

		c.JSON(http.StatusServiceUnavailable, ReadyResponse{
			Status:   "not_ready",
			Database: "disconnected",
		})
		return
	}

	response := ReadyResponse{Status: "ready", Database: "connected"}
	if h.search != nil {
		response.Search = "connected"
		if err := h.search.Ping(ctx); err != nil {
			if log != nil {
				log.Warn("Search index health check failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
			response.Status = "degraded"
			response.Search = "unavailable"
		}
	}

	c.JSON(http.StatusOK, response)
}

// Info handles GET /info.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      formatUptime(time.Since(h.startTime)),
	})
}

// formatUptime renders d as "1d 2h 3m 4s", omitting days when zero.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
