package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the service banner and the health check.
type SystemHandler struct {
	name, version string
	db            Pinger
	started       time.Time
}

func NewSystemHandler(name, version string, db Pinger) *SystemHandler {
	return &SystemHandler{name: name, version: version, db: db, started: time.Now()}
}

var endpoints = []string{
	"GET  /api/health",
	"POST /api/register",
	"POST /api/login",
	"PUT  /api/user/update",
	"GET  /api/user/:username",
	"POST /api/upgrade",
	"GET  /api/admin/users",
	"POST /api/admin/manage",
	"GET  /api/admin/propagations",
	"POST /api/admin/propagations/retry",
	"GET  /api/comments/:mangaId",
	"POST /api/comments",
	"POST /api/favorites/add",
	"POST /api/favorites/remove",
	"POST /api/history/add",
}

func (h *SystemHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":   h.name,
		"version":   h.version,
		"status":    "running",
		"endpoints": endpoints,
	})
}

// Health always answers 200; the database state is reported in the body.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	state := "connected"
	if err := h.db.Ping(ctx); err != nil {
		state = "disconnected"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   h.name,
		"timestamp": time.Now().UTC(),
		"database":  state,
		"uptime":    time.Since(h.started).Seconds(),
	})
}
