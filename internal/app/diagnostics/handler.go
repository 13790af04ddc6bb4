package diagnostics

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is any dependency the health check should probe.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// PingContext implements Pinger.
func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Handler exposes health + debug endpoints.
type Handler struct {
	buffer  *LogBuffer
	version string
	checks  map[string]Pinger
}

// NewHandler returns handler. checks are probed by /health, keyed by name.
func NewHandler(buffer *LogBuffer, version string, checks map[string]Pinger) *Handler {
	return &Handler{buffer: buffer, version: version, checks: checks}
}

// RegisterPublic attaches non-auth endpoints.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	rg.GET("/health", h.health)
}

// RegisterProtected attaches debug endpoints requiring auth.
func (h *Handler) RegisterProtected(rg *gin.RouterGroup) {
	rg.GET("/debug/logs", h.logs)
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if check == nil {
			deps[name] = "disabled"
			continue
		}
		if err := check.PingContext(ctx); err != nil {
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "up"
	}
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "version": h.version, "dependencies": deps})
}

func (h *Handler) logs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"logs": h.buffer.Snapshot()})
}
