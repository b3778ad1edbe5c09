package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"booking-intelligence/internal/recommend"
	"booking-intelligence/internal/storage"
)

type HealthHandler struct {
	store  storage.Store
	engine *recommend.Engine
}

func NewHealthHandler(store storage.Store, engine *recommend.Engine) *HealthHandler {
	return &HealthHandler{store: store, engine: engine}
}

// Health reports degraded when storage is unreachable. A missing model is
// not an error; the rule table serves instead.
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "booking-intelligence",
		"version":   "1.0.0",
		"model":     h.engine.Info(),
	}
	if err := h.store.HealthCheck(); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["storage_error"] = err.Error()
	}
	c.JSON(status, body)
}
