package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// SystemHandler handles system-related endpoints
type SystemHandler struct {
	InstanceID string
	startedAt  time.Time
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(instanceID string) *SystemHandler {
	return &SystemHandler{
		InstanceID: instanceID,
		startedAt:  time.Now(),
	}
}

// GetStats reports runtime statistics for this instance.
func (h *SystemHandler) GetStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"instance_id":    h.InstanceID,
			"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
			"memory_mb":      m.Alloc / 1024 / 1024,
			"cpu_cores":      runtime.NumCPU(),
			"goroutines":     runtime.NumGoroutine(),
			"go_version":     runtime.Version(),
		},
		"timestamp": time.Now().Unix(),
	})
}
