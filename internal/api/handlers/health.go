package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	InstanceID string
	Version    string
}

func NewHealthHandler(instanceID, version string) *HealthHandler {
	return &HealthHandler{InstanceID: instanceID, Version: version}
}

type HealthResponse struct {
	Status     string `json:"status"`
	InstanceID string `json:"instance_id"`
}

type InfoResponse struct {
	InstanceID   string   `json:"instance_id"`
	Status       string   `json:"status"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
}

// HealthCheck reports liveness.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:     "healthy",
		InstanceID: h.InstanceID,
	})
}

// Info reports basic instance information and capabilities.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		InstanceID: h.InstanceID,
		Status:     "running",
		Version:    h.Version,
		Capabilities: []string{
			"accident_detection",
			"congestion_detection",
			"ngsi_ld_dispatch",
		},
	})
}
