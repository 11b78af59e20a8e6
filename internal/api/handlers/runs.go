package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"trafficpulse-go/internal/models"
)

// PipelineRunner is the surface of the pipeline the API needs.
type PipelineRunner interface {
	RunAccidentDetection(ctx context.Context, observationsPath string) ([]models.CameraResult, error)
	RunCongestionDetection(ctx context.Context, observationsPath string) ([]models.CameraResult, error)
	LatestResults() ([]models.CameraResult, string, time.Time)
}

type RunsHandler struct {
	runner PipelineRunner
	log    zerolog.Logger
}

func NewRunsHandler(runner PipelineRunner, log zerolog.Logger) *RunsHandler {
	return &RunsHandler{runner: runner, log: log}
}

type runRequest struct {
	ObservationsPath string `json:"observations_path" binding:"required"`
}

type runResponse struct {
	Success bool                  `json:"success"`
	Cameras int                   `json:"cameras"`
	Results []models.CameraResult `json:"results"`
}

// RunAccident triggers one accident-detection batch.
func (h *RunsHandler) RunAccident(c *gin.Context) {
	h.run(c, h.runner.RunAccidentDetection)
}

// RunCongestion triggers one congestion batch.
func (h *RunsHandler) RunCongestion(c *gin.Context) {
	h.run(c, h.runner.RunCongestionDetection)
}

func (h *RunsHandler) run(c *gin.Context, fn func(context.Context, string) ([]models.CameraResult, error)) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	results, err := fn(c.Request.Context(), req.ObservationsPath)
	if err != nil {
		h.log.Error().Err(err).Str("path", req.ObservationsPath).Msg("Pipeline run failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, runResponse{Success: true, Cameras: len(results), Results: results})
}

type latestResponse struct {
	Kind    string                `json:"kind"`
	RanAt   time.Time             `json:"ran_at"`
	Results []models.CameraResult `json:"results"`
}

// LatestResults returns the most recent run's results snapshot.
func (h *RunsHandler) LatestResults(c *gin.Context) {
	results, kind, ranAt := h.runner.LatestResults()
	if kind == "" {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "no runs yet"})
		return
	}
	c.JSON(http.StatusOK, latestResponse{Kind: kind, RanAt: ranAt, Results: results})
}
