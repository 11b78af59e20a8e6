package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRoutes() {
	s.router.GET("/", s.healthHandler.Info)
	s.router.GET("/health", s.healthHandler.HealthCheck)

	runs := s.router.Group("/runs")
	{
		runs.POST("/accident", s.runsHandler.RunAccident)
		runs.POST("/congestion", s.runsHandler.RunCongestion)
	}

	s.router.GET("/results/latest", s.runsHandler.LatestResults)

	system := s.router.Group("/system")
	{
		system.GET("/stats", s.systemHandler.GetStats)
	}

	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))
}
