package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Durable-truth notification API (authenticated)
	s.echo.GET("/notification", s.handleGetNotifications, s.requireAuth)
	s.echo.POST("/notification/read", s.handleMarkRead, s.requireAuth)

	// WebSocket alarm endpoint: identity in the path, verified against the
	// caller's token. Handshakes are rate limited per IP.
	s.echo.GET("/alarm/:username", s.handleAlarmSocket, newRateLimiter(5, 10), s.requireAuth)

	// Service-to-service trigger from the survey response flow
	s.echo.POST("/internal/alarm", s.handleTriggerAlarm, s.requireInternalKey)
}
