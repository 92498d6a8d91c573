package server

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kwakchaewon/surveypulse/internal/config"
	"github.com/kwakchaewon/surveypulse/internal/domain"
	"github.com/kwakchaewon/surveypulse/internal/hub"
)

// AlarmSender triggers the persist-then-publish flow for one survey event.
type AlarmSender interface {
	SendAlarm(ctx context.Context, surveyID int64, alarmType domain.AlarmType) error
}

// redisHealthChecker is a minimal interface for Redis health checks.
type redisHealthChecker interface {
	Ping(ctx context.Context) *goredis.StatusCmd
}

// postgresHealthChecker is a minimal interface for PostgreSQL health checks.
type postgresHealthChecker interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	hub       *hub.Hub
	store     domain.NotificationRepository
	users     domain.UserDirectory
	publisher AlarmSender
	redis     redisHealthChecker
	postgres  postgresHealthChecker
	startTime time.Time
}

func NewServer(cfg *config.Config, h *hub.Hub, store domain.NotificationRepository, users domain.UserDirectory, publisher AlarmSender, redis redisHealthChecker, postgres postgresHealthChecker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestIDMiddleware)

	srv := &Server{
		echo:      e,
		config:    cfg,
		hub:       h,
		store:     store,
		users:     users,
		publisher: publisher,
		redis:     redis,
		postgres:  postgres,
		startTime: time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
