package httpserver

import (
	"time"

	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/ports"
	customMiddleware "github.com/Akiyuki89/my-best-ddd-architecture/internal/infrastructure/httpserver/middleware"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
	Environment  string
	// ServiceName is reported by the health endpoint.
	ServiceName string
	Version     string
}

// Server exposes the operational endpoints of the account service: health
// and Prometheus metrics.
type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	logging        *customMiddleware.LoggingMiddleware
	metrics        *customMiddleware.MetricsMiddleware
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, healthCheckers ...ports.HealthChecker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		logging:        customMiddleware.NewLoggingMiddleware(logger),
		metrics:        customMiddleware.NewMetricsMiddleware(GetRequestsTotal(), GetRequestDuration()),
		healthCheckers: healthCheckers,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
