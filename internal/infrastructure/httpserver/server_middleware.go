package httpserver

import (
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(s.metrics.CollectHTTPMetrics())
	s.echo.Use(s.logging.RequestLogging())
}
