package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/usnaveen/TubeFocus-Backend/internal/coach"
	"github.com/usnaveen/TubeFocus-Backend/internal/genai"
	"github.com/usnaveen/TubeFocus-Backend/internal/librarian"
	"github.com/usnaveen/TubeFocus-Backend/internal/scoring"
	"github.com/usnaveen/TubeFocus-Backend/internal/services"
	"github.com/usnaveen/TubeFocus-Backend/internal/youtube"
)

// Server provides the HTTP endpoints for tubefocusd.
type Server struct {
	echo     *echo.Echo
	registry services.Registry
	logger   *zap.Logger
	config   *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// APIKey, when set, is required in the X-API-Key header on every
	// /api route. Health and metrics stay open.
	APIKey string
}

// NewServer creates a new HTTP server.
func NewServer(registry services.Registry, logger *zap.Logger, cfg *Config) (*Server, error) {
	if registry == nil {
		return nil, fmt.Errorf("service registry cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 8080}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics(logger).Middleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:     e,
		registry: registry,
		logger:   logger,
		config:   cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1", s.requireAPIKey)
	v1.POST("/sessions", s.handleStartSession)
	v1.POST("/sessions/:id/watch", s.handleWatch)
	v1.POST("/sessions/:id/break", s.handleBreak)
	v1.GET("/sessions/:id/stats", s.handleStats)
	v1.DELETE("/sessions/:id", s.handleEndSession)

	v1.POST("/score", s.handleScore)
	v1.POST("/audit", s.handleAudit)

	v1.POST("/librarian/index", s.handleLibrarianIndex)
	v1.POST("/librarian/search", s.handleLibrarianSearch)
	v1.GET("/librarian/stats", s.handleLibrarianStats)
}

// requireAPIKey enforces the shared key when one is configured.
func (s *Server) requireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.config.APIKey == "" {
			return next(c)
		}
		got := c.Request().Header.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.config.APIKey)) != 1 {
			return c.JSON(http.StatusUnauthorized, ErrorBody{Error: ErrorDetail{
				Code:    CodeUnauthorized,
				Message: "missing or invalid API key",
			}})
		}
		return next(c)
	}
}

// fail maps a service error to the stable error envelope.
func (s *Server) fail(c echo.Context, err error) error {
	var status int
	var code string

	switch {
	case errors.Is(err, coach.ErrInvalidConfiguration),
		errors.Is(err, coach.ErrInvalidScore),
		errors.Is(err, scoring.ErrInvalidInput),
		errors.Is(err, youtube.ErrInvalidVideoID),
		errors.Is(err, librarian.ErrInvalidEntry),
		errors.Is(err, librarian.ErrEmptyQuery):
		status, code = http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, coach.ErrUnknownSession):
		status, code = http.StatusNotFound, CodeUnknownSession
	case errors.Is(err, youtube.ErrVideoNotFound):
		status, code = http.StatusNotFound, CodeVideoNotFound
	case errors.Is(err, youtube.ErrQuotaExceeded):
		status, code = http.StatusTooManyRequests, CodeQuotaExceeded
	case errors.Is(err, genai.ErrUnavailable), errors.Is(err, youtube.ErrUnavailable):
		status, code = http.StatusBadGateway, CodeUpstreamUnavailable
	default:
		status, code = http.StatusInternalServerError, CodeInternal
		s.logger.Error("unhandled error", zap.Error(err))
	}

	return c.JSON(status, ErrorBody{Error: ErrorDetail{Code: code, Message: err.Error()}})
}

func (s *Server) badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorBody{Error: ErrorDetail{
		Code:    CodeInvalidRequest,
		Message: msg,
	}})
}

// handleHealth reports overall status plus per-collaborator wiring.
func (s *Server) handleHealth(c echo.Context) error {
	deps := map[string]bool{
		"coach":     s.registry.Coach() != nil,
		"scorer":    s.registry.Scorer() != nil,
		"intent":    s.registry.Intent() != nil,
		"auditor":   s.registry.Auditor() != nil,
		"librarian": s.registry.Librarian() != nil,
		"youtube":   s.registry.Videos() != nil,
	}
	status := "ok"
	for _, ok := range deps {
		if !ok {
			status = "degraded"
		}
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: status, Dependencies: deps})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
