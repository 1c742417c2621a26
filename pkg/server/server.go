// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tarunsinghofficial/visionbackend/pkg/detection"
	"github.com/tarunsinghofficial/visionbackend/pkg/pipeline"
	"github.com/tarunsinghofficial/visionbackend/pkg/storage"
)

// ServiceName is reported by the health endpoint
const ServiceName = "vision-sync"

// DefaultAllowedOrigins are the browser origins allowed by CORS
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
	"http://localhost:3000",
}

// Runner runs one image through the analysis pipeline
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Output, error)
}

// Config holds HTTP server configuration
type Config struct {
	Host string
	Port int
	// MaxUploadBytes caps the request body. Images under this limit but over
	// the detection ceiling still get a 413 from the pipeline.
	MaxUploadBytes int64
	AllowedOrigins []string
	// AllowedOriginSuffix admits any https origin ending in it, e.g. ".vercel.app"
	AllowedOriginSuffix string
	// ImagesDir is served under ImagesPath when set
	ImagesDir  string
	ImagesPath string
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		Host:                "0.0.0.0",
		Port:                8000,
		MaxUploadBytes:      detection.DefaultMaxImageBytes + 1024*1024,
		AllowedOrigins:      DefaultAllowedOrigins,
		AllowedOriginSuffix: ".vercel.app",
		ImagesPath:          "/images",
	}
}

// Server provides the HTTP endpoints
type Server struct {
	echo    *echo.Echo
	runner  Runner
	history storage.HistoryStore
	logger  *zap.Logger
	config  *Config
}

// Option configures a Server
type Option func(*Server)

// WithHistory enables the history endpoint
func WithHistory(h storage.HistoryStore) Option {
	return func(s *Server) { s.history = h }
}

// WithMetrics serves gatherer at /metrics
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

// NewServer creates a new HTTP server
func NewServer(runner Runner, logger *zap.Logger, cfg *Config, opts ...Option) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultConfig().MaxUploadBytes
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc:  originMatcher(cfg.AllowedOrigins, cfg.AllowedOriginSuffix),
		AllowCredentials: true,
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return nil
		}
	})

	s := &Server{
		echo:   e,
		runner: runner,
		logger: logger,
		config: cfg,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/api/health", s.handleHealth)

	api := s.echo.Group("/api")
	api.POST("/analyze", s.handleAnalyze, middleware.BodyLimit(fmt.Sprintf("%dK", s.config.MaxUploadBytes/1024)))
	api.GET("/history/:user_id", s.handleHistory)

	if s.config.ImagesDir != "" {
		s.echo.Static(s.config.ImagesPath, s.config.ImagesDir)
	}
}

// Handler returns the underlying http.Handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// HealthResponse is the response body for GET /api/health
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Service: ServiceName})
}

func (s *Server) handleAnalyze(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
	}

	contentType := fh.Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, "image/") {
		return echo.NewHTTPError(http.StatusBadRequest, "Uploaded file must be an image.")
	}

	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read upload")
	}

	out, err := s.runner.Run(c.Request().Context(), pipeline.Request{
		Image:       data,
		ContentType: contentType,
		UserID:      c.FormValue("user_id"),
	})
	if err != nil {
		return s.analyzeError(err)
	}

	return c.JSON(http.StatusOK, out.AnalysisResult)
}

func (s *Server) analyzeError(err error) error {
	switch {
	case errors.Is(err, detection.ErrPayloadTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Image exceeds 10 MB limit.")
	case errors.Is(err, detection.ErrInvalidImage):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("analysis failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Image analysis failed.")
	}
}

func (s *Server) handleHistory(c echo.Context) error {
	if s.history == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "history storage is not configured")
	}

	recs, err := s.history.Recent(c.Request().Context(), c.Param("user_id"), storage.DefaultHistoryLimit)
	if err != nil {
		s.logger.Error("failed to fetch history", zap.String("user_id", c.Param("user_id")), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not retrieve analysis history.")
	}
	return c.JSON(http.StatusOK, recs)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

func originMatcher(allowed []string, suffix string) func(origin string) (bool, error) {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(origin string) (bool, error) {
		if _, ok := set[origin]; ok {
			return true, nil
		}
		if suffix != "" && strings.HasPrefix(origin, "https://") && strings.HasSuffix(origin, suffix) {
			return true, nil
		}
		return false, nil
	}
}
