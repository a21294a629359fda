package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/analysis"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/cannibalization"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/db"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/globaltime"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/links"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/reconcile"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/search"
)

const maxExtractBody = "2M"

// Analyzer is the subset of analysis.Service the API exposes.
type Analyzer interface {
	RunDuplication(ctx context.Context, postID string) (analysis.ReportResult, error)
	RunUniqueness(ctx context.Context, postID string) (analysis.ReportResult, error)
	SyncLinks(ctx context.Context, postID string) (analysis.LinkSyncResult, error)
	LinkReport(ctx context.Context, postID string) ([]db.LinkOccurrence, error)
	Reports(ctx context.Context, postID string) ([]db.UniquenessReport, error)
	Cannibalization(ctx context.Context, siloID string, withSerp bool) (cannibalization.Report, error)
	ExtractLinks(raw, siloSlug string) ([]links.ExtractedLink, error)
}

var _ Analyzer = (*analysis.Service)(nil)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type Server struct {
	analyzer Analyzer
	health   Pinger
	logger   zerolog.Logger
	opts     Options
}

type extractRequest struct {
	Content  string `json:"content"`
	SiloSlug string `json:"silo_slug"`
}

func NewServer(analyzer Analyzer, health Pinger, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8090
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		// External uniqueness runs several rate-limited searches.
		writeTimeout = 2 * time.Minute
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &Server{
		analyzer: analyzer,
		health:   health,
		logger:   logger.With().Str("component", "httpapi").Logger(),
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			AllowedOrigins:  origins,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.analyzer == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.routes()

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("content intelligence api started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("content intelligence api stopped")
	return nil
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.opts.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	e.GET("/healthz", s.handleHealth)

	api := e.Group("/api/v1")
	api.POST("/posts/:id/duplication", s.handleDuplication)
	api.POST("/posts/:id/uniqueness", s.handleUniqueness)
	api.POST("/posts/:id/links/sync", s.handleSyncLinks)
	api.GET("/posts/:id/links", s.handleListLinks)
	api.GET("/posts/:id/reports", s.handleReports)
	api.GET("/silos/:id/cannibalization", s.handleCannibalization)
	api.POST("/links/extract", s.handleExtractLinks, middleware.BodyLimit(maxExtractBody))

	return e
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	data := map[string]any{
		"service": "contentintel",
		"time":    globaltime.UTC(),
	}
	if s.health != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			s.logger.Error().Err(err).Msg("database ping failed")
			return c.JSON(http.StatusServiceUnavailable, jsendResponse{
				Status:  "error",
				Message: "Database unavailable",
				Code:    http.StatusServiceUnavailable,
			})
		}
		data["database"] = "ok"
	}
	return success(c, data)
}

func (s *Server) handleDuplication(c echo.Context) error {
	postID, ok := postIDParam(c)
	if !ok {
		return failValidation(c, map[string]string{"id": "must be a UUID"})
	}
	result, err := s.analyzer.RunDuplication(c.Request().Context(), postID)
	if err != nil {
		return s.analysisError(c, err, "Failed to run duplication check")
	}
	return success(c, result)
}

func (s *Server) handleUniqueness(c echo.Context) error {
	postID, ok := postIDParam(c)
	if !ok {
		return failValidation(c, map[string]string{"id": "must be a UUID"})
	}
	result, err := s.analyzer.RunUniqueness(c.Request().Context(), postID)
	if err != nil {
		return s.analysisError(c, err, "Failed to run uniqueness check")
	}
	return success(c, result)
}

func (s *Server) handleSyncLinks(c echo.Context) error {
	postID, ok := postIDParam(c)
	if !ok {
		return failValidation(c, map[string]string{"id": "must be a UUID"})
	}
	result, err := s.analyzer.SyncLinks(c.Request().Context(), postID)
	if err != nil {
		return s.analysisError(c, err, "Failed to sync links")
	}
	return success(c, result)
}

func (s *Server) handleListLinks(c echo.Context) error {
	postID, ok := postIDParam(c)
	if !ok {
		return failValidation(c, map[string]string{"id": "must be a UUID"})
	}
	items, err := s.analyzer.LinkReport(c.Request().Context(), postID)
	if err != nil {
		return s.analysisError(c, err, "Failed to load links")
	}
	return success(c, map[string]any{
		"post_id": postID,
		"items":   items,
	})
}

func (s *Server) handleReports(c echo.Context) error {
	postID, ok := postIDParam(c)
	if !ok {
		return failValidation(c, map[string]string{"id": "must be a UUID"})
	}
	items, err := s.analyzer.Reports(c.Request().Context(), postID)
	if err != nil {
		return s.analysisError(c, err, "Failed to load reports")
	}
	return success(c, map[string]any{
		"post_id": postID,
		"items":   items,
	})
}

func (s *Server) handleCannibalization(c echo.Context) error {
	siloID := strings.TrimSpace(c.Param("id"))
	if !isUUID(siloID) {
		return failValidation(c, map[string]string{"id": "must be a UUID"})
	}
	withSerp := false
	if raw := strings.TrimSpace(c.QueryParam("serp")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return failValidation(c, map[string]string{"serp": "must be a boolean"})
		}
		withSerp = parsed
	}

	report, err := s.analyzer.Cannibalization(c.Request().Context(), siloID, withSerp)
	if err != nil {
		return s.analysisError(c, err, "Failed to analyze cannibalization")
	}
	return success(c, report)
}

func (s *Server) handleExtractLinks(c echo.Context) error {
	var req extractRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be a JSON object"})
	}
	if strings.TrimSpace(req.Content) == "" {
		return failValidation(c, map[string]string{"content": "is required"})
	}

	extracted, err := s.analyzer.ExtractLinks(req.Content, req.SiloSlug)
	if err != nil {
		return fail(c, http.StatusUnprocessableEntity, "Content could not be parsed", map[string]any{
			"error": err.Error(),
		})
	}
	return success(c, map[string]any{
		"items": extracted,
		"count": len(extracted),
	})
}

func (s *Server) analysisError(c echo.Context, err error, message string) error {
	switch {
	case errors.Is(err, analysis.ErrPostNotFound):
		return failNotFound(c, "Post not found")
	case errors.Is(err, analysis.ErrSiloNotFound):
		return failNotFound(c, "Silo not found")
	case errors.Is(err, search.ErrNotConfigured):
		return fail(c, http.StatusServiceUnavailable, "Search is not configured", nil)
	case errors.Is(err, reconcile.ErrSchemaDrift):
		s.logger.Error().Err(err).Msg("link occurrence schema drift")
		return internalError(c, "Link occurrence table does not match the expected schema")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fail(c, http.StatusGatewayTimeout, "Request timed out", nil)
	}
	s.logger.Error().Err(err).Str("path", c.Path()).Msg(message)
	return internalError(c, message)
}

func postIDParam(c echo.Context) (string, bool) {
	postID := strings.TrimSpace(c.Param("id"))
	return postID, isUUID(postID)
}
