// Package httpapi exposes the operational HTTP surface: health, metrics and manual triggers.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/metrics"
	"NewsAggregator/internal/ports"
)

// Reprocessor resets an article's enrichment and queues it again.
type Reprocessor interface {
	Reprocess(ctx context.Context, id int64) error
}

// Deps wires the server to the application.
type Deps struct {
	Tasks       ports.TaskClient
	Reprocessor Reprocessor
	// Sources lists the identifiers accepted by the fetch trigger.
	Sources []string
	// Health reports backing service reachability. Optional.
	Health func(ctx context.Context) error
	// QueueDepth refreshes the queue depth gauges on every scrape. Optional.
	QueueDepth func(ctx context.Context) (map[string]int64, error)
	Logger     *slog.Logger
}

// Server is the echo based ops API.
type Server struct {
	addr   string
	echo   *echo.Echo
	deps   Deps
	logger *slog.Logger
}

// New builds the server and its routes.
func New(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		addr:   addr,
		echo:   echo.New(),
		deps:   deps,
		logger: logger.With("component", "http"),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/healthz" || path == "/metrics"
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.InfoContext(c.Request().Context(), "http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"error", v.Error)
			return nil
		},
	}))
	s.echo.Use(middleware.Recover())

	s.echo.GET("/healthz", s.health)
	s.echo.GET("/metrics", s.metrics(promhttp.Handler()))

	api := s.echo.Group("/api")
	api.POST("/articles/:id/enrich", s.enrich)
	api.POST("/articles/:id/reprocess", s.reprocess)
	api.POST("/sources/:source/fetch", s.fetch)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.addr)
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) health(c echo.Context) error {
	if s.deps.Health != nil {
		if err := s.deps.Health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) metrics(next http.Handler) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.deps.QueueDepth != nil {
			depth, err := s.deps.QueueDepth(c.Request().Context())
			if err != nil {
				s.logger.Warn("queue depth unavailable", "error", err)
			}
			for lane, n := range depth {
				metrics.SetQueueDepth(lane, n)
			}
		}
		next.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}

func (s *Server) enrich(c echo.Context) error {
	id, err := articleID(c)
	if err != nil {
		return err
	}
	if err := s.deps.Tasks.Enrich(c.Request().Context(), id, domain.QueueHigh); err != nil {
		s.logger.Error("enqueue enrich failed", "article_id", id, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "could not queue enrichment")
	}
	return c.JSON(http.StatusAccepted, map[string]any{"status": "queued", "article_id": id})
}

func (s *Server) reprocess(c echo.Context) error {
	id, err := articleID(c)
	if err != nil {
		return err
	}
	if err := s.deps.Reprocessor.Reprocess(c.Request().Context(), id); err != nil {
		if errors.Is(err, domain.ErrArticleNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "article not found")
		}
		if errors.Is(err, domain.ErrNothingToAnalyze) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "article has no text to analyze")
		}
		s.logger.Error("reprocess failed", "article_id", id, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "could not queue reprocessing")
	}
	return c.JSON(http.StatusAccepted, map[string]any{"status": "queued", "article_id": id})
}

func (s *Server) fetch(c echo.Context) error {
	source := c.Param("source")
	if !slices.Contains(s.deps.Sources, source) {
		return echo.NewHTTPError(http.StatusNotFound, "unknown source")
	}
	if err := s.deps.Tasks.Fetch(c.Request().Context(), source); err != nil {
		s.logger.Error("enqueue fetch failed", "source", source, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "could not queue fetch")
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "queued", "source": source})
}

func articleID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid article id")
	}
	return id, nil
}
