// Package worker provides the HTTP service for pomotrack.
package worker

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/pomotrack/pomotrack/internal/config"
	"github.com/pomotrack/pomotrack/internal/sessionlog"
	"github.com/pomotrack/pomotrack/internal/worker/sse"
)

// Service wires the session log, the statistics API and the embedded
// front end behind one router.
type Service struct {
	cfg    *config.Config
	store  *sessionlog.Store
	events *sse.Broadcaster
	router chi.Router
}

// New creates the service and registers all routes.
func New(cfg *config.Config, store *sessionlog.Store) *Service {
	svc := &Service{
		cfg:    cfg,
		store:  store,
		events: sse.NewBroadcaster(),
		router: chi.NewRouter(),
	}
	svc.setupRoutes()
	return svc
}

func (s *Service) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger)

	// Pages and assets
	s.router.Get("/", serveIndex)
	s.router.Get("/history", serveHistory)
	s.router.Get("/assets/*", serveAssets)

	s.router.Get("/health", s.handleHealth)

	// API
	s.router.Get("/api/config", s.handleConfig)
	s.router.Post("/api/sessions", s.handleCreateSession)
	s.router.Get("/api/sessions", s.handleListSessions)
	s.router.Get("/api/stats", s.handleStats)
	s.router.Get("/api/stats/daily", s.handleDailyStats)
	s.router.Get("/api/stats/weekly", s.handleWeeklyStats)
	s.router.Get("/api/stats/trend", s.handleTrend)
	s.router.Get("/api/stats/distribution", s.handleDistribution)
	s.router.Get("/api/stats/peak", s.handlePeakHours)
	s.router.Get("/api/events", s.handleEvents)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
// within the configured timeout.
func (s *Service) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: /api/events holds a streaming response open.
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting pomotrack")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// requestLogger emits one structured log line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("Request")
	})
}
