// Package api exposes analyses, charts and the watchlist over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"MarketLens/internal/chart"
	"MarketLens/internal/collector"
	"MarketLens/internal/metrics"
	"MarketLens/internal/recorder"
	"MarketLens/internal/watchlist"
)

// Deps are the components the handlers serve.
type Deps struct {
	Collector *collector.Collector
	Watchlist *watchlist.Manager
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Chart     chart.Options
}

// Server is the HTTP API.
type Server struct {
	deps    Deps
	logger  zerolog.Logger
	router  chi.Router
	server  *http.Server
	started time.Time
}

// New creates the server and its routes.
func New(deps Deps, logger zerolog.Logger) *Server {
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	s := &Server{
		deps:    deps,
		logger:  logger.With().Str("component", "api").Logger(),
		started: time.Now(),
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/analysis/{symbol}", func(r chi.Router) {
			r.Get("/", s.handleAnalysis)
			r.Get("/chart", s.handleChart)
			r.Get("/csv", s.handleCSV)
		})
		r.Get("/history/{symbol}", s.handleHistory)

		r.Route("/watchlist", func(r chi.Router) {
			r.Get("/", s.handleListWatchlist)
			r.Post("/", s.handleAddWatchlist)
			r.Delete("/{symbol}", s.handleRemoveWatchlist)
		})
	})

	if s.deps.Metrics != nil {
		r.Handle("/metrics", s.deps.Metrics.Handler())
	}
	s.router = r
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves on addr in the background.
func (s *Server) Start(addr string) {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("api server error")
		}
	}()
	s.logger.Info().Str("addr", addr).Msg("api server started")
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info().Msg("stopping api server")
	return s.server.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, code int) {
	s.writeJSON(w, code, map[string]string{"error": message})
}
