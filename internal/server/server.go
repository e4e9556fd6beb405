package server

import (
	_ "embed"
	"net/http"
	"time"

	"github.com/auto-dns/docker-unifi-sync/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

//go:embed dashboard.html
var dashboardHTML []byte

// Server is the HTTP facade: the status/apply API plus the dashboard page
// that drives them.
type Server struct {
	cfg        *config.Config
	inventory  inventoryLister
	newSession SessionFactory
	logger     zerolog.Logger
}

func New(cfg *config.Config, inv inventoryLister, newSession SessionFactory, logger zerolog.Logger) *Server {
	return &Server{
		cfg:        cfg,
		inventory:  inv,
		newSession: newSession,
		logger:     logger,
	}
}

// Routes assembles the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handleDashboard)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/api/status", s.handleStatus)
	r.Post("/api/apply", s.handleApply)

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(dashboardHTML); err != nil {
		s.logger.Error().Err(err).Msg("Writing dashboard page")
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		s.logger.Error().Err(err).Msg("Writing health response")
	}
}
