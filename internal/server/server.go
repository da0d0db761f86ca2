// Package server provides the HTTP server for the Posetris board, its API and streams.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/posetris/internal/plugin"
	"github.com/ayusman/posetris/internal/server/api"
	"github.com/ayusman/posetris/internal/session"
	"github.com/ayusman/posetris/internal/store"
)

// DefaultPushInterval is how often snapshots and frames are pushed to clients.
const DefaultPushInterval = 33 * time.Millisecond

// Game is the running game as seen by the HTTP layer.
type Game interface {
	Snapshot() session.Snapshot
	Reset()
	SetPaused(paused bool)
	Paused() bool
	ReloadCatalog() (int, error)
	WatchFrames() func()
	Frame() ([]byte, uint64)
	Metrics() prometheus.Gatherer
}

// Config holds the server configuration.
type Config struct {
	StaticDir    string
	Store        *store.Store
	Game         Game
	Plugins      plugin.Lookup
	PushInterval time.Duration
}

// Server represents the HTTP server for the Posetris application.
type Server struct {
	config Config
	router *chi.Mux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.PushInterval <= 0 {
		config.PushInterval = DefaultPushInterval
	}
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.Recoverer)
	s.router.Use(requestLogger)

	s.router.Get("/api/health", s.handleHealth)

	if s.config.Store != nil {
		s.router.Route("/api/templates", api.NewTemplateHandler(s.config.Store).Routes)
		s.router.Route("/api/actions", api.NewActionHandler(s.config.Store, s.config.Plugins).Routes)
	}

	if s.config.Game != nil {
		s.router.Get("/api/game", s.handleGame)
		s.router.Post("/api/game/reset", s.handleReset)
		s.router.Post("/api/game/pause", s.handlePause)
		s.router.Post("/api/catalog/reload", s.handleReload)
		s.router.Handle("/api/ws", NewSnapshotHandler(s.config.Game, s.config.PushInterval))
		s.router.Handle("/api/stream", NewStreamHandler(s.config.Game, s.config.PushInterval))
		s.router.Handle("/metrics", promhttp.HandlerFor(s.config.Game.Metrics(), promhttp.HandlerOpts{}))
	}

	if s.config.StaticDir != "" {
		s.router.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger logs API requests at debug level. Streams are logged when they end.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

// handleGame handles GET /api/game.
func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.config.Game.Snapshot())
}

// handleReset handles POST /api/game/reset.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.config.Game.Reset()
	log.Info().Msg("new game started")
	writeJSON(w, http.StatusOK, s.config.Game.Snapshot())
}

type pauseRequest struct {
	Paused *bool `json:"paused"`
}

// handlePause handles POST /api/game/pause. Without a body it toggles.
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	paused := !s.config.Game.Paused()
	if r.ContentLength != 0 {
		var req pauseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
			return
		}
		if req.Paused != nil {
			paused = *req.Paused
		}
	}

	s.config.Game.SetPaused(paused)
	writeJSON(w, http.StatusOK, s.config.Game.Snapshot())
}

// handleReload handles POST /api/catalog/reload.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	n, err := s.config.Game.ReloadCatalog()
	if err != nil {
		log.Warn().Err(err).Msg("catalog reload failed")
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	log.Info().Int("templates", n).Msg("catalog reloaded")
	writeJSON(w, http.StatusOK, map[string]int{"templates": n})
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
