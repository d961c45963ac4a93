// Package server provides the local HTTP API and event stream.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/quotebar/internal/cache"
	"github.com/aristath/quotebar/internal/config"
	"github.com/aristath/quotebar/internal/events"
	"github.com/aristath/quotebar/internal/modules/market_hours"
	markethourshandlers "github.com/aristath/quotebar/internal/modules/market_hours/handlers"
	"github.com/aristath/quotebar/internal/modules/quotes"
	quoteshandlers "github.com/aristath/quotebar/internal/modules/quotes/handlers"
	"github.com/aristath/quotebar/internal/work"
)

// Backfill is the control surface of the background backfill
type Backfill interface {
	Start(universe *config.Universe) string
	Stop()
	Wait(ctx context.Context) error
	Status() work.Status
}

// Config holds server configuration
type Config struct {
	Log         zerolog.Logger
	Port        int
	DevMode     bool
	DataDir     string
	Caches      *cache.Caches
	Backfill    Backfill
	Universe    *config.UniverseStore
	Bus         *events.Bus
	QuoteState  *quotes.State
	Refresher   quoteshandlers.Refresher
	MarketHours *market_hours.SessionCalculator
}

// Server represents the HTTP server
type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	cfg      Config
	system   *SystemHandlers
	eventsWS *EventsStreamHandler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		cfg:      cfg,
		system:   NewSystemHandlers(cfg.DataDir, cfg.Log),
		eventsWS: NewEventsStreamHandler(cfg.Bus, cfg.Log),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware shared by every route
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// The websocket outlives any request timeout.
		r.Get("/events/ws", s.eventsWS.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			if !s.cfg.DevMode {
				r.Use(middleware.Compress(5))
			}

			quoteshandlers.NewHandler(s.cfg.QuoteState, s.cfg.Refresher, s.cfg.Log).RegisterRoutes(r)
			markethourshandlers.NewHandler(s.cfg.MarketHours, s.cfg.Log).RegisterRoutes(r)

			r.Route("/caches", func(r chi.Router) {
				r.Get("/", s.handleListCaches)
				r.Delete("/", s.handleClearCaches)
				r.Get("/{kind}", s.handleGetCache)
				r.Get("/quarterly/{quarter}/{symbol}", s.handleGetQuarterlyPrice)
				r.Get("/forward-pe/{symbol}/{quarter}", s.handleGetForwardPE)
			})

			r.Route("/backfill", func(r chi.Router) {
				r.Get("/", s.handleBackfillStatus)
				r.Post("/restart", s.handleBackfillRestart)
				r.Post("/stop", s.handleBackfillStop)
			})

			r.Route("/universe", func(r chi.Router) {
				r.Get("/", s.handleGetUniverse)
				r.Put("/", s.handlePutUniverse)
			})

			r.Get("/system/stats", s.system.HandleSystemStats)
		})
	})
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
