// Package server exposes the HTTP surface: quote and alert queries, the
// manual cycle trigger, and the live alert streams.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"daily-tracker/internal/logging"
	"daily-tracker/internal/scheduler"
	"daily-tracker/internal/store"
	"daily-tracker/internal/stream"
)

// Server represents an HTTP server with all routes configured.
type Server struct {
	store       store.DataStore
	scheduler   *scheduler.Scheduler
	hub         *stream.Hub
	broadcaster *stream.WebSocketBroadcaster
	logger      zerolog.Logger
	production  bool

	mux    *http.ServeMux
	server *http.Server
}

// NewServer creates a new HTTP server with configured routes. production
// disables the manual fetch trigger.
func NewServer(addr string, dataStore store.DataStore, sched *scheduler.Scheduler, hub *stream.Hub, logger zerolog.Logger, production bool) *Server {
	mux := http.NewServeMux()

	s := &Server{
		store:       dataStore,
		scheduler:   sched,
		hub:         hub,
		broadcaster: stream.NewWebSocketBroadcaster(hub, logger),
		logger:      logging.WithComponent(logger, "http"),
		production:  production,
		mux:         mux,
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
			// No WriteTimeout: the alert streams hold their connections
			// open indefinitely.
			ReadTimeout: 15 * time.Second,
			IdleTimeout: 60 * time.Second,
		},
	}

	s.registerRoutes()

	return s
}

// registerRoutes configures all HTTP routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/assets", s.handleListAssets)
	s.mux.HandleFunc("POST /api/assets", s.handleCreateAsset)
	s.mux.HandleFunc("PUT /api/assets/{id}", s.handleUpdateAsset)
	s.mux.HandleFunc("DELETE /api/assets/{id}", s.handleDeleteAsset)

	s.mux.HandleFunc("GET /api/quotes/current", s.handleCurrentQuotes)
	s.mux.HandleFunc("GET /api/quotes/{id}/history", s.handleAssetHistory)
	s.mux.HandleFunc("GET /api/alerts/history", s.handleAlertHistory)

	s.mux.HandleFunc("POST /api/admin/fetch-now", s.handleFetchNow)

	s.mux.HandleFunc("GET /api/stream/alerts", stream.SSEHandler(s.hub, s.logger))
	s.mux.HandleFunc("GET /api/ws/alerts", s.broadcaster.Handler())
}

// Handler returns the configured route handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins listening for HTTP requests and runs the websocket
// broadcaster pump until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.broadcaster.Run(ctx)
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
