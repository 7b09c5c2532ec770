// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/assistgate/assistgate/internal/assistant"
	"github.com/assistgate/assistgate/internal/config"
	"github.com/assistgate/assistgate/internal/protocol"

	"github.com/go-chi/chi/v5"
)

// Server is the REST + WebSocket API server.
type Server struct {
	httpServer  *http.Server
	broadcaster *EventBroadcaster
}

// New creates and wires up the API server. It does NOT start listening —
// call Run() for that.
func New(cfg *config.ServerConfig, registry *assistant.Registry, version string) *Server {
	clients := NewClientRegistry()
	broadcaster := NewEventBroadcaster(clients)
	metrics := NewMetrics()
	handlers := NewHandlers(registry, broadcaster, metrics, version)

	r := chi.NewRouter()

	// Global middleware
	r.Use(Recovery)
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(MaxBodySize(cfg.MaxBodyBytes))

	// REST routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/assistants", handlers.GetAssistants)
		r.Post("/chat", handlers.PostChat)
		r.Post("/code/explain", handlers.PostExplainCode)
		r.Post("/code/modify", handlers.PostModifyCode)
		r.Post("/git/commit", handlers.PostCommit)
	})

	// Operational endpoints
	r.Get("/health", handlers.GetHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// WebSocket
	r.Get("/ws", HandleWebSocket(clients, cfg.AllowedOrigins))

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			// Assistant subprocesses can legitimately run for minutes, so the
			// write timeout must outlast the longest chat timeout.
			WriteTimeout: 15 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		broadcaster: broadcaster,
	}
}

// Run starts the event broadcaster goroutine and the HTTP server.
// Blocks until the server is shut down or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		const maxRetries = 3
		for attempt := 1; attempt <= maxRetries; attempt++ {
			func() {
				defer func() {
					if r := recover(); r != nil {
						getLog().Error().Interface("panic", r).Int("attempt", attempt).Msg("Event broadcaster panic")
					}
				}()
				s.broadcaster.Run(ctx)
			}()

			// Normal return (context cancelled) — exit without retry.
			if ctx.Err() != nil {
				return
			}

			if attempt < maxRetries {
				getLog().Warn().Int("attempt", attempt).Msg("Restarting event broadcaster after panic")
				time.Sleep(1 * time.Second)
				// Tell connected clients they may have missed events while the
				// dispatch loop was down. Drained by the restarted loop.
				s.broadcaster.Publish(protocol.NewErrorEvent(
					"event dispatch interrupted, events may have been dropped", "broadcaster"))
			}
		}
		getLog().Error().Msg("Event broadcaster exhausted retries - events will no longer be dispatched")
	}()

	getLog().Info().Str("addr", s.httpServer.Addr).Msg("API server listening")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
