// Package api provides the HTTP and websocket server for AgriChat.
//
// It exposes read/delete endpoints over farmer, organization, and chat
// history records, plus the websocket chat channel driven by the
// conversation engine.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cropgen/agrichat/internal/flow"
	"github.com/cropgen/agrichat/internal/store"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// DefaultAddr is used when no API address is configured.
const DefaultAddr = ":8080"

// Server wires the store and the conversation engine to the HTTP surface.
type Server struct {
	st     store.Store
	engine *flow.Engine
}

// NewServer creates an API server over the given store and engine.
func NewServer(st store.Store, engine *flow.Engine) *Server {
	return &Server{st: st, engine: engine}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Heartbeat("/health"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/farmers", s.listFarmersHandler)
		r.Get("/farmers/{id}", s.getFarmerHandler)
		r.Delete("/farmers/{id}", s.deleteFarmerHandler)

		r.Get("/organizations", s.listOrganizationsHandler)
		r.Get("/organizations/{id}", s.getOrganizationHandler)
		r.Delete("/organizations/{id}", s.deleteOrganizationHandler)

		r.Get("/chat-of/{userType}/{userId}", s.getChatHandler)
		r.Delete("/chat-of/{userType}/{userId}", s.deleteChatHandler)
	})

	r.Get("/ws", s.websocketHandler)

	return r
}

// Run starts the HTTP server on the given address and blocks.
func (s *Server) Run(addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("AgriChat API listening", "addr", addr)
	return srv.ListenAndServe()
}
