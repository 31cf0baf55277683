// Package httpapi exposes the agent over HTTP: a chat endpoint, the pending
// approval queue, and skill inspection.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/lbaylis/hearth/internal/agent"
	"github.com/lbaylis/hearth/internal/skills"
)

// Server is the REST front end. One Server drives one conversation loop;
// approvals raised by that loop surface through the PendingApprover.
type Server struct {
	router   *mux.Router
	loop     *agent.Loop
	approver *PendingApprover
	manager  *skills.Manager
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a fully-wired Server ready to Start().
func NewServer(addr string, loop *agent.Loop, approver *PendingApprover, manager *skills.Manager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &Server{
		router:   mux.NewRouter(),
		loop:     loop,
		approver: approver,
		manager:  manager,
		logger:   logger,
	}
	srv.server = &http.Server{
		Addr:        addr,
		Handler:     srv.router,
		ReadTimeout: 15 * time.Second,
		// No write timeout: a chat response legitimately waits on model
		// calls and human approvals.
	}
	srv.registerRoutes()
	return srv
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start begins listening and blocks until shutdown or a fatal error.
func (s *Server) Start() error {
	s.logger.Info("api server starting", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// registerRoutes wires every API endpoint to its handler.
func (s *Server) registerRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/chat", s.handleChat).Methods("POST")
	api.HandleFunc("/approvals", s.handleListApprovals).Methods("GET")
	api.HandleFunc("/approvals/{id}", s.handleResolveApproval).Methods("POST")
	api.HandleFunc("/skills", s.handleListSkills).Methods("GET")
	api.HandleFunc("/kill", s.handleKill).Methods("POST")
}
