// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package web exposes the scoring pipeline over HTTP for callers that
// prefer a service boundary to the CLI.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"clause-scan/internal/core"
	"clause-scan/internal/observability"
	"clause-scan/internal/schema"
	"clause-scan/internal/version"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxRequestBytes bounds request bodies; clause batches are text and
// should never come close to this.
const maxRequestBytes = 32 << 20

// Server wraps the scoring pipeline in an HTTP API.
type Server struct {
	router   *chi.Mux
	server   *http.Server
	observer *observability.StandardObserver
	workers  int
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithWorkers sets the matcher worker count for pipeline runs.
func WithWorkers(workers int) ServerOption {
	return func(s *Server) { s.workers = workers }
}

// WithObserver attaches an observer to pipeline runs.
func WithObserver(observer *observability.StandardObserver) ServerOption {
	return func(s *Server) { s.observer = observer }
}

// NewServer constructs a server listening on the given port.
func NewServer(port string, options ...ServerOption) *Server {
	s := &Server{
		router: chi.NewRouter(),
	}
	for _, option := range options {
		option(s)
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/version", s.handleVersion)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/score", s.handleScore)
		r.Post("/report", s.handleReport)
	})

	s.server = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
		// Timeout for reading request headers (prevents slow header attacks)
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routing tree, used directly in tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until it is stopped or fails.
func (s *Server) Start() error {
	fmt.Printf("clause-scan web server listening on %s\n", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down immediately.
func (s *Server) Stop() error {
	return s.server.Close()
}

// scoreRequest is the request body shared by /score and /report.
type scoreRequest struct {
	Clauses json.RawMessage `json:"clauses"`
	Ruleset json.RawMessage `json:"ruleset"`
	Policy  json.RawMessage `json:"policy,omitempty"`
}

func (s *Server) runPipeline(r *http.Request) (*core.PipelineResult, error) {
	var req scoreRequest
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBytes))
	if err := decoder.Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if len(req.Clauses) == 0 {
		return nil, fmt.Errorf("missing clauses")
	}
	if len(req.Ruleset) == 0 {
		return nil, fmt.Errorf("missing ruleset")
	}

	clauses, err := schema.ClausesFromJSON(req.Clauses)
	if err != nil {
		return nil, fmt.Errorf("invalid clauses: %w", err)
	}
	ruleset, err := schema.RulesetFromJSON(req.Ruleset)
	if err != nil {
		return nil, fmt.Errorf("invalid ruleset: %w", err)
	}
	policy := schema.DefaultPolicy()
	if len(req.Policy) > 0 {
		policy, err = schema.PolicyFromJSON(req.Policy)
		if err != nil {
			return nil, fmt.Errorf("invalid policy: %w", err)
		}
	}

	return core.Run(r.Context(), core.PipelineConfig{
		Clauses:  clauses,
		Ruleset:  ruleset,
		Policy:   policy,
		Workers:  s.workers,
		Observer: s.observer,
	})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	result, err := s.runPipeline(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result.Document)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	result, err := s.runPipeline(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	page := RenderHTMLReport(result.Document)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	versionInfo := version.Full()
	healthData := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "clause-scan-web",
		"version":   versionInfo["version"],
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(healthData)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(version.Full())
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
