package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"marketscope/internal/api/health"
	"marketscope/internal/metrics"
	"marketscope/pkg/errors"
	"marketscope/pkg/logger"
)

// ServerConfig contains configuration for HTTP server
type ServerConfig struct {
	Port        int
	ServiceName string
	Version     string
}

// Server wraps HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates and configures HTTP server with all routes
func NewServer(cfg ServerConfig, handlers *Handlers, feedHandler *FeedHandler, healthHandler *health.Handler, log *logger.Logger) *Server {
	mux := http.NewServeMux()

	// Health check endpoints (Kubernetes probes)
	mux.HandleFunc("/health", healthHandler.HandleHealth)
	mux.HandleFunc("/ready", healthHandler.HandleReadiness)
	mux.HandleFunc("/live", healthHandler.HandleLiveness)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", metrics.Handler())

	// Research query lifecycle
	mux.HandleFunc("POST /api/queries", handlers.HandleCreateQuery)
	mux.HandleFunc("GET /api/queries", handlers.HandleListQueries)
	mux.HandleFunc("GET /api/queries/{id}", handlers.HandleGetQuery)
	mux.HandleFunc("DELETE /api/queries/{id}", handlers.HandleDeleteQuery)

	// Pipeline and individual stages
	mux.HandleFunc("POST /api/research/run", handlers.HandleRunResearch)
	mux.HandleFunc("POST /api/agents/{kind}/run", handlers.HandleRunAgent)
	mux.HandleFunc("POST /api/insights/run", handlers.HandleRunInsights)
	mux.HandleFunc("POST /api/reports/render", handlers.HandleRenderReport)
	mux.HandleFunc("GET /api/reports/{id}", handlers.HandleGetReport)

	// Retrieval and chat
	mux.HandleFunc("POST /api/knowledge/search", handlers.HandleKnowledgeSearch)
	mux.HandleFunc("POST /api/assistant", handlers.HandleAssistant)

	// Status change feed
	mux.HandleFunc("GET /ws/queries/{id}", feedHandler.HandleQueryFeed)

	// Root endpoint (service info)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"service":"%s","version":"%s","status":"running"}`,
			cfg.ServiceName, cfg.Version)
	})

	port := 8080
	if cfg.Port > 0 {
		port = cfg.Port
	}

	log.Infof("HTTP server configured on port %d", port)

	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		// Synchronous agent and aggregation endpoints can run for minutes
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		log:        log,
	}
}

// Start begins listening for HTTP requests
// Blocks until server is stopped or encounters an error
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
// Waits for active connections to complete within timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}

	s.log.Info("✓ HTTP server stopped")
	return nil
}
