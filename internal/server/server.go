package server

import (
	"log/slog"
	"net/http"

	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

type Server struct {
	analytics    *services.Analytics
	metrics      *observability.Metrics
	mux          *http.ServeMux
	logger       *slog.Logger
	pageHandlers *handlers.PageHandlers
	apiHandlers  *handlers.APIHandlers
	sseHandlers  *handlers.SSEHandlers
}

// NewServer wires every route. metrics may be nil, in which case /metrics is
// not served.
func NewServer(analytics *services.Analytics, logger *slog.Logger, metrics *observability.Metrics) *Server {
	s := &Server{
		analytics:    analytics,
		metrics:      metrics,
		mux:          http.NewServeMux(),
		logger:       logger,
		pageHandlers: handlers.NewPageHandlers(analytics, logger),
		apiHandlers:  handlers.NewAPIHandlers(analytics, logger),
		sseHandlers:  handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", s.pageHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /deck.pptx", s.apiHandlers.HandleDeck)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.HandleFunc("POST /admin/reload", s.apiHandlers.HandleReload)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/dashboard", s.apiHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /api/filters", s.apiHandlers.HandleFilters)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/dashboard", s.sseHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /sse/reset", s.sseHandlers.HandleReset)

	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
