package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

type PageHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewPageHandlers(analytics *services.Analytics, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// HandleDashboard renders the whole page with every filter at its default.
func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestLimit)
	defer cancel()
	requestID := observability.GetRequestID(ctx)

	opts, err := h.analytics.Options(ctx)
	if err != nil {
		h.logger.Error("dataset unavailable", "error", err, "request_id", requestID)
		http.Error(w, "dataset is not available", http.StatusServiceUnavailable)
		return
	}

	def, err := h.analytics.DefaultSelection(ctx)
	if err != nil {
		h.logger.Error("dataset unavailable", "error", err, "request_id", requestID)
		http.Error(w, "dataset is not available", http.StatusServiceUnavailable)
		return
	}

	dashboard, err := h.analytics.Dashboard(ctx, def)
	if err != nil {
		h.logger.Error("recompute failed", "error", err, "request_id", requestID)
		http.Error(w, "dataset is not available", http.StatusServiceUnavailable)
		return
	}

	var buf bytes.Buffer
	if err := templates.Dashboard(opts, dashboard).Render(ctx, &buf); err != nil {
		h.logger.Error("render dashboard", "error", err, "request_id", requestID)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.Bytes())
}
