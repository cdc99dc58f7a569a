package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// HandleDashboard reads the filter signals, recomputes, and patches the KPI
// cards and chart data. Invalid selections are shown in the sidebar.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestLimit)
	defer cancel()
	requestID := observability.GetRequestID(ctx)

	var signals filterSignals
	readErr := datastar.ReadSignals(r, &signals)

	sse := datastar.NewSSE(w, r)

	if readErr != nil {
		h.logger.Warn("bad dashboard signals", "error", readErr, "request_id", requestID)
		h.patchFilterError(ctx, sse, "Could not read the filter values.")
		return
	}

	def, err := h.analytics.DefaultSelection(ctx)
	if err != nil {
		h.logger.Error("dataset unavailable", "error", err, "request_id", requestID)
		h.patchFilterError(ctx, sse, "The dataset is not available.")
		return
	}

	dashboard, err := h.analytics.Dashboard(ctx, signals.selection(def))
	if err != nil {
		if stderrors.Is(err, services.ErrInvalidSelection) {
			h.logger.Warn("invalid selection", "error", err, "request_id", requestID)
			h.patchFilterError(ctx, sse, strings.TrimPrefix(err.Error(), services.ErrInvalidSelection.Error()+": "))
			return
		}
		h.logger.Error("recompute failed", "error", err, "request_id", requestID)
		h.patchFilterError(ctx, sse, "The dataset is not available.")
		return
	}

	signalsJSON, err := json.Marshal(map[string]any{
		"charts":   templates.NewCharts(dashboard),
		"rowCount": dashboard.RowCount,
	})
	if err != nil {
		h.logger.Error("marshal chart signals", "error", err, "request_id", requestID)
		return
	}

	h.patchDashboard(ctx, sse, dashboard, signalsJSON)
}

// HandleReset puts every filter back to the default selection.
func (h *SSEHandlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestLimit)
	defer cancel()
	requestID := observability.GetRequestID(ctx)

	sse := datastar.NewSSE(w, r)

	def, err := h.analytics.DefaultSelection(ctx)
	if err != nil {
		h.logger.Error("dataset unavailable", "error", err, "request_id", requestID)
		h.patchFilterError(ctx, sse, "The dataset is not available.")
		return
	}

	dashboard, err := h.analytics.Dashboard(ctx, def)
	if err != nil {
		h.logger.Error("recompute failed", "error", err, "request_id", requestID)
		h.patchFilterError(ctx, sse, "The dataset is not available.")
		return
	}

	signalsJSON, err := json.Marshal(templates.NewSignals(dashboard))
	if err != nil {
		h.logger.Error("marshal reset signals", "error", err, "request_id", requestID)
		return
	}

	h.patchDashboard(ctx, sse, dashboard, signalsJSON)
}

func (h *SSEHandlers) patchDashboard(ctx context.Context, sse *datastar.ServerSentEventGenerator, d models.Dashboard, signals []byte) {
	html, err := renderToString(ctx, templates.KPICards(d))
	if err != nil {
		h.logger.Error("render kpi cards", "error", err)
		return
	}

	if err := sse.PatchElements(html); err != nil {
		h.logger.Debug("client went away", "error", err)
		return
	}
	if err := sse.PatchSignals(signals); err != nil {
		h.logger.Debug("client went away", "error", err)
		return
	}
	h.patchFilterError(ctx, sse, "")
}

func (h *SSEHandlers) patchFilterError(ctx context.Context, sse *datastar.ServerSentEventGenerator, message string) {
	html, err := renderToString(ctx, templates.FilterError(message))
	if err != nil {
		h.logger.Error("failed to render filter error", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Debug("client went away", "error", err)
	}
}

func renderToString(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
